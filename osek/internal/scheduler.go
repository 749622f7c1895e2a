// Core scheduling algorithm: pick the head of the highest non-empty ready
// queue and, if it beats whatever is RUNNING, swap them. This is the one
// place RUNNING state changes outside of activate/terminate.

package osek_internal

// highestReady returns the priority of the highest non-empty ready queue, or
// -1 if every queue is empty.
func (k *Kernel) highestReady() int {
	for p := len(k.ready) - 1; p >= 0; p-- {
		if k.ready[p].head != NoTask {
			return p
		}
	}
	return -1
}

// schedule compares the head of the highest-priority non-empty ready queue
// against whatever is RUNNING (if anything) at its *effective* priority,
// and switches only if the ready candidate is strictly higher. Ties never
// preempt: a RUNNING task keeps the CPU against equal-priority arrivals
// until it blocks or terminates, which is what makes equal-priority
// execution FIFO.
func (k *Kernel) schedule() {
	// Nothing runs before Start's first scheduling decision (autostart
	// tasks queued by Init included) or after Shutdown.
	if !k.started {
		return
	}
	best := k.highestReady()
	if best < 0 {
		return
	}

	if k.running != NoTask {
		runningPrio := int(k.tasks[k.running].EffectivePriority)
		if best <= runningPrio {
			// The effective priority of whatever runs now is at or above
			// the best ready candidate: no preemption. This is also where
			// a held ceiling, including the scheduler lock's
			// blocks-everything ceiling, actually bites.
			return
		}
		// Preempted: push the running task back to the head of its own
		// ready queue, ahead of anything that arrived while it ran. It goes
		// in at its *effective* priority: if it currently holds a
		// ceiling-raising resource, that is the level it must be found at
		// until the resource is released.
		prevTask := k.running
		prevPrio := k.tasks[prevTask].EffectivePriority
		k.tasks[prevTask].State = StateReady
		k.pushHead(prevPrio, prevTask)
		if k.postTaskHook != nil {
			k.postTaskHook(prevTask)
		}
		taskLog.Debugf("%s preempted, -> READY", k.taskName(prevTask))
	}

	next := k.popHead(Priority(best))
	fresh := k.tasks[next].State == StateReadyFirst
	k.enterRunning(next)
	schedulerLog.Debugf("switch -> %s (fresh=%t, prio=%d)", k.taskName(next), fresh, best)

	if k.port != nil {
		k.port.Dispatch(next, fresh)
	}
}
