// Public service surface and the dispatch envelope every service runs
// inside: take the kernel lock (the host stand-in for suspending
// interrupts), perform the service, reschedule, then drop the lock.
// Schedule additionally brackets the call with the caller's internal
// resource: released before the reschedule so a ready task above the
// caller's base priority (such as a higher-priority member of its
// non-preemption group) gets a chance to run, reacquired if the caller kept
// the CPU. TerminateTask and ChainTask release it through the termination
// itself.

package osek_internal

// dispatch runs fn under the kernel lock and always ends with a reschedule.
// schedule() calls Port.Dispatch while still holding the lock, so a
// preemption triggered by this very call is visible the instant dispatch
// returns. If the reschedule left the calling task no longer RUNNING (it
// lost the CPU to something higher-priority), the caller parks, outside the
// lock, until a later dispatch resumes it. That park is what keeps two
// tasks from ever truly running concurrently on top of Go's own goroutine
// scheduler.
func (k *Kernel) dispatch(fn func() Status) Status {
	status, caller, stillRunning := k.dispatchLocked(fn, false)
	if caller != NoTask && !stillRunning && k.port != nil {
		k.port.Park(caller)
	}
	return status
}

// dispatchYield is dispatch with the internal-resource bracketing: used only
// by Schedule, the one service whose whole purpose is to open a preemption
// window inside a non-preemption group.
func (k *Kernel) dispatchYield(fn func() Status) Status {
	status, caller, stillRunning := k.dispatchLocked(fn, true)
	if caller != NoTask && !stillRunning && k.port != nil {
		k.port.Park(caller)
	}
	return status
}

// dispatchTerminal is dispatch's counterpart for TerminateTask/ChainTask:
// those services never return to their caller on success (the caller's
// goroutine is retired via Port.StopSelf instead), so there is nothing to
// park. The internal resource, if held, is released by the termination
// itself.
func (k *Kernel) dispatchTerminal(fn func() Status) Status {
	status, _, _ := k.dispatchLocked(fn, false)
	return status
}

func (k *Kernel) dispatchLocked(fn func() Status, yield bool) (status Status, caller TaskID, stillRunning bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	caller = k.running
	var internal ResourceID = NoResource
	if yield && caller != NoTask {
		internal = k.cfg.Tasks[caller].InternalResource
		// Only releasable when it is the top of the caller's resource
		// stack; with an application resource held above it, LIFO order
		// pins it in place.
		if internal != NoResource && k.tasks[caller].ResTop == internal {
			k.releaseInternal(caller, internal)
		} else {
			internal = NoResource
		}
	}

	status = fn()
	k.schedule()

	if internal != NoResource && k.running == caller {
		k.acquireInternal(caller, internal)
	}
	stillRunning = caller != NoTask && k.running == caller
	syscallLog.Debugf("caller=%s status=%s stillRunning=%t", k.taskName(caller), status, stillRunning)
	return status, caller, stillRunning
}

// heldApplicationResource returns the top of t's resource stack unless the
// only thing held is t's own internal resource, which the kernel manages on
// the task's behalf and which therefore never blocks termination.
func (k *Kernel) heldApplicationResource(t TaskID) ResourceID {
	top := k.tasks[t].ResTop
	if top != NoResource && top == k.cfg.Tasks[t].InternalResource {
		return NoResource
	}
	return top
}

// ActivateTask queues one activation of t, preempting the caller if t's
// base priority is above the caller's effective priority.
func (k *Kernel) ActivateTask(t TaskID) Status {
	return k.dispatch(func() Status {
		if !k.validTask(t) {
			return k.checkError(ServiceActivateTask, EOsID, uint32(t))
		}
		status := k.activate(t)
		if status != EOk {
			return k.checkError(ServiceActivateTask, status, uint32(t))
		}
		return EOk
	})
}

// TerminateTask retires the calling task; it never returns to its caller on
// success. Calling it with no task RUNNING is E_OS_CALLEVEL; calling it
// while still holding an application resource is E_OS_RESOURCE, since
// silently releasing the resource would hide a missing ReleaseResource in
// the caller.
func (k *Kernel) TerminateTask() Status {
	status := k.dispatchTerminal(func() Status {
		caller := k.running
		if caller == NoTask {
			return k.checkError(ServiceTerminateTask, EOsCallLevel)
		}
		if top := k.heldApplicationResource(caller); top != NoResource {
			return k.checkError(ServiceTerminateTask, EOsResource, uint32(top))
		}
		k.terminate(caller)
		return EOk
	})
	if status == EOk && k.port != nil {
		k.port.StopSelf()
	}
	return status
}

// ChainTask terminates the caller and activates next in one atomic step,
// then never returns. On any error, including next being at its activation
// limit, the caller keeps running and nothing has changed.
func (k *Kernel) ChainTask(next TaskID) Status {
	status := k.dispatchTerminal(func() Status {
		caller := k.running
		if caller == NoTask {
			return k.checkError(ServiceChainTask, EOsCallLevel)
		}
		if !k.validTask(next) {
			return k.checkError(ServiceChainTask, EOsID, uint32(next))
		}
		if top := k.heldApplicationResource(caller); top != NoResource {
			return k.checkError(ServiceChainTask, EOsResource, uint32(top))
		}
		// Chaining to self always works: the caller's own activation is
		// about to be retired, freeing the slot the new one takes.
		if next != caller && k.tasks[next].Activation >= k.cfg.Tasks[next].MaxActivations {
			return k.checkError(ServiceChainTask, EOsLimit, uint32(next))
		}
		k.terminate(caller)
		k.activate(next)
		return EOk
	})
	if status == EOk && k.port != nil {
		k.port.StopSelf()
	}
	return status
}

// Schedule is a voluntary yield point: the caller's internal resource is
// dropped for the duration of the reschedule, so a task in the same
// non-preemption group with a higher base priority gets the CPU.
func (k *Kernel) Schedule() Status {
	return k.dispatchYield(func() Status {
		if k.running == NoTask {
			return k.checkError(ServiceSchedule, EOsCallLevel)
		}
		return EOk
	})
}

// GetTaskID reports the id of the calling (RUNNING) task, or NoTask when no
// task context is active, e.g. before Start.
func (k *Kernel) GetTaskID() (TaskID, Status) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.running, EOk
}

// GetResource acquires r under the priority-ceiling protocol.
func (k *Kernel) GetResource(r ResourceID) Status {
	return k.dispatch(func() Status {
		caller := k.running
		if caller == NoTask {
			return k.checkError(ServiceGetResource, EOsCallLevel, uint32(r))
		}
		return k.getResource(caller, r)
	})
}

// ReleaseResource releases r, which must be the caller's most recently
// acquired resource; a now-eligible higher-priority task preempts before
// this returns.
func (k *Kernel) ReleaseResource(r ResourceID) Status {
	return k.dispatch(func() Status {
		caller := k.running
		if caller == NoTask {
			return k.checkError(ServiceReleaseResource, EOsCallLevel, uint32(r))
		}
		return k.releaseResource(caller, r)
	})
}

// SetRelAlarm arms a relative to its counter's current tick count.
func (k *Kernel) SetRelAlarm(a AlarmID, increment, cycle uint64) Status {
	return k.dispatch(func() Status { return k.setRelAlarm(a, increment, cycle) })
}

// SetAbsAlarm arms a at an absolute counter value.
func (k *Kernel) SetAbsAlarm(a AlarmID, start, cycle uint64) Status {
	return k.dispatch(func() Status { return k.setAbsAlarm(a, start, cycle) })
}

// CancelAlarm disarms a.
func (k *Kernel) CancelAlarm(a AlarmID) Status {
	return k.dispatch(func() Status { return k.cancelAlarm(a) })
}

// GetAlarm reports the ticks remaining until a fires.
func (k *Kernel) GetAlarm(a AlarmID) (uint64, Status) {
	var ticksUntil uint64
	status := k.dispatch(func() Status { return k.getAlarm(a, &ticksUntil) })
	return ticksUntil, status
}

// IncrementCounter advances a software counter by one tick from task
// context, expiring whatever alarms come due, exactly like a timer tick
// does from interrupt context.
func (k *Kernel) IncrementCounter(c CounterID) Status {
	return k.dispatch(func() Status { return k.incrementCounter(c) })
}
