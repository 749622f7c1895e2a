// Counter and alarm engine: one min-heap of alarms per counter, keyed by
// absolute tick deadline under wrap-safe ordering, so deadlines can wrap
// through 0 without reordering the queue.

package osek_internal

import "container/heap"

// CounterConfig is the static, read-only configuration of one counter.
type CounterConfig struct {
	// Name, used only for logging/diagnostics.
	Name string
	// Tick modulus: counter wraps to 0 after reaching Modulus-1. 0 means
	// the full native width (wraps at 1<<64 via normal uint64 overflow).
	Modulus uint64
}

// CounterControl is the mutable control block for one counter.
type CounterControl struct {
	Ticks uint64
	heap  []AlarmID
}

// AlarmConfig is the static, read-only configuration of one alarm.
type AlarmConfig struct {
	// Name, used only for logging/diagnostics.
	Name string
	// Target counter and task: the alarm activates Task on Counter expiry.
	Counter CounterID
	Task    TaskID
}

// AlarmControl is the mutable control block for one alarm.
type AlarmControl struct {
	Deadline uint64
	Cycle    uint64
	Queued   bool
}

// wrapDiff returns (b - a) mod modulus; with modulus == 0 this is just the
// natural uint64 wraparound, i.e. mod 1<<64.
func wrapDiff(a, b, modulus uint64) uint64 {
	if modulus == 0 {
		return b - a
	}
	if b >= a {
		return b - a
	}
	return modulus - (a - b)
}

// lt is the wrap-aware less-than used to order the alarm heap and to
// determine whether a deadline has passed: lt(a,b) iff (b-a) mod modulus is
// in (0, half]. The half-range test is the usual sequence-number
// comparison.
func lt(a, b, modulus uint64) bool {
	diff := wrapDiff(a, b, modulus)
	half := modulus / 2
	if modulus == 0 {
		half = uint64(1) << 63
	}
	return diff != 0 && diff <= half
}

// tickAdvance returns cur+1, wrapping at modulus (or at the native uint64
// range when modulus == 0).
func tickAdvance(cur, modulus uint64) uint64 {
	next := cur + 1
	if modulus != 0 && next >= modulus {
		next = 0
	}
	return next
}

// alarmHeap adapts one counter's alarm queue to container/heap.Interface.
type alarmHeap struct {
	k *Kernel
	c CounterID
}

func (h alarmHeap) slots() []AlarmID { return h.k.counters[h.c].heap }

func (h alarmHeap) Len() int { return len(h.slots()) }

func (h alarmHeap) Less(i, j int) bool {
	s := h.slots()
	modulus := h.k.cfg.Counters[h.c].Modulus
	return lt(h.k.alarms[s[i]].Deadline, h.k.alarms[s[j]].Deadline, modulus)
}

func (h alarmHeap) Swap(i, j int) {
	s := h.slots()
	s[i], s[j] = s[j], s[i]
}

func (h alarmHeap) Push(x any) {
	cc := &h.k.counters[h.c]
	cc.heap = append(cc.heap, x.(AlarmID))
}

func (h alarmHeap) Pop() any {
	cc := &h.k.counters[h.c]
	n := len(cc.heap) - 1
	a := cc.heap[n]
	cc.heap = cc.heap[:n]
	return a
}

func (k *Kernel) validAlarm(a AlarmID) bool {
	return a != NoAlarm && int(a) < len(k.alarms)
}

func (k *Kernel) validCounter(c CounterID) bool {
	return c != NoCounter && int(c) < len(k.counters)
}

func (k *Kernel) alarmName(a AlarmID) string {
	if a == NoAlarm || int(a) >= len(k.cfg.Alarms) {
		return "<none>"
	}
	return k.cfg.Alarms[a].Name
}

// insertAlarm inserts a with deadline into its configured counter's heap.
func (k *Kernel) insertAlarm(a AlarmID, deadline uint64, cycle uint64) {
	ac := &k.alarms[a]
	ac.Deadline, ac.Cycle, ac.Queued = deadline, cycle, true
	c := k.cfg.Alarms[a].Counter
	heap.Push(alarmHeap{k, c}, a)
}

// cycleInRange reports whether a cycle length is usable on a counter of the
// given modulus: a cycle of at least the modulus would re-arm an expired
// alarm at or before the very tick that just fired it.
func cycleInRange(cycle, modulus uint64) bool {
	return modulus == 0 || cycle < modulus
}

// setRelAlarm arms a at current ticks + increment; the alarm must not
// already be queued, and increment == 0 is rejected so "fire now" can never
// be requested.
func (k *Kernel) setRelAlarm(a AlarmID, increment, cycle uint64) Status {
	if !k.validAlarm(a) {
		return k.checkError(ServiceSetRelAlarm, EOsID, uint32(a))
	}
	if k.alarms[a].Queued {
		return k.checkError(ServiceSetRelAlarm, EOsState, uint32(a))
	}
	c := k.cfg.Alarms[a].Counter
	modulus := k.cfg.Counters[c].Modulus
	if increment == 0 || (modulus != 0 && increment >= modulus) || !cycleInRange(cycle, modulus) {
		return k.checkError(ServiceSetRelAlarm, EOsValue, uint32(a), uint32(increment), uint32(cycle))
	}
	deadline := wrapAdd(k.counters[c].Ticks, increment, modulus)
	k.insertAlarm(a, deadline, cycle)
	alarmLog.Debugf("%s armed relative +%d (cycle=%d), deadline=%d", k.alarmName(a), increment, cycle, deadline)
	return EOk
}

// setAbsAlarm arms a at the absolute counter value start.
func (k *Kernel) setAbsAlarm(a AlarmID, start, cycle uint64) Status {
	if !k.validAlarm(a) {
		return k.checkError(ServiceSetAbsAlarm, EOsID, uint32(a))
	}
	if k.alarms[a].Queued {
		return k.checkError(ServiceSetAbsAlarm, EOsState, uint32(a))
	}
	c := k.cfg.Alarms[a].Counter
	modulus := k.cfg.Counters[c].Modulus
	if (modulus != 0 && start >= modulus) || !cycleInRange(cycle, modulus) {
		return k.checkError(ServiceSetAbsAlarm, EOsValue, uint32(a), uint32(start), uint32(cycle))
	}
	k.insertAlarm(a, start, cycle)
	alarmLog.Debugf("%s armed absolute at %d (cycle=%d)", k.alarmName(a), start, cycle)
	return EOk
}

// cancelAlarm disarms a: a linear scan locates the alarm's slot in its
// counter's heap, then heap.Remove restores the heap property by swapping
// the last slot in and sifting.
func (k *Kernel) cancelAlarm(a AlarmID) Status {
	if !k.validAlarm(a) {
		return k.checkError(ServiceCancelAlarm, EOsID, uint32(a))
	}
	if !k.alarms[a].Queued {
		return k.checkError(ServiceCancelAlarm, EOsNoFunc, uint32(a))
	}
	c := k.cfg.Alarms[a].Counter
	h := alarmHeap{k, c}
	slots := h.slots()
	idx := -1
	for i, id := range slots {
		if id == a {
			idx = i
			break
		}
	}
	if idx < 0 {
		// Queued flag and heap contents disagree: a kernel invariant
		// violation, not a caller error.
		alarmLog.Errorf("%s marked queued but absent from counter %s heap", k.alarmName(a), k.cfg.Counters[c].Name)
		return k.checkError(ServiceCancelAlarm, EOsNoFunc, uint32(a))
	}
	heap.Remove(h, idx)
	k.alarms[a].Queued = false
	alarmLog.Debugf("%s cancelled", k.alarmName(a))
	return EOk
}

// getAlarm reports the wrap-safe number of ticks until a's deadline.
func (k *Kernel) getAlarm(a AlarmID, ticksUntil *uint64) Status {
	if !k.validAlarm(a) {
		return k.checkError(ServiceGetAlarm, EOsID, uint32(a))
	}
	if !k.alarms[a].Queued {
		return k.checkError(ServiceGetAlarm, EOsNoFunc, uint32(a))
	}
	c := k.cfg.Alarms[a].Counter
	modulus := k.cfg.Counters[c].Modulus
	*ticksUntil = wrapDiff(k.counters[c].Ticks, k.alarms[a].Deadline, modulus)
	return EOk
}

// wrapAdd returns (a + b) mod modulus.
func wrapAdd(a, b, modulus uint64) uint64 {
	sum := a + b
	if modulus != 0 {
		sum %= modulus
	}
	return sum
}

// incrementCounter advances the tick, then fires every alarm whose
// deadline has been reached or passed, re-arming cyclic ones. Activation
// failures (E_OS_LIMIT) are logged as warnings, never propagated, since an
// alarm firing is not a caller-facing service call.
func (k *Kernel) incrementCounter(c CounterID) Status {
	if !k.validCounter(c) {
		return k.checkError(ServiceIncrementCounter, EOsID, uint32(c))
	}
	cc := &k.counters[c]
	modulus := k.cfg.Counters[c].Modulus
	cc.Ticks = tickAdvance(cc.Ticks, modulus)
	ticks := cc.Ticks

	h := alarmHeap{k, c}
	for len(cc.heap) > 0 {
		a := cc.heap[0]
		deadline := k.alarms[a].Deadline
		if deadline != ticks && lt(ticks, deadline, modulus) {
			// Deadline strictly in the future: nothing more to fire.
			break
		}
		heap.Pop(h)
		k.alarms[a].Queued = false

		target := k.cfg.Alarms[a].Task
		if status := k.activate(target); status == EOsLimit {
			alarmLog.Warnf("%s fired but %s is already at its activation limit", k.alarmName(a), k.taskName(target))
		}
		alarmLog.Debugf("%s fired at tick %d", k.alarmName(a), ticks)

		if cycle := k.alarms[a].Cycle; cycle > 0 {
			k.insertAlarm(a, wrapAdd(deadline, cycle, modulus), cycle)
		}
	}
	return EOk
}
