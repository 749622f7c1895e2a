// Task state machine: SUSPENDED -> READY_FIRST -> RUNNING -> READY/
// SUSPENDED transitions, with the pre/post task hooks and internal-resource
// bookkeeping that ride along with them.

package osek_internal

// TaskState is one of the four states a task control block can be in.
type TaskState int

const (
	StateSuspended TaskState = iota
	StateReadyFirst
	StateReady
	StateRunning
)

var taskStateNames = map[TaskState]string{
	StateSuspended:  "SUSPENDED",
	StateReadyFirst: "READY_FIRST",
	StateReady:      "READY",
	StateRunning:    "RUNNING",
}

func (s TaskState) String() string { return taskStateNames[s] }

// TaskConfig is the static, read-only configuration of one task.
type TaskConfig struct {
	// Name, used only for logging/diagnostics.
	Name string
	// Fixed base priority, below the kernel's PrioCount.
	BasePriority Priority
	// Entry point. Run on whatever Port implementation is installed.
	Entry func()
	// Stack size lent to the task by the configuration; the port decides
	// how (or whether) to honor it. 0 means "port default".
	StackSize uint32
	// Whether the task transitions SUSPENDED -> READY_FIRST during Init.
	Autostart bool
	// Maximum pending activation count: 1 in the basic profile, up to 255
	// in the extended-multiple profile.
	MaxActivations uint8
	// Optional internal resource, auto-acquired on dispatch and
	// auto-released at each voluntary rescheduling service, implementing
	// non-preemption groups. Must be NoResource if the task declares
	// none: the zero value names the scheduler-lock resource, which makes
	// the task fully non-preemptable.
	InternalResource ResourceID
}

// TaskControl is the mutable control block for one task.
type TaskControl struct {
	State TaskState
	// Pending activation count, 0 <= Activation <= MaxActivations.
	Activation uint8
	// Next link inside the ready queue of its effective priority; NoTask
	// when not queued.
	Next TaskID
	// Top of the held-resource stack; NoResource when the task holds none.
	ResTop ResourceID
	// Current effective priority: base priority, or the ceiling of the
	// highest resource currently held.
	EffectivePriority Priority
}

func (k *Kernel) taskName(t TaskID) string {
	if t == NoTask || int(t) >= len(k.cfg.Tasks) {
		return "<none>"
	}
	return k.cfg.Tasks[t].Name
}

// validTask reports whether t is a configured task id.
func (k *Kernel) validTask(t TaskID) bool {
	return t != NoTask && int(t) < len(k.cfg.Tasks)
}

// enterRunning transitions t into RUNNING, acquiring its internal resource
// (unless a preemption left it held throughout) and running the pre-task
// hook.
func (k *Kernel) enterRunning(t TaskID) {
	tc := &k.tasks[t]
	tc.State = StateRunning
	tc.Next = NoTask
	// EffectivePriority is left untouched: a fresh dispatch (READY_FIRST)
	// already carries its base priority (set by Init/terminate), and a
	// resumed, preempted task (READY) must keep whatever ceiling it held
	// across the preemption, since its resource stack (ResTop) never
	// unwound.
	if r := k.cfg.Tasks[t].InternalResource; r != NoResource && k.resources[r].Holder != t {
		k.acquireInternal(t, r)
	}
	k.running = t
	if k.preTaskHook != nil {
		k.preTaskHook(t)
	}
	taskLog.Debugf("%s -> RUNNING", k.taskName(t))
}

// leaveRunning runs the post-task hook and releases t's internal resource
// if it is still held; called on the RUNNING -> SUSPENDED transition. A
// preemption (RUNNING -> READY) runs only the hook: the internal resource
// stays held so the task resumes inside its non-preemption group.
func (k *Kernel) leaveRunning(t TaskID) {
	if k.postTaskHook != nil {
		k.postTaskHook(t)
	}
	if r := k.cfg.Tasks[t].InternalResource; r != NoResource && k.resources[r].Holder == t {
		k.releaseInternal(t, r)
	}
}

// activate performs the SUSPENDED -> READY_FIRST / READY -> READY(+1)
// transition common to ActivateTask and alarm expiry. Returns E_OS_LIMIT
// if the task is already at its activation ceiling.
func (k *Kernel) activate(t TaskID) Status {
	tc := &k.tasks[t]
	cfg := &k.cfg.Tasks[t]
	if tc.Activation >= cfg.MaxActivations {
		return EOsLimit
	}
	tc.Activation++
	if tc.State == StateSuspended {
		tc.State = StateReadyFirst
		k.pushTail(cfg.BasePriority, t)
		taskLog.Debugf("%s -> READY_FIRST", cfg.Name)
	}
	// Else: task already READY/READY_FIRST/RUNNING, activation count alone
	// advances (extended-multiple profile); queue membership is unchanged.
	return EOk
}

// terminate performs the RUNNING -> SUSPENDED transition, re-activating
// immediately (SUSPENDED -> READY_FIRST) if a queued activation remains.
func (k *Kernel) terminate(t TaskID) {
	k.leaveRunning(t)
	tc := &k.tasks[t]
	tc.Activation--
	tc.EffectivePriority = k.cfg.Tasks[t].BasePriority
	if tc.Activation > 0 {
		tc.State = StateReadyFirst
		k.pushTail(k.cfg.Tasks[t].BasePriority, t)
		taskLog.Debugf("%s -> READY_FIRST (re-activated, pending=%d)", k.taskName(t), tc.Activation)
	} else {
		tc.State = StateSuspended
		taskLog.Debugf("%s -> SUSPENDED", k.taskName(t))
	}
	k.running = NoTask
}
