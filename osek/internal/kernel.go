// Kernel ties the task, resource, alarm and scheduler state together behind
// one mutex and exposes the lifecycle operations (Init/Start/Shutdown) plus
// the hook installation points. The mutex is the host-side stand-in for
// hardware interrupt masking: every kernel state mutation happens under it.

package osek_internal

import (
	"fmt"
	"sync"

	"github.com/huandu/go-clone"
)

// Config is the complete, static, fixed-configuration description of one
// kernel instance: every task, resource, counter and alarm it will ever
// have, laid out by id in [0, len). PrioCount is the number of distinct
// task priority levels; PrioCount itself is the reserved blocks-everything
// ceiling of the scheduler-lock resource.
type Config struct {
	PrioCount Priority
	Tasks     []TaskConfig
	Resources []ResourceConfig
	Counters  []CounterConfig
	Alarms    []AlarmConfig
}

// PreTaskHook runs immediately after a task is dispatched into RUNNING, with
// the kernel's internal lock held.
type PreTaskHook func(t TaskID)

// PostTaskHook runs on every transition out of RUNNING, including
// preemption, with the kernel's internal lock held.
type PostTaskHook func(t TaskID)

// Kernel is one instance of the static-configuration real-time task kernel.
// The zero value is not usable; construct with NewKernel.
type Kernel struct {
	mu sync.Mutex

	cfg *Config

	tasks     []TaskControl
	resources []ResourceControl
	counters  []CounterControl
	alarms    []AlarmControl
	ready     []readyQueue

	running TaskID

	lastError *ErrorInfo
	errorHook ErrorHook

	preTaskHook  PreTaskHook
	postTaskHook PostTaskHook

	port Port

	started bool
}

// NewKernel allocates a Kernel; call Init before Start.
func NewKernel() *Kernel {
	return &Kernel{running: NoTask}
}

// SetErrorHook installs (or clears, with nil) the process-wide error hook.
func (k *Kernel) SetErrorHook(h ErrorHook) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.errorHook = h
}

// SetTaskHooks installs (or clears, with nil) the pre/post task hooks.
func (k *Kernel) SetTaskHooks(pre PreTaskHook, post PostTaskHook) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.preTaskHook, k.postTaskHook = pre, post
}

// SetPort installs the execution port responsible for actually running task
// entry points. Must be called before Start.
func (k *Kernel) SetPort(p Port) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.port = p
}

// Init validates cfg, deep-clones it so the caller's copy can be discarded
// or mutated afterwards, and allocates every control block at its SUSPENDED
// / empty initial state. It does not start any task: that is Start's job.
func (k *Kernel) Init(cfg *Config) Status {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.cfg != nil {
		return k.checkError(ServiceInit, EOsState)
	}
	if status := validateConfig(cfg); status != EOk {
		return k.checkError(ServiceInit, status)
	}

	// Defensive deep copy: later caller-side mutation of the original
	// struct can never reach into live kernel state.
	k.cfg = clone.Clone(cfg).(*Config)

	k.tasks = make([]TaskControl, len(k.cfg.Tasks))
	for t := range k.tasks {
		k.tasks[t] = TaskControl{
			State:             StateSuspended,
			Next:              NoTask,
			ResTop:            NoResource,
			EffectivePriority: k.cfg.Tasks[t].BasePriority,
		}
	}

	k.resources = make([]ResourceControl, len(k.cfg.Resources))
	for r := range k.resources {
		k.resources[r] = ResourceControl{Next: NoResource, Holder: NoTask}
	}

	k.counters = make([]CounterControl, len(k.cfg.Counters))
	k.alarms = make([]AlarmControl, len(k.cfg.Alarms))

	k.ready = make([]readyQueue, k.cfg.PrioCount)
	for p := range k.ready {
		k.ready[p] = readyQueue{head: NoTask, tail: NoTask}
	}

	// Autostart tasks are queued right away; none of them runs until Start
	// performs the first scheduling decision.
	for t, tc := range k.cfg.Tasks {
		if tc.Autostart {
			k.activate(TaskID(t))
		}
	}

	kernelLog.Infof("initialized: %d tasks, %d resources, %d counters, %d alarms, %d priority levels",
		len(k.cfg.Tasks), len(k.cfg.Resources), len(k.cfg.Counters), len(k.cfg.Alarms), k.cfg.PrioCount)
	k.logHostDiagnostics()
	return EOk
}

// validateConfig checks the static invariants a well-formed Config must
// satisfy: every cross-reference resolves, every task priority is below
// PrioCount, and the scheduler-lock resource (id 0) has ceiling ==
// PrioCount.
func validateConfig(cfg *Config) Status {
	if cfg == nil {
		return EOsValue
	}
	for _, t := range cfg.Tasks {
		if t.BasePriority >= cfg.PrioCount {
			return EOsValue
		}
		if t.MaxActivations == 0 {
			return EOsValue
		}
		if r := t.InternalResource; r != NoResource && int(r) >= len(cfg.Resources) {
			return EOsID
		}
	}
	if len(cfg.Resources) == 0 || cfg.Resources[ResourceScheduler].Ceiling != cfg.PrioCount {
		return EOsValue
	}
	for _, r := range cfg.Resources {
		if r.Ceiling > cfg.PrioCount {
			return EOsValue
		}
	}
	for _, a := range cfg.Alarms {
		if int(a.Counter) >= len(cfg.Counters) {
			return EOsID
		}
		if int(a.Task) >= len(cfg.Tasks) {
			return EOsID
		}
	}
	return EOk
}

// Start performs the first scheduling decision, entering the highest
// priority autostart task (if any), then idles in the port's Wait until
// Shutdown is called; on success it does not return before that. Call it
// from its own goroutine if the caller also needs to drive TimerTick
// concurrently.
func (k *Kernel) Start() Status {
	k.mu.Lock()

	if k.cfg == nil {
		defer k.mu.Unlock()
		return k.checkError(ServiceStart, EOsState)
	}
	if k.started {
		defer k.mu.Unlock()
		return k.checkError(ServiceStart, EOsState)
	}
	k.started = true

	k.schedule()
	port := k.port
	kernelLog.Info("started")
	k.mu.Unlock()

	if port != nil {
		port.Wait()
	}
	return EOk
}

// Shutdown halts the kernel for good: it stops every task the port is
// running and unblocks Start's idle Wait. Meant to be the last thing the
// host harness calls; nothing restarts afterwards.
func (k *Kernel) Shutdown() {
	k.mu.Lock()
	running := k.running
	k.running = NoTask
	k.started = false
	port := k.port
	k.mu.Unlock()

	kernelLog.Infof("shutdown (was running: %s)", k.taskName(running))
	if port != nil {
		port.Shutdown()
	}
}

// RunningTask returns whichever task is currently RUNNING, or NoTask.
func (k *Kernel) RunningTask() TaskID {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.running
}

// TaskState reports t's current state, for diagnostics/tests.
func (k *Kernel) TaskState(t TaskID) (TaskState, Status) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.validTask(t) {
		return StateSuspended, k.checkError(ServiceGetTaskID, EOsID, uint32(t))
	}
	return k.tasks[t].State, EOk
}

func (k *Kernel) String() string {
	return fmt.Sprintf("Kernel{tasks=%d running=%s}", len(k.tasks), k.taskName(k.running))
}
