// Port is the execution substrate a Kernel delegates actual task running
// to. The architecture port proper (register save/restore, hardware
// interrupt masking) lives behind this interface; the kernel never assumes
// anything about it beyond single-core execution.

package osek_internal

// Port is implemented by whatever drives task entry points: a
// goroutine-per-dispatch fiber (port_goroutine.go) is the only
// implementation shipped here, but the interface is deliberately narrow so
// an embedded port bound to real interrupt masking can satisfy it too.
type Port interface {
	// Dispatch is called by Schedule(), with the kernel's internal lock
	// held, whenever a task is about to become RUNNING. Implementations
	// must not block: the call happens inside the kernel's critical
	// section. fresh is true when the task is entering from READY_FIRST
	// (a brand new dispatch, the port prepares a fresh execution context
	// that enters the task's entry function) and false when it is
	// resuming from READY (a preempted task whose execution context the
	// port must resume exactly where it left off).
	Dispatch(t TaskID, fresh bool)

	// Park is called from within a task's own execution context, outside
	// any kernel lock, immediately after a syscall that left the calling
	// task no longer RUNNING (preempted). It must block the caller until a
	// later Dispatch(t, false) resumes it: only one task's code is ever
	// actually running at a time, no matter how many task goroutines
	// exist.
	Park(t TaskID)

	// StopSelf is called from within the calling task's own execution
	// context by TerminateTask/ChainTask, after the kernel-side state
	// transition has already happened, to abandon the remainder of the
	// task's entry point without returning control to it.
	StopSelf()

	// Wait is the low-power idle primitive, called by Start once outside
	// any kernel lock. It must block the caller until Shutdown is
	// invoked; this is what lets Start block forever without busy-looping
	// the calling goroutine.
	Wait()

	// Shutdown tears down whatever goroutines/threads/contexts the port is
	// managing, and unblocks any pending Wait. Called once, from
	// Kernel.Shutdown.
	Shutdown()
}
