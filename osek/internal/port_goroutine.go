// GoroutinePort: the reference Port implementation, one goroutine per
// dispatch *chain*. A basic task runs to completion (or to an explicit
// TerminateTask/ChainTask) every time it is freshly dispatched, restarting
// its entry function from the top on each activation, so "one goroutine
// per fresh dispatch" rather than "one long-lived goroutine per task id"
// is the natural mapping. A *resumed* dispatch (a previously preempted
// task regaining the CPU) reuses that same goroutine instead of starting
// another: it is parked on a per-task channel and Dispatch wakes it in
// place, which is what keeps two tasks from ever genuinely running
// concurrently.
//
// runtime.Goexit is how StopSelf makes TerminateTask/ChainTask not return
// without unwinding the rest of the kernel: it only unwinds the calling
// goroutine's own stack, running its deferred calls.

package osek_internal

import (
	"context"
	"runtime"
	"sync"
)

// GoroutinePort is the reference Port implementation: suitable for tests,
// simulation, and any host where a real-time guarantee isn't required.
type GoroutinePort struct {
	k *Kernel

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// resume[t] is signalled by Dispatch(t, false) to wake t's goroutine,
	// parked in Park(t), exactly once per preemption/resume pair.
	resume []chan struct{}
}

// NewGoroutinePort constructs a Port bound to k. Call k.SetPort before
// k.Start; k.Init must already have run so the task count is known.
func NewGoroutinePort(k *Kernel) *GoroutinePort {
	ctx, cancel := context.WithCancel(context.Background())
	resume := make([]chan struct{}, len(k.cfg.Tasks))
	for i := range resume {
		// Buffered by 1: Dispatch(t, false) runs inside the kernel's
		// locked scheduling path and must never block waiting for t's
		// goroutine to reach Park — the signal just waits in the
		// channel until it does.
		resume[i] = make(chan struct{}, 1)
	}
	return &GoroutinePort{k: k, ctx: ctx, cancel: cancel, resume: resume}
}

// Dispatch either spawns a fresh goroutine to run t's entry point from the
// top (fresh == true, a READY_FIRST dispatch) or wakes t's goroutine parked
// in Park (fresh == false, a READY resume after preemption).
func (p *GoroutinePort) Dispatch(t TaskID, fresh bool) {
	select {
	case <-p.ctx.Done():
		return
	default:
	}
	if !fresh {
		portLog.Debugf("%s: resuming parked goroutine", p.k.taskName(t))
		p.resume[t] <- struct{}{}
		return
	}
	p.wg.Add(1)
	go p.runTask(t)
}

// Park blocks the calling goroutine until Dispatch(t, false) wakes it, or
// the port is shutting down.
func (p *GoroutinePort) Park(t TaskID) {
	portLog.Debugf("%s: parking (preempted)", p.k.taskName(t))
	select {
	case <-p.resume[t]:
		portLog.Debugf("%s: resumed", p.k.taskName(t))
	case <-p.ctx.Done():
	}
}

func (p *GoroutinePort) runTask(t TaskID) {
	defer p.wg.Done()
	entry := p.k.cfg.Tasks[t].Entry
	portLog.Debugf("%s: entry starting", p.k.taskName(t))
	if entry != nil {
		entry()
	}
	portLog.Debugf("%s: entry returned", p.k.taskName(t))
	// Falling off the end of Entry without an explicit TerminateTask or
	// ChainTask terminates the task all the same.
	p.k.TerminateTask()
}

// StopSelf abandons the remainder of the calling goroutine's entry point:
// called by TerminateTask/ChainTask after they've already performed the
// kernel-side state transition and rescheduled, so nothing past this call
// in the task's own code ever executes.
func (p *GoroutinePort) StopSelf() {
	runtime.Goexit()
}

// Wait blocks the caller (Kernel.Start) until Shutdown cancels p.ctx.
// There is no real low-power mode to enter on a host CPU; parking on the
// context's done channel stands in for it without burning a core.
func (p *GoroutinePort) Wait() {
	<-p.ctx.Done()
}

// Shutdown cancels any future Dispatch/Park calls and waits for every
// in-flight entry goroutine to finish (or be abandoned via StopSelf).
func (p *GoroutinePort) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
