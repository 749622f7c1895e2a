package osek_internal

import (
	"testing"
	"time"
)

// portEvents collects the observable execution order of real task entries
// running on a GoroutinePort. Only one task's code is logically running at
// a time, so the channel order *is* the scheduling order.
type portEvents struct {
	ch chan string
}

func newPortEvents() *portEvents { return &portEvents{ch: make(chan string, 16)} }

func (e *portEvents) record(event string) { e.ch <- event }

func (e *portEvents) next(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-e.ch:
		if got != want {
			t.Fatalf("event order: want %q, got %q", want, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for event %q", want)
	}
}

func waitStatus(t *testing.T, what string, ch <-chan Status) {
	t.Helper()
	select {
	case status := <-ch:
		if status != EOk {
			t.Fatalf("%s: %s", what, status)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// TestGoroutinePortPreemptResumeTerminate runs the basic preemption
// scenario on the real port: Low's ActivateTask spawns High's goroutine,
// parks Low's own goroutine mid-service, and only High's termination
// (StopSelf unwinding High's goroutine) wakes Low back up to finish the
// very same ActivateTask call.
func TestGoroutinePortPreemptResumeTerminate(t *testing.T) {
	events := newPortEvents()
	k := NewKernel()
	cfg := &Config{
		PrioCount: 2,
		Tasks: []TaskConfig{
			{
				Name: "Low", BasePriority: 0, Autostart: true,
				MaxActivations: 1, InternalResource: NoResource,
				Entry: func() {
					events.record("low:start")
					if status := k.ActivateTask(1); status != EOk {
						events.record("low:activate-failed")
						return
					}
					events.record("low:resumed")
				},
			},
			{
				Name: "High", BasePriority: 1,
				MaxActivations: 1, InternalResource: NoResource,
				Entry: func() {
					events.record("high:run")
				},
			},
		},
		Resources: []ResourceConfig{{Name: "Scheduler", Ceiling: 2}},
	}
	if status := k.Init(cfg); status != EOk {
		t.Fatalf("Init: %s", status)
	}
	k.SetPort(NewGoroutinePort(k))

	startDone := make(chan Status, 1)
	go func() { startDone <- k.Start() }()

	events.next(t, "low:start")
	events.next(t, "high:run")
	events.next(t, "low:resumed")

	k.Shutdown()
	waitStatus(t, "Start to return after Shutdown", startDone)
}

// TestGoroutinePortShutdownReleasesParkedTask parks Low for real (High is
// blocked inside its entry, so nothing ever resumes Low) and checks that
// Shutdown unblocks the parked goroutine instead of leaking it, even while
// another task goroutine is still running user code.
func TestGoroutinePortShutdownReleasesParkedTask(t *testing.T) {
	events := newPortEvents()
	gate := make(chan struct{})
	k := NewKernel()
	cfg := &Config{
		PrioCount: 2,
		Tasks: []TaskConfig{
			{
				Name: "Low", BasePriority: 0, Autostart: true,
				MaxActivations: 1, InternalResource: NoResource,
				Entry: func() {
					events.record("low:start")
					k.ActivateTask(1)
					events.record("low:unparked")
				},
			},
			{
				Name: "High", BasePriority: 1,
				MaxActivations: 1, InternalResource: NoResource,
				Entry: func() {
					events.record("high:run")
					<-gate
				},
			},
		},
		Resources: []ResourceConfig{{Name: "Scheduler", Ceiling: 2}},
	}
	if status := k.Init(cfg); status != EOk {
		t.Fatalf("Init: %s", status)
	}
	k.SetPort(NewGoroutinePort(k))

	startDone := make(chan Status, 1)
	go func() { startDone <- k.Start() }()

	events.next(t, "low:start")
	events.next(t, "high:run")

	// Low is parked inside its ActivateTask (or about to be; Park notices
	// the cancellation either way). Shutdown runs on its own goroutine
	// because it waits for every task goroutine, including High, which is
	// still blocked on the gate.
	shutdownDone := make(chan struct{})
	go func() { k.Shutdown(); close(shutdownDone) }()

	events.next(t, "low:unparked")
	close(gate)

	select {
	case <-shutdownDone:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for Shutdown to finish")
	}
	waitStatus(t, "Start to return after Shutdown", startDone)
}

// TestGoroutinePortDrainsQueuedActivations checks the fresh-dispatch chain
// on the real port: each termination consumes one queued activation and
// spawns the entry function again from the top.
func TestGoroutinePortDrainsQueuedActivations(t *testing.T) {
	events := newPortEvents()
	k := NewKernel()
	cfg := &Config{
		PrioCount: 2,
		Tasks: []TaskConfig{
			{
				Name: "Worker", BasePriority: 0,
				MaxActivations: 3, InternalResource: NoResource,
				Entry: func() {
					events.record("worker:run")
				},
			},
		},
		Resources: []ResourceConfig{{Name: "Scheduler", Ceiling: 2}},
	}
	if status := k.Init(cfg); status != EOk {
		t.Fatalf("Init: %s", status)
	}
	k.SetPort(NewGoroutinePort(k))

	startDone := make(chan Status, 1)
	go func() { startDone <- k.Start() }()

	for i := 0; i < 3; i++ {
		if status := k.ActivateTask(0); status != EOk {
			t.Fatalf("ActivateTask #%d: %s", i+1, status)
		}
	}
	for i := 0; i < 3; i++ {
		events.next(t, "worker:run")
	}

	k.Shutdown()
	waitStatus(t, "Start to return after Shutdown", startDone)
}
