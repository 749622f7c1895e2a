package osek_internal

import "testing"

// resourceTestKernel builds a kernel for exercising the ceiling protocol
// stack-wise: one task at priority 1 and two application resources with
// ceilings 1 and 2.
func resourceTestKernel(t *testing.T) *Kernel {
	t.Helper()
	cfg := &Config{
		PrioCount: 4,
		Tasks: []TaskConfig{
			{Name: "Worker", BasePriority: 1, MaxActivations: 1, InternalResource: NoResource},
		},
		Resources: []ResourceConfig{
			{Name: "Scheduler", Ceiling: 4},
			{Name: "R1", Ceiling: 1},
			{Name: "R2", Ceiling: 2},
		},
	}
	k := NewKernel()
	if status := k.Init(cfg); status != EOk {
		t.Fatalf("Init: %s", status)
	}
	k.SetPort(&stubPort{})
	if status := k.Start(); status != EOk {
		t.Fatalf("Start: %s", status)
	}
	if status := k.ActivateTask(0); status != EOk {
		t.Fatalf("ActivateTask(Worker): %s", status)
	}
	return k
}

const (
	resR1 ResourceID = 1
	resR2 ResourceID = 2
)

func TestResourceNestedLIFOOrder(t *testing.T) {
	k := resourceTestKernel(t)

	if status := k.GetResource(resR1); status != EOk {
		t.Fatalf("GetResource(R1): %s", status)
	}
	if status := k.GetResource(resR2); status != EOk {
		t.Fatalf("GetResource(R2): %s", status)
	}
	if got := k.tasks[0].EffectivePriority; got != 2 {
		t.Fatalf("effective priority with R2 held: want 2, got %d", got)
	}
	if status := k.ReleaseResource(resR2); status != EOk {
		t.Fatalf("ReleaseResource(R2): %s", status)
	}
	if got := k.tasks[0].EffectivePriority; got != 1 {
		t.Fatalf("effective priority back to R1's ceiling: want 1, got %d", got)
	}
	if status := k.ReleaseResource(resR1); status != EOk {
		t.Fatalf("ReleaseResource(R1): %s", status)
	}
	if got := k.tasks[0].EffectivePriority; got != 1 {
		t.Fatalf("effective priority back to base: want 1, got %d", got)
	}
}

func TestResourceCeilingOrderViolation(t *testing.T) {
	k := resourceTestKernel(t)

	if status := k.GetResource(resR2); status != EOk {
		t.Fatalf("GetResource(R2): %s", status)
	}
	// Effective priority is now R2's ceiling (2): acquiring R1 (ceiling 1)
	// would lower it, which the protocol forbids.
	if status := k.GetResource(resR1); status != EOsAccess {
		t.Fatalf("GetResource(R1) under R2: want %s, got %s", EOsAccess, status)
	}
	if status := k.ReleaseResource(resR1); status != EOsNoFunc {
		t.Fatalf("ReleaseResource(R1) not held: want %s, got %s", EOsNoFunc, status)
	}
	if status := k.ReleaseResource(resR2); status != EOk {
		t.Fatalf("ReleaseResource(R2): %s", status)
	}
}

func TestResourceDoubleGetRejected(t *testing.T) {
	k := resourceTestKernel(t)

	if status := k.GetResource(resR2); status != EOk {
		t.Fatalf("GetResource(R2): %s", status)
	}
	if status := k.GetResource(resR2); status != EOsAccess {
		t.Fatalf("GetResource(R2) again: want %s, got %s", EOsAccess, status)
	}
}

func TestResourceOutsideTaskContext(t *testing.T) {
	cfg := &Config{
		PrioCount: 2,
		Tasks:     []TaskConfig{{Name: "Idle", BasePriority: 0, MaxActivations: 1, InternalResource: NoResource}},
		Resources: []ResourceConfig{{Name: "Scheduler", Ceiling: 2}},
	}
	k := NewKernel()
	if status := k.Init(cfg); status != EOk {
		t.Fatalf("Init: %s", status)
	}
	if status := k.GetResource(ResourceScheduler); status != EOsCallLevel {
		t.Fatalf("GetResource with no task running: want %s, got %s", EOsCallLevel, status)
	}
}

// internalResTestKernel: Inner (prio 0) and Peer (prio 1) share a
// non-preemption group through Inner's internal resource (ceiling 1);
// Outsider (prio 2) sits above the group's ceiling.
func internalResTestKernel(t *testing.T) (*Kernel, *stubPort) {
	t.Helper()
	cfg := &Config{
		PrioCount: 4,
		Tasks: []TaskConfig{
			{Name: "Inner", BasePriority: 0, MaxActivations: 1, InternalResource: 1},
			{Name: "Peer", BasePriority: 1, MaxActivations: 1, InternalResource: NoResource},
			{Name: "Outsider", BasePriority: 2, MaxActivations: 1, InternalResource: NoResource},
		},
		Resources: []ResourceConfig{
			{Name: "Scheduler", Ceiling: 4},
			{Name: "Group", Ceiling: 1},
		},
	}
	k := NewKernel()
	if status := k.Init(cfg); status != EOk {
		t.Fatalf("Init: %s", status)
	}
	port := &stubPort{}
	k.SetPort(port)
	if status := k.Start(); status != EOk {
		t.Fatalf("Start: %s", status)
	}
	return k, port
}

func TestInternalResourceBlocksGroupPeer(t *testing.T) {
	k, _ := internalResTestKernel(t)

	if status := k.ActivateTask(0); status != EOk {
		t.Fatalf("ActivateTask(Inner): %s", status)
	}
	if held := k.resources[1].Holder; held != 0 {
		t.Fatalf("Group holder after dispatch: want Inner, got %d", held)
	}

	// Peer's base priority (1) is within the group ceiling: no preemption,
	// even across an unrelated service call.
	if status := k.ActivateTask(1); status != EOk {
		t.Fatalf("ActivateTask(Peer): %s", status)
	}
	if got := k.RunningTask(); got != 0 {
		t.Fatalf("RunningTask: want Inner (group ceiling held), got %s", k.taskName(got))
	}

	// Outsider (2) is above the ceiling and preempts; the internal resource
	// stays held across the preemption.
	if status := k.ActivateTask(2); status != EOk {
		t.Fatalf("ActivateTask(Outsider): %s", status)
	}
	if got := k.RunningTask(); got != 2 {
		t.Fatalf("RunningTask: want Outsider, got %s", k.taskName(got))
	}
	if held := k.resources[1].Holder; held != 0 {
		t.Fatalf("Group holder while Inner is preempted: want Inner, got %d", held)
	}

	// Outsider terminates: Inner resumes ahead of Peer, still inside its
	// group (pushed back at its effective, ceiling-raised priority).
	if status := k.TerminateTask(); status != EOk {
		t.Fatalf("TerminateTask(Outsider): %s", status)
	}
	if got := k.RunningTask(); got != 0 {
		t.Fatalf("RunningTask after Outsider: want Inner, got %s", k.taskName(got))
	}
}

func TestScheduleYieldsInternalResource(t *testing.T) {
	k, _ := internalResTestKernel(t)

	if status := k.ActivateTask(0); status != EOk {
		t.Fatalf("ActivateTask(Inner): %s", status)
	}
	if status := k.ActivateTask(1); status != EOk {
		t.Fatalf("ActivateTask(Peer): %s", status)
	}
	if got := k.RunningTask(); got != 0 {
		t.Fatalf("RunningTask: want Inner, got %s", k.taskName(got))
	}

	// Schedule drops the internal resource for the duration of the
	// reschedule: Peer, higher base priority, takes over.
	if status := k.Schedule(); status != EOk {
		t.Fatalf("Schedule: %s", status)
	}
	if got := k.RunningTask(); got != 1 {
		t.Fatalf("RunningTask after Schedule: want Peer, got %s", k.taskName(got))
	}

	// Peer terminates: Inner resumes and re-enters its group.
	if status := k.TerminateTask(); status != EOk {
		t.Fatalf("TerminateTask(Peer): %s", status)
	}
	if got := k.RunningTask(); got != 0 {
		t.Fatalf("RunningTask after Peer: want Inner, got %s", k.taskName(got))
	}
	if held := k.resources[1].Holder; held != 0 {
		t.Fatalf("Group holder after Inner resumed: want Inner, got %d", held)
	}
}

func TestTerminateReleasesInternalResource(t *testing.T) {
	k, _ := internalResTestKernel(t)

	if status := k.ActivateTask(0); status != EOk {
		t.Fatalf("ActivateTask(Inner): %s", status)
	}
	if status := k.TerminateTask(); status != EOk {
		t.Fatalf("TerminateTask(Inner): %s", status)
	}
	if held := k.resources[1].Holder; held != NoTask {
		t.Fatalf("Group holder after Inner terminated: want none, got %d", held)
	}
	state, _ := k.TaskState(0)
	if state != StateSuspended {
		t.Fatalf("Inner state: want %s, got %s", StateSuspended, state)
	}
}
