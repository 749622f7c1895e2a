// Priority-ceiling resource manager: each task holds its acquired
// resources as an index-linked LIFO stack, and its effective priority
// tracks the highest ceiling it currently holds.

package osek_internal

// ResourceConfig is the static, read-only configuration of one resource.
type ResourceConfig struct {
	// Name, used only for logging/diagnostics.
	Name string
	// Ceiling priority: the highest base priority among all tasks that may
	// acquire this resource. Resource 0 (ResourceScheduler) always has
	// ceiling == PrioCount ("blocks all tasks").
	Ceiling Priority
}

// ResourceControl is the mutable control block for one resource.
type ResourceControl struct {
	// Next resource under this one in the holder's resource stack;
	// NoResource if this is the bottom of the stack.
	Next ResourceID
	// Current holder, for diagnostics only; NoTask if unheld.
	Holder TaskID
}

func (k *Kernel) resourceName(r ResourceID) string {
	if r == NoResource || int(r) >= len(k.cfg.Resources) {
		return "<none>"
	}
	return k.cfg.Resources[r].Name
}

func (k *Kernel) validResource(r ResourceID) bool {
	return r != NoResource && int(r) < len(k.cfg.Resources)
}

// getResource pushes r onto the caller's resource stack and raises its
// effective priority to r's ceiling.
func (k *Kernel) getResource(caller TaskID, r ResourceID) Status {
	if !k.validResource(r) {
		return k.checkError(ServiceGetResource, EOsID, uint32(r))
	}
	ceiling := k.cfg.Resources[r].Ceiling
	tc := &k.tasks[caller]
	if tc.EffectivePriority > ceiling {
		// Acquiring this resource would *lower* the caller's priority,
		// breaking the ceiling protocol invariant.
		return k.checkError(ServiceGetResource, EOsAccess, uint32(r))
	}
	rc := &k.resources[r]
	if rc.Holder != NoTask {
		return k.checkError(ServiceGetResource, EOsAccess, uint32(r))
	}
	rc.Holder = caller
	rc.Next = tc.ResTop
	tc.ResTop = r
	tc.EffectivePriority = ceiling
	resourceLog.Debugf("%s acquires %s (ceiling=%d)", k.taskName(caller), k.resourceName(r), ceiling)
	return EOk
}

// releaseResource pops r, which must be the top of the caller's resource
// stack (strict LIFO), and recomputes the caller's effective priority.
func (k *Kernel) releaseResource(caller TaskID, r ResourceID) Status {
	if !k.validResource(r) {
		return k.checkError(ServiceReleaseResource, EOsID, uint32(r))
	}
	tc := &k.tasks[caller]
	if tc.ResTop != r {
		return k.checkError(ServiceReleaseResource, EOsNoFunc, uint32(r))
	}
	rc := &k.resources[r]
	tc.ResTop = rc.Next
	rc.Next = NoResource
	rc.Holder = NoTask
	if tc.ResTop != NoResource {
		tc.EffectivePriority = k.cfg.Resources[tc.ResTop].Ceiling
	} else {
		tc.EffectivePriority = k.cfg.Tasks[caller].BasePriority
	}
	resourceLog.Debugf("%s releases %s (effective priority now %d)", k.taskName(caller), k.resourceName(r), tc.EffectivePriority)
	return EOk
}

// acquireInternal auto-acquires a task's declared internal resource on
// dispatch; internal resources are pre-validated by Init, so failures here
// would indicate a kernel bug, not a caller error, and are logged rather
// than surfaced as a Status.
func (k *Kernel) acquireInternal(t TaskID, r ResourceID) {
	if status := k.getResource(t, r); status != EOk {
		resourceLog.Errorf("internal resource %s of %s could not be acquired: %s", k.resourceName(r), k.taskName(t), status)
	}
}

// releaseInternal auto-releases a task's internal resource at the
// voluntary rescheduling services and at termination.
func (k *Kernel) releaseInternal(t TaskID, r ResourceID) {
	if status := k.releaseResource(t, r); status != EOk {
		resourceLog.Errorf("internal resource %s of %s could not be released: %s", k.resourceName(r), k.taskName(t), status)
	}
}
