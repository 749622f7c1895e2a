// Status codes, service identification and the last-error / error-hook
// plumbing.

package osek_internal

import (
	"fmt"
	"runtime"
)

// Status is a wire-stable kernel status code.
type Status int

const (
	EOk                  Status = 0
	EOsAccess            Status = 1
	EOsCallLevel         Status = 2
	EOsID                Status = 3
	EOsLimit             Status = 4
	EOsNoFunc            Status = 5
	EOsResource          Status = 6
	EOsState             Status = 7
	EOsValue             Status = 8
	EOsSysNotImplemented Status = 16
)

var statusNames = map[Status]string{
	EOk:                  "E_OK",
	EOsAccess:            "E_OS_ACCESS",
	EOsCallLevel:         "E_OS_CALLEVEL",
	EOsID:                "E_OS_ID",
	EOsLimit:             "E_OS_LIMIT",
	EOsNoFunc:            "E_OS_NOFUNC",
	EOsResource:          "E_OS_RESOURCE",
	EOsState:             "E_OS_STATE",
	EOsValue:             "E_OS_VALUE",
	EOsSysNotImplemented: "E_OS_SYS_NOT_IMPLEMENTED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("E_OS_UNKNOWN(%d)", int(s))
}

// Error satisfies the error interface so that a Status can be returned and
// compared (e.g. via errors.Is) wherever idiomatic Go code expects one, while
// callers who only want the wire-stable integer can keep using the Status
// value directly: non-E_OK services in this package return Status, not error.
func (s Status) Error() string { return s.String() }

// ServiceID identifies the public service that produced an ErrorInfo
// record.
type ServiceID int

const (
	ServiceInit ServiceID = iota
	ServiceStart
	ServiceShutdown
	ServiceActivateTask
	ServiceTerminateTask
	ServiceChainTask
	ServiceSchedule
	ServiceGetTaskID
	ServiceGetResource
	ServiceReleaseResource
	ServiceSetRelAlarm
	ServiceSetAbsAlarm
	ServiceCancelAlarm
	ServiceGetAlarm
	ServiceIncrementCounter
)

var serviceNames = map[ServiceID]string{
	ServiceInit:             "Init",
	ServiceStart:            "Start",
	ServiceShutdown:         "Shutdown",
	ServiceActivateTask:     "ActivateTask",
	ServiceTerminateTask:    "TerminateTask",
	ServiceChainTask:        "ChainTask",
	ServiceSchedule:         "Schedule",
	ServiceGetTaskID:        "GetTaskId",
	ServiceGetResource:      "GetResource",
	ServiceReleaseResource:  "ReleaseResource",
	ServiceSetRelAlarm:      "SetRelAlarm",
	ServiceSetAbsAlarm:      "SetAbsAlarm",
	ServiceCancelAlarm:      "CancelAlarm",
	ServiceGetAlarm:         "GetAlarm",
	ServiceIncrementCounter: "IncrementCounter",
}

func (s ServiceID) String() string {
	if name, ok := serviceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Service(%d)", int(s))
}

// ErrorInfo is the process-wide "last error" record populated by every
// failed check. Params is service-specific: e.g. for GetResource it is
// [resource id, 0, 0]; for SetRelAlarm it is [alarm id, increment, cycle].
type ErrorInfo struct {
	Service ServiceID
	Status  Status
	File    string
	Line    int
	Params  [3]uint32
}

// ErrorHook is invoked, if installed, for every failed check. Returning
// from the hook means "continue": it can never abort or alter the
// service's outcome.
type ErrorHook func(info *ErrorInfo)

// checkError populates the kernel's last-error record and invokes the error
// hook whenever status != E_OK, then returns status unchanged so call sites
// can write `return k.checkError(...)`. It never unwinds the kernel: a
// failed check aborts only the service that performed it.
//
// Every call site runs with k.mu already held by the enclosing dispatch,
// Init or Start call, so this does not (and must not) take the lock itself.
func (k *Kernel) checkError(service ServiceID, status Status, params ...uint32) Status {
	if status == EOk {
		return status
	}
	info := &ErrorInfo{Service: service, Status: status}
	copy(info.Params[:], params)
	if _, file, line, ok := runtime.Caller(1); ok {
		info.File, info.Line = file, line
	}
	k.lastError = info
	hook := k.errorHook
	errorLog.WithFields(logFields{
		"service": service,
		"status":  status,
	}).Debugf("%s -> %s at %s:%d", service, status, info.File, info.Line)
	if hook != nil {
		hook(info)
	}
	return status
}

// LastError returns a copy of the last populated error record, or nil if
// none has occurred since Init.
func (k *Kernel) LastError() *ErrorInfo {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.lastError == nil {
		return nil
	}
	cp := *k.lastError
	return &cp
}

// logFields is a tiny alias so call sites read like a plain
// logrus.Fields{...} without importing logrus in every file that only logs
// errors.
type logFields = map[string]any
