// Package osek is the public face of the kernel for the users of this
// module: all real logic lives in osek/internal, this package only
// re-exports the types and functions applications are meant to touch.
package osek

import (
	"github.com/sirupsen/logrus"

	osek_internal "github.com/elupus/osek-go/osek/internal"
)

// Identifiers and sentinel "no such thing" values.
type (
	TaskID     = osek_internal.TaskID
	ResourceID = osek_internal.ResourceID
	AlarmID    = osek_internal.AlarmID
	CounterID  = osek_internal.CounterID
	Priority   = osek_internal.Priority
	Tick       = osek_internal.Tick
)

const (
	NoTask            = osek_internal.NoTask
	NoResource        = osek_internal.NoResource
	NoAlarm           = osek_internal.NoAlarm
	NoCounter         = osek_internal.NoCounter
	ResourceScheduler = osek_internal.ResourceScheduler
)

// Status codes.
type Status = osek_internal.Status

const (
	EOk                  = osek_internal.EOk
	EOsAccess            = osek_internal.EOsAccess
	EOsCallLevel         = osek_internal.EOsCallLevel
	EOsID                = osek_internal.EOsID
	EOsLimit             = osek_internal.EOsLimit
	EOsNoFunc            = osek_internal.EOsNoFunc
	EOsResource          = osek_internal.EOsResource
	EOsState             = osek_internal.EOsState
	EOsValue             = osek_internal.EOsValue
	EOsSysNotImplemented = osek_internal.EOsSysNotImplemented
)

// Static configuration types.
type (
	Config         = osek_internal.Config
	TaskConfig     = osek_internal.TaskConfig
	ResourceConfig = osek_internal.ResourceConfig
	CounterConfig  = osek_internal.CounterConfig
	AlarmConfig    = osek_internal.AlarmConfig
)

// Hook and diagnostics types.
type (
	ErrorHook    = osek_internal.ErrorHook
	ErrorInfo    = osek_internal.ErrorInfo
	ServiceID    = osek_internal.ServiceID
	PreTaskHook  = osek_internal.PreTaskHook
	PostTaskHook = osek_internal.PostTaskHook
	TaskState    = osek_internal.TaskState
)

const (
	StateSuspended  = osek_internal.StateSuspended
	StateReadyFirst = osek_internal.StateReadyFirst
	StateReady      = osek_internal.StateReady
	StateRunning    = osek_internal.StateRunning
)

// Port is the execution substrate a Kernel dispatches task entry points
// through.
type Port = osek_internal.Port

// Kernel is one instance of the static-configuration real-time task kernel.
type Kernel = osek_internal.Kernel

// NewKernel allocates a Kernel. Call Init, then SetPort, then Start.
func NewKernel() *Kernel { return osek_internal.NewKernel() }

// NewGoroutinePort builds the reference goroutine-per-dispatch Port bound
// to k.
func NewGoroutinePort(k *Kernel) *GoroutinePort { return osek_internal.NewGoroutinePort(k) }

// GoroutinePort is the reference Port implementation.
type GoroutinePort = osek_internal.GoroutinePort

// GetRootLogger returns the kernel's root logger, typed as `any`, the form
// osek/testutils.NewTestLogCollect accepts; needed only for tests that
// capture kernel logging (see
// osek/testutils/log_collector.go).
func GetRootLogger() any { return osek_internal.RootLogger }

// NewCompLogger creates a new component logger w/ comp=compName field, for
// host/port code that wants to log through the same pipeline as the kernel.
func NewCompLogger(comp string) *logrus.Entry { return osek_internal.NewCompLogger(comp) }

// SetLogger installs the root logging configuration: the ambient logging
// stack is independent of the kernel's own task/resource/alarm semantics.
func SetLogger(cfg *osek_internal.LoggerConfig) error { return osek_internal.SetLogger(cfg) }

// LoggerConfig configures the root logger (level, JSON vs text, file
// rotation via lumberjack).
type LoggerConfig = osek_internal.LoggerConfig

// DefaultLoggerConfig returns the default LoggerConfig.
func DefaultLoggerConfig() *LoggerConfig { return osek_internal.DefaultLoggerConfig() }
