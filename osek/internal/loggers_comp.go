package osek_internal

// Component loggers, one per kernel subsystem.
var (
	kernelLog    = NewCompLogger("kernel")
	schedulerLog = NewCompLogger("scheduler")
	taskLog      = NewCompLogger("task")
	resourceLog  = NewCompLogger("resource")
	alarmLog     = NewCompLogger("alarm")
	syscallLog   = NewCompLogger("syscall")
	isrLog       = NewCompLogger("isr")
	errorLog     = NewCompLogger("error")
	portLog      = NewCompLogger("port")
)
