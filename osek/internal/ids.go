// Identifier types for the statically-sized kernel objects.
//
// Tasks, resources, alarms and counters are all small unsigned integers
// drawn from a closed range [0, N). The sentinel "none" value for each is
// the maximum representable value of the type, so it can never collide with
// a valid, compile-time-declared object id.

package osek_internal

// TaskID identifies one of the statically configured tasks.
type TaskID uint16

// NoTask is the "not a task" sentinel.
const NoTask TaskID = ^TaskID(0)

// ResourceID identifies one of the statically configured resources.
type ResourceID uint16

// NoResource is the "not a resource" sentinel.
const NoResource ResourceID = ^ResourceID(0)

// ResourceScheduler is the reserved id of the scheduler-lock resource: its
// ceiling is always PrioCount, so holding it blocks all task preemption.
const ResourceScheduler ResourceID = 0

// AlarmID identifies one of the statically configured alarms.
type AlarmID uint16

// NoAlarm is the "not an alarm" sentinel.
const NoAlarm AlarmID = ^AlarmID(0)

// CounterID identifies one of the statically configured counters.
type CounterID uint16

// NoCounter is the "not a counter" sentinel.
const NoCounter CounterID = ^CounterID(0)

// Priority is a task or resource-ceiling priority; higher value means
// higher priority. PrioCount (the kernel's configured number of priority
// levels) is itself a valid ceiling value, reserved for the scheduler-lock
// resource ("blocks all tasks").
type Priority uint8

// Tick is the native width of a counter's tick count.
type Tick uint64
