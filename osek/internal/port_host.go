// Host diagnostics logged once at Init time: not part of the kernel's
// scheduling semantics, but useful context when reading a trace from a
// long-lived host run.
package osek_internal

import (
	"time"

	"github.com/docker/go-units"
)

var (
	bootTime  = time.Now()
	clktck    int64
	clktckSec float64
)

func init() {
	if bt, err := GetOsBootTime(); err != nil {
		portLog.Debugf("GetOsBootTime(): %v", err)
	} else {
		bootTime = bt
	}
	if ck, err := GetSysClktck(); err != nil {
		portLog.Debugf("GetSysClktck(): %v", err)
	} else {
		clktck = ck
		clktckSec = 1 / float64(clktck)
	}
}

// describeStackSize renders a task's configured stack size the way the host
// would show it in a log line, e.g. "8KiB" or "port default" for 0. Ports
// that actually allocate per-task stacks (unlike GoroutinePort, which defers
// that decision entirely to the Go runtime) can reuse this for consistent
// diagnostics.
func describeStackSize(bytes uint32) string {
	if bytes == 0 {
		return "port default"
	}
	return units.BytesSize(float64(bytes))
}

// logHostDiagnostics writes one diagnostic line per task describing its
// configured stack size, plus the detected host tick rate and boot time.
func (k *Kernel) logHostDiagnostics() {
	if clktck > 0 {
		portLog.Infof("host clock tick rate: %d Hz (%.6fs/tick)", clktck, clktckSec)
	}
	portLog.Infof("host boot time: %s (up %s)", bootTime.Format(time.RFC3339), time.Since(bootTime).Round(time.Second))
	for _, t := range k.cfg.Tasks {
		portLog.Debugf("task %s: configured stack size %s", t.Name, describeStackSize(t.StackSize))
	}
	logHostAffinity()
}
