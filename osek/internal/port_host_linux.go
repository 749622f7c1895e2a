//go:build linux

package osek_internal

import (
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// logHostAffinity logs the CPU affinity mask the process was scheduled
// under at startup: relevant context for reading a trace from a host
// that pins this process to fewer cores than runtime.NumCPU() reports.
func logHostAffinity() {
	cpuSet := unix.CPUSet{}
	if err := unix.SchedGetaffinity(os.Getpid(), &cpuSet); err != nil {
		portLog.Debugf("unix.SchedGetaffinity: %v", err)
		return
	}
	count := 0
	for _, mask := range cpuSet {
		for mask != 0 {
			count++
			mask &= mask - 1
		}
	}
	portLog.Infof("host CPU affinity: %d core(s) (of %d reported by the runtime)", count, runtime.NumCPU())
}
