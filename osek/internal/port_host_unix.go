//go:build unix

package osek_internal

import (
	"fmt"
	"time"

	"github.com/mackerelio/go-osstat/uptime"
	"github.com/tklauser/go-sysconf"
)

// GetOsBootTime derives the host's boot time from the system uptime.
func GetOsBootTime() (time.Time, error) {
	up, err := uptime.Get()
	if err != nil {
		return time.Now(), fmt.Errorf("uptime.Get(): %v", err)
	}
	return time.Now().Add(-up), nil
}

// GetSysClktck returns the host's configured clock ticks per second, used
// only to make the system timer's interval meaningful in logs (the kernel
// itself is unit-agnostic about tick length).
func GetSysClktck() (int64, error) {
	return sysconf.Sysconf(sysconf.SC_CLK_TCK)
}
