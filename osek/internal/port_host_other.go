//go:build !unix

package osek_internal

import "time"

// GetOsBootTime falls back to "now" on non-unix hosts, where /proc uptime
// isn't available.
func GetOsBootTime() (time.Time, error) { return time.Now(), nil }

// GetSysClktck falls back to unknown (0 disables the diagnostic log line)
// on non-unix hosts.
func GetSysClktck() (int64, error) { return 0, nil }

// logHostAffinity is a no-op outside Linux, where CPU affinity isn't a
// distinct concept from GOMAXPROCS.
func logHostAffinity() {}
