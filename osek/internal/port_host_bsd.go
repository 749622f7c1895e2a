//go:build unix && !linux

package osek_internal

// logHostAffinity is a no-op on non-Linux unix hosts (BSD/Darwin expose CPU
// affinity through different, less portable mechanisms not worth wiring for
// a diagnostic log line).
func logHostAffinity() {}
