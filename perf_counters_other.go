//go:build !linux

// Package matbench performance counter stub for non-Linux platforms
package matbench

// HardwareCounters returns an unavailable source on non-Linux platforms
func HardwareCounters() CounterSource {
	return Unavailable(ErrCountersUnsupported)
}
