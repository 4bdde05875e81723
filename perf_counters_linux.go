//go:build linux

// Package matbench Linux hardware counters via perf_event_open
package matbench

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// linuxSource opens counters for the calling thread on any CPU
type linuxSource struct{}

// HardwareCounters returns the platform counter source
func HardwareCounters() CounterSource {
	return linuxSource{}
}

func (linuxSource) Name() string { return "perf_event" }

// linuxCounterSet is one perf event group; fds[0] is the leader
type linuxCounterSet struct {
	fds    []int
	events [2]EventSpec
}

func (linuxSource) Open(events [2]EventSpec) (CounterSet, error) {
	set := &linuxCounterSet{events: events}
	leader := -1
	for i, ev := range events {
		attr := unix.PerfEventAttr{
			Type:   ev.Type,
			Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
			Config: ev.Config,
			Bits:   unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
		}
		if i == 0 {
			// Siblings follow the leader's enable state
			attr.Bits |= unix.PerfBitDisabled
		}

		fd, err := unix.PerfEventOpen(&attr, 0, -1, leader, unix.PERF_FLAG_FD_CLOEXEC)
		if err != nil {
			set.Close()
			return nil, NewCounterError("Open",
				fmt.Sprintf("perf_event_open %s (type %d, config %#x)", ev.Name, ev.Type, ev.Config), err)
		}
		if i == 0 {
			leader = fd
		}
		set.fds = append(set.fds, fd)
	}
	return set, nil
}

func (s *linuxCounterSet) ioctlGroup(req uint) error {
	if len(s.fds) == 0 {
		return NewCounterError("ioctl", "counter set closed", nil)
	}
	return unix.IoctlSetInt(s.fds[0], req, unix.PERF_IOC_FLAG_GROUP)
}

func (s *linuxCounterSet) Start() error {
	if err := s.ioctlGroup(unix.PERF_EVENT_IOC_RESET); err != nil {
		return NewCounterError("Start", "reset counters", err)
	}
	if err := s.ioctlGroup(unix.PERF_EVENT_IOC_ENABLE); err != nil {
		return NewCounterError("Start", "enable counters", err)
	}
	return nil
}

func (s *linuxCounterSet) Stop() (CounterValues, error) {
	if err := s.ioctlGroup(unix.PERF_EVENT_IOC_DISABLE); err != nil {
		return CounterValues{}, NewCounterError("Stop", "disable counters", err)
	}

	var counts [2]uint64
	buf := make([]byte, 8)
	for i, fd := range s.fds {
		n, err := unix.Read(fd, buf)
		if err != nil {
			return CounterValues{}, NewCounterError("Stop", "read "+s.events[i].Name, err)
		}
		if n != len(buf) {
			return CounterValues{}, NewCounterError("Stop",
				fmt.Sprintf("short read of %s: %d bytes", s.events[i].Name, n), nil)
		}
		counts[i] = binary.NativeEndian.Uint64(buf)
	}

	return CounterValues{L1DataMisses: counts[0], L2DataMisses: counts[1]}, nil
}

// Close closes siblings before the leader
func (s *linuxCounterSet) Close() error {
	var first error
	for i := len(s.fds) - 1; i >= 0; i-- {
		if err := unix.Close(s.fds[i]); err != nil && first == nil {
			first = err
		}
	}
	s.fds = nil
	return first
}
