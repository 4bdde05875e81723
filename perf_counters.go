// Package matbench performance counter integration for cache-miss analysis
package matbench

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CounterValues holds the two cache-miss counts read around a region
type CounterValues struct {
	L1DataMisses uint64
	L2DataMisses uint64
}

// CounterSet is an opened pair of hardware counters
type CounterSet interface {
	// Start resets and enables the counters
	Start() error
	// Stop disables the counters and returns the counts since Start
	Stop() (CounterValues, error)
	// Close releases the counters; safe to call more than once
	Close() error
}

// CounterSource opens counter sets. Platforms without a counter facility
// use the Unavailable variant.
//
// Sets may count only the OS thread that opened them, so Open, Start, the
// measured work and Stop must run on one locked thread. PerfMonitor does
// that locking.
type CounterSource interface {
	Name() string
	Open(events [2]EventSpec) (CounterSet, error)
}

type unavailableSource struct {
	reason error
}

// Unavailable returns a source whose Open always fails with reason
func Unavailable(reason error) CounterSource {
	return unavailableSource{reason: reason}
}

func (u unavailableSource) Name() string { return "unavailable" }

func (u unavailableSource) Open([2]EventSpec) (CounterSet, error) {
	return nil, NewCounterError("Open", "counters unavailable", u.reason)
}

// Measurement is the outcome of one measured region
type Measurement struct {
	Elapsed  time.Duration
	Counters *CounterValues // nil when counters were unavailable
}

// PerfMonitor wraps a timed region with optional hardware counters.
// Counter failures never fail the measurement; they only drop the counts.
// While a counter set is open the calling goroutine is locked to its OS
// thread, so Open, Measure and Close must be called from one goroutine.
type PerfMonitor struct {
	source CounterSource
	log    zerolog.Logger
	set    CounterSet
	err    error
}

// NewPerfMonitor creates a monitor over source. A nil source means
// counters are disabled.
func NewPerfMonitor(source CounterSource, log zerolog.Logger) *PerfMonitor {
	if source == nil {
		source = Unavailable(fmt.Errorf("counters disabled"))
	}
	return &PerfMonitor{source: source, log: log}
}

// Open acquires a counter set for events. On failure the monitor degrades
// to timing only and the reason is kept in Err.
func (pm *PerfMonitor) Open(events [2]EventSpec) {
	pm.Close()
	runtime.LockOSThread()
	set, err := pm.source.Open(events)
	if err != nil {
		runtime.UnlockOSThread()
		pm.err = err
		pm.log.Warn().Err(err).Str("source", pm.source.Name()).
			Msg("hardware counters unavailable, reporting timing only")
		return
	}
	pm.set, pm.err = set, nil
	pm.log.Debug().Str("source", pm.source.Name()).
		Str("l1", events[0].Name).Str("l2", events[1].Name).
		Msg("hardware counters opened")
}

// Available reports whether a counter set is open
func (pm *PerfMonitor) Available() bool {
	return pm.set != nil
}

// Err returns why counters are unavailable, if they are
func (pm *PerfMonitor) Err() error {
	return pm.err
}

// Measure runs fn between counter start and stop and times it. The clock
// brackets fn alone. If fn panics the panic propagates after the caller's
// deferred Close.
func (pm *PerfMonitor) Measure(fn func()) Measurement {
	counting := false
	if pm.set != nil {
		if err := pm.set.Start(); err != nil {
			pm.degrade(err)
		} else {
			counting = true
		}
	}

	start := time.Now()
	fn()
	elapsed := time.Since(start)

	m := Measurement{Elapsed: elapsed}
	if counting {
		values, err := pm.set.Stop()
		if err != nil {
			pm.degrade(err)
		} else {
			m.Counters = &values
		}
	}
	return m
}

func (pm *PerfMonitor) degrade(err error) {
	pm.err = err
	pm.log.Warn().Err(err).Msg("hardware counter read failed, dropping counts")
	pm.Close()
}

// Close releases the counter set and the thread lock taken by Open; safe
// to call more than once
func (pm *PerfMonitor) Close() {
	if pm.set == nil {
		return
	}
	if err := pm.set.Close(); err != nil {
		pm.log.Debug().Err(err).Msg("closing hardware counters")
	}
	pm.set = nil
	runtime.UnlockOSThread()
}

// String formats the counter values for display
func (cv CounterValues) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("L1 DCM: %d\n", cv.L1DataMisses))
	sb.WriteString(fmt.Sprintf("L2 DCM: %d\n", cv.L2DataMisses))
	return sb.String()
}
