package matbench

import (
	"fmt"
	"strconv"
	"strings"
)

// Event types understood by the Linux perf ABI
const (
	perfTypeHWCache = 3
	perfTypeRaw     = 4
)

// Hardware cache event selectors
const (
	perfCacheL1D = 0
	perfCacheLL  = 2

	perfCacheOpRead     = 0
	perfCacheResultMiss = 1
)

// EventSpec names one hardware counter and how the platform encodes it.
type EventSpec struct {
	Name   string
	Type   uint32
	Config uint64
}

// cacheConfig packs a generic cache event: cache id, operation, result.
func cacheConfig(cache, op, result uint64) uint64 {
	return cache | op<<8 | result<<16
}

var (
	// EventL1DataMisses counts L1 data cache read misses
	EventL1DataMisses = EventSpec{
		Name:   "L1_DCM",
		Type:   perfTypeHWCache,
		Config: cacheConfig(perfCacheL1D, perfCacheOpRead, perfCacheResultMiss),
	}

	// EventL2DataMisses uses last-level read misses: the generic perf ABI
	// has no L2 selector, use a raw event for an exact L2 count.
	EventL2DataMisses = EventSpec{
		Name:   "L2_DCM",
		Type:   perfTypeHWCache,
		Config: cacheConfig(perfCacheLL, perfCacheOpRead, perfCacheResultMiss),
	}
)

// DefaultEvents is the event pair measured by default.
func DefaultEvents() [2]EventSpec {
	return [2]EventSpec{EventL1DataMisses, EventL2DataMisses}
}

// ParseEventSpec parses a counter selector. Accepted forms are "l1d",
// "llc" and "raw:<hex or decimal config>". The name defaults to label.
func ParseEventSpec(label, s string) (EventSpec, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "l1d":
		return EventSpec{Name: label, Type: perfTypeHWCache, Config: EventL1DataMisses.Config}, nil
	case s == "llc":
		return EventSpec{Name: label, Type: perfTypeHWCache, Config: EventL2DataMisses.Config}, nil
	case strings.HasPrefix(s, "raw:"):
		cfg, err := strconv.ParseUint(strings.TrimPrefix(s, "raw:"), 0, 64)
		if err != nil {
			return EventSpec{}, &BenchError{
				Type:    ErrTypeConfig,
				Op:      "ParseEventSpec",
				Message: fmt.Sprintf("bad raw event %q", s),
				Err:     err,
			}
		}
		return EventSpec{Name: label, Type: perfTypeRaw, Config: cfg}, nil
	}
	return EventSpec{}, NewConfigError("ParseEventSpec",
		fmt.Sprintf("unknown event %q (want l1d, llc or raw:<config>)", s))
}
