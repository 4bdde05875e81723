package matbench

import (
	"errors"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource hands out fakeCounterSets and can fail at any step
type fakeSource struct {
	openErr  error
	startErr error
	stopErr  error
	values   CounterValues
	opened   []*fakeCounterSet
	events   [2]EventSpec
}

type fakeCounterSet struct {
	src     *fakeSource
	started int
	stopped int
	closed  int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Open(events [2]EventSpec) (CounterSet, error) {
	if f.openErr != nil {
		return nil, NewCounterError("Open", "fake open", f.openErr)
	}
	f.events = events
	set := &fakeCounterSet{src: f}
	f.opened = append(f.opened, set)
	return set, nil
}

func (s *fakeCounterSet) Start() error {
	s.started++
	return s.src.startErr
}

func (s *fakeCounterSet) Stop() (CounterValues, error) {
	s.stopped++
	if s.src.stopErr != nil {
		return CounterValues{}, s.src.stopErr
	}
	return s.src.values, nil
}

func (s *fakeCounterSet) Close() error {
	s.closed++
	return nil
}

func TestPerfMonitorCounts(t *testing.T) {
	src := &fakeSource{values: CounterValues{L1DataMisses: 123, L2DataMisses: 45}}
	pm := NewPerfMonitor(src, zerolog.Nop())
	pm.Open(DefaultEvents())
	require.True(t, pm.Available())
	assert.Equal(t, DefaultEvents(), src.events)

	ran := false
	m := pm.Measure(func() { ran = true })
	assert.True(t, ran)
	require.NotNil(t, m.Counters)
	assert.Equal(t, src.values, *m.Counters)
	assert.GreaterOrEqual(t, m.Elapsed.Nanoseconds(), int64(0))

	pm.Close()
	pm.Close()
	require.Len(t, src.opened, 1)
	assert.Equal(t, 1, src.opened[0].started)
	assert.Equal(t, 1, src.opened[0].stopped)
	assert.Equal(t, 1, src.opened[0].closed)
}

func TestPerfMonitorDegrades(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
	}{
		{"open fails", &fakeSource{openErr: errors.New("EACCES")}},
		{"start fails", &fakeSource{startErr: errors.New("EBADF")}},
		{"stop fails", &fakeSource{stopErr: errors.New("EIO")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := NewPerfMonitor(tt.src, zerolog.Nop())
			pm.Open(DefaultEvents())
			defer pm.Close()

			ran := false
			m := pm.Measure(func() { ran = true })
			assert.True(t, ran, "timing must still run")
			assert.Nil(t, m.Counters)
			assert.Error(t, pm.Err())
			assert.False(t, pm.Available())
			for _, set := range tt.src.opened {
				assert.Equal(t, 1, set.closed, "counter set released")
			}
		})
	}
}

func TestPerfMonitorUnavailableSource(t *testing.T) {
	pm := NewPerfMonitor(Unavailable(ErrCountersUnsupported), zerolog.Nop())
	pm.Open(DefaultEvents())
	assert.False(t, pm.Available())
	assert.True(t, IsCounterError(pm.Err()))
	assert.ErrorIs(t, pm.Err(), ErrCountersUnsupported)

	m := pm.Measure(func() {})
	assert.Nil(t, m.Counters)
}

func TestPerfMonitorNilSource(t *testing.T) {
	pm := NewPerfMonitor(nil, zerolog.Nop())
	pm.Open(DefaultEvents())
	assert.False(t, pm.Available())
	assert.Nil(t, pm.Measure(func() {}).Counters)
}

// TestPerfMonitorClosesOnPanic checks teardown when the measured region panics
func TestPerfMonitorClosesOnPanic(t *testing.T) {
	src := &fakeSource{}

	func() {
		defer func() {
			assert.Equal(t, "kernel exploded", recover())
		}()
		pm := NewPerfMonitor(src, zerolog.Nop())
		defer pm.Close()
		pm.Open(DefaultEvents())
		pm.Measure(func() { panic("kernel exploded") })
	}()

	require.Len(t, src.opened, 1)
	assert.Equal(t, 1, src.opened[0].closed)
	assert.Equal(t, 0, src.opened[0].stopped)
}

func TestCounterValuesString(t *testing.T) {
	cv := CounterValues{L1DataMisses: 10, L2DataMisses: 2}
	assert.Equal(t, "L1 DCM: 10\nL2 DCM: 2\n", cv.String())
}

// TestHardwareCounters exercises the platform source when the host allows it
func TestHardwareCounters(t *testing.T) {
	src := HardwareCounters()
	set, err := src.Open(DefaultEvents())
	if runtime.GOOS != "linux" {
		assert.True(t, IsCounterError(err))
		assert.ErrorIs(t, err, ErrCountersUnsupported)
		return
	}
	if err != nil {
		t.Skipf("Performance counters not available: %v", err)
	}
	defer set.Close()

	require.NoError(t, set.Start())
	a, b, c := operandsOrFail(t, 128)
	require.NoError(t, MultiplyStandard(a, b, c))
	values, err := set.Stop()
	require.NoError(t, err)
	t.Logf("L1 DCM: %d, L2 DCM: %d", values.L1DataMisses, values.L2DataMisses)

	require.NoError(t, set.Close())
	_, err = set.Stop()
	assert.True(t, IsCounterError(err), "stop after close")
}

func TestParseEventSpec(t *testing.T) {
	ev, err := ParseEventSpec("L1_DCM", "l1d")
	require.NoError(t, err)
	assert.Equal(t, EventL1DataMisses, ev)

	ev, err = ParseEventSpec("L2_DCM", " LLC ")
	require.NoError(t, err)
	assert.Equal(t, EventL2DataMisses, ev)

	ev, err = ParseEventSpec("L2_DCM", "raw:0x3f24")
	require.NoError(t, err)
	assert.Equal(t, EventSpec{Name: "L2_DCM", Type: perfTypeRaw, Config: 0x3f24}, ev)

	ev, err = ParseEventSpec("X", "raw:42")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), ev.Config)

	for _, bad := range []string{"", "l3", "raw:", "raw:zz"} {
		_, err := ParseEventSpec("X", bad)
		assert.True(t, IsConfigError(err), "%q", bad)
	}
}

func TestEventConfigEncoding(t *testing.T) {
	// L1D | READ<<8 | MISS<<16
	assert.Equal(t, uint64(0x10000), EventL1DataMisses.Config)
	// LL | READ<<8 | MISS<<16
	assert.Equal(t, uint64(0x10002), EventL2DataMisses.Config)
}
