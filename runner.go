package matbench

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Config selects one benchmark run
type Config struct {
	Size      int
	Operation Operation
	BlockSize int // 0 means DefaultBlockSize; only used by OpBlock
	Counters  bool
	Events    [2]EventSpec // zero value means DefaultEvents
	Verify    bool
	ColdCache bool // evict caches before the kernel, outside the timed region
}

// Validate checks the configuration and fills defaults
func (c *Config) Validate() error {
	if c.Size < 0 {
		return NewConfigError("Config", fmt.Sprintf("matrix size must not be negative, got %d", c.Size))
	}
	if _, err := ParseOperation(int(c.Operation)); err != nil {
		return err
	}
	if c.BlockSize == 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.BlockSize < 0 {
		return NewConfigError("Config", fmt.Sprintf("block size must be positive, got %d", c.BlockSize))
	}
	if c.Events == ([2]EventSpec{}) {
		c.Events = DefaultEvents()
	}
	return nil
}

// State is a BenchmarkRunner lifecycle stage
type State int

const (
	StateIdle State = iota
	StateConfigured
	StateInitialized
	StateRunning
	StateReported
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfigured:
		return "configured"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateReported:
		return "reported"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is the outcome of one run
type Result struct {
	Config       Config
	Elapsed      time.Duration
	Counters     *CounterValues // nil when counters were off or unavailable
	C            *Matrix
	Verification *VerificationResult // set when Config.Verify
}

// Runner orchestrates configure, initialize, run and report
type Runner struct {
	source  CounterSource
	log     zerolog.Logger
	out     io.Writer
	session *SessionLog
	host    HostInfo
	state   State
	onState func(State)
}

// Option configures a Runner
type Option func(*Runner)

// WithCounterSource overrides the hardware counter source
func WithCounterSource(src CounterSource) Option {
	return func(r *Runner) { r.source = src }
}

// WithLogger sets the diagnostic logger
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithOutput sets where the console report is written
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithSessionLog records every run to sl
func WithSessionLog(sl *SessionLog) Option {
	return func(r *Runner) { r.session = sl }
}

// WithStateHook calls fn on every state transition
func WithStateHook(fn func(State)) Option {
	return func(r *Runner) { r.onState = fn }
}

// NewRunner creates an idle runner. By default it uses the platform
// counter source, discards the report and does not log.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		source: HardwareCounters(),
		log:    zerolog.Nop(),
		out:    io.Discard,
		host:   DetectHost(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current lifecycle stage
func (r *Runner) State() State {
	return r.state
}

func (r *Runner) transition(s State) {
	r.state = s
	r.log.Debug().Stringer("state", s).Msg("runner state")
	if r.onState != nil {
		r.onState(s)
	}
}

// Run executes one benchmark and writes its report. Configuration errors
// return before anything is allocated. The runner is Idle again on return.
func (r *Runner) Run(cfg Config) (res *Result, err error) {
	defer func() {
		if err != nil {
			r.record(cfg, nil, err)
		}
		r.transition(StateIdle)
	}()

	if err := cfg.Validate(); err != nil {
		r.log.Error().Err(err).Msg("invalid configuration")
		return nil, err
	}
	r.transition(StateConfigured)
	r.log.Info().Int("n", cfg.Size).Stringer("op", cfg.Operation).
		Int("block", cfg.BlockSize).Bool("counters", cfg.Counters).
		Str("cache", CacheCondition(cfg.ColdCache)).
		Str("cpu", r.host.FeatureString()).Msg("benchmark configured")

	kernel, err := cfg.Operation.Kernel(cfg.BlockSize)
	if err != nil {
		return nil, err
	}

	res, err = r.execute(cfg, kernel)
	if err != nil {
		return nil, err
	}

	if err := WriteReport(r.out, res); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	r.transition(StateReported)
	r.record(cfg, res, nil)
	return res, nil
}

// execute allocates the operands and measures kernel alone
func (r *Runner) execute(cfg Config, kernel Kernel) (*Result, error) {
	res := &Result{Config: cfg}

	if cfg.Size == 0 {
		res.C = &Matrix{}
		r.transition(StateInitialized)
		r.transition(StateRunning)
		r.log.Debug().Msg("empty matrix, skipping kernel")
		r.verify(res)
		return res, nil
	}

	a, b, c, err := initOperands(cfg.Size)
	if err != nil {
		return nil, err
	}
	res.C = c
	r.transition(StateInitialized)

	var source CounterSource
	if cfg.Counters {
		source = r.source
	}
	monitor := NewPerfMonitor(source, r.log)
	defer monitor.Close()
	if cfg.Counters {
		monitor.Open(cfg.Events)
	}

	if cfg.ColdCache {
		FlushCaches(DefaultFlushBytes)
	}

	r.transition(StateRunning)
	var kernelErr error
	m := monitor.Measure(func() {
		kernelErr = kernel(a, b, c)
	})
	if kernelErr != nil {
		return nil, kernelErr
	}

	res.Elapsed, res.Counters = m.Elapsed, m.Counters
	ev := r.log.Info().Dur("elapsed", res.Elapsed)
	if res.Counters != nil {
		ev = ev.Uint64("l1_dcm", res.Counters.L1DataMisses).Uint64("l2_dcm", res.Counters.L2DataMisses)
	}
	ev.Msg("kernel finished")

	r.verify(res)
	return res, nil
}

func (r *Runner) verify(res *Result) {
	if !res.Config.Verify {
		return
	}
	vr := VerifyClosedForm(res.C, DefaultTolerance())
	res.Verification = &vr
	if !vr.Passed() {
		r.log.Warn().Int("mismatches", vr.NumErrors).Int("first", vr.FirstError).Msg("verification failed")
	}
}

// initOperands allocates A = 1, B[i][j] = i+1 and a zero C
func initOperands(n int) (a, b, c *Matrix, err error) {
	if a, err = NewMatrix(n); err != nil {
		return nil, nil, nil, err
	}
	if b, err = NewMatrix(n); err != nil {
		return nil, nil, nil, err
	}
	if c, err = NewMatrix(n); err != nil {
		return nil, nil, nil, err
	}
	a.FillConstant(1.0)
	b.FillByRow(RowIndexPlusOne)
	return a, b, c, nil
}

func (r *Runner) record(cfg Config, res *Result, runErr error) {
	if r.session == nil {
		return
	}
	if err := r.session.Append(NewRunRecord(cfg, res, runErr, r.host)); err != nil {
		r.log.Warn().Err(err).Str("path", r.session.Path()).Msg("session log write failed")
	}
}
