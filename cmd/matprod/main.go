// Command matprod times one dense matrix multiplication kernel and
// optionally reports L1/L2 data-cache misses around it.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/LynnColeArt/matbench"
)

const usageText = `Usage: matprod <matrix_size> <operation> [blockSize] [flags]
Operations: 1 (Standard Multiplication), 2 (Row-wise), 3 (Block Multiplication)
`

type options struct {
	counters  bool
	l1Event   string
	l2Event   string
	verify    bool
	logDir    string
	autoBlock bool
	cold      bool
	verbose   bool
}

// errUsage marks a missing-argument invocation: usage is printed and the
// process exits 0.
var errUsage = errors.New("usage requested")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprint(stdout, usageText)
		return 0
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if matbench.IsConfigError(err) {
			fmt.Fprint(stderr, usageText)
		}
		return 1
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "matprod <matrix_size> <operation> [blockSize]",
		Short:         "Benchmark dense square matrix multiplication kernels",
		Version:       matbench.Version(),
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd.OutOrStdout(), stderr, args, opts)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	// A negative size such as "-3" reaches pflag as a shorthand flag
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &matbench.BenchError{
			Type:    matbench.ErrTypeConfig,
			Op:      "parse flags",
			Message: err.Error(),
			Err:     err,
		}
	})

	f := cmd.Flags()
	f.BoolVar(&opts.counters, "counters", true, "read L1/L2 data-cache-miss counters around the kernel")
	f.StringVar(&opts.l1Event, "l1-event", "", "override the first counter (l1d, llc or raw:<config>)")
	f.StringVar(&opts.l2Event, "l2-event", "", "override the second counter (l1d, llc or raw:<config>)")
	f.BoolVar(&opts.verify, "verify", false, "check the result against the closed form (i+1)*N")
	f.StringVar(&opts.logDir, "log-dir", "", "append a JSON record of the run to a session file in this directory")
	f.BoolVar(&opts.autoBlock, "auto-block", false, "derive the block size from the L1 cache size when none is given")
	f.BoolVar(&opts.cold, "cold", false, "evict the data caches before the timed region")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !isTerminal(w)}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func parseIntArg(name, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, &matbench.BenchError{
			Type:    matbench.ErrTypeConfig,
			Op:      "parse " + name,
			Message: fmt.Sprintf("%q is not an integer", s),
			Err:     err,
		}
	}
	return v, nil
}

// parseConfig turns positional arguments and flags into a Config
func parseConfig(args []string, opts options) (matbench.Config, error) {
	var cfg matbench.Config
	if len(args) < 2 {
		return cfg, errUsage
	}
	if len(args) > 3 {
		return cfg, matbench.NewConfigError("args", fmt.Sprintf("expected at most 3 arguments, got %d", len(args)))
	}

	n, err := parseIntArg("matrix_size", args[0])
	if err != nil {
		return cfg, err
	}
	code, err := parseIntArg("operation", args[1])
	if err != nil {
		return cfg, err
	}
	op, err := matbench.ParseOperation(code)
	if err != nil {
		return cfg, err
	}

	cfg = matbench.Config{
		Size:      n,
		Operation: op,
		Counters:  opts.counters,
		Events:    matbench.DefaultEvents(),
		Verify:    opts.verify,
		ColdCache: opts.cold,
	}

	switch {
	case len(args) == 3:
		bs, err := parseIntArg("blockSize", args[2])
		if err != nil {
			return cfg, err
		}
		if bs <= 0 {
			return cfg, matbench.NewConfigError("args", fmt.Sprintf("block size must be positive, got %d", bs))
		}
		cfg.BlockSize = bs
	case opts.autoBlock:
		cfg.BlockSize = matbench.SuggestBlockSize(n, matbench.L1CacheSize)
	}

	if opts.l1Event != "" {
		if cfg.Events[0], err = matbench.ParseEventSpec("L1_DCM", opts.l1Event); err != nil {
			return cfg, err
		}
	}
	if opts.l2Event != "" {
		if cfg.Events[1], err = matbench.ParseEventSpec("L2_DCM", opts.l2Event); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func runBenchmark(stdout, stderr io.Writer, args []string, opts options) error {
	cfg, err := parseConfig(args, opts)
	if err != nil {
		return err
	}

	logger := newLogger(stderr, opts.verbose)
	runnerOpts := []matbench.Option{
		matbench.WithLogger(logger),
		matbench.WithOutput(stdout),
	}
	if opts.logDir != "" {
		session, err := matbench.NewSessionLog(opts.logDir, "matprod")
		if err != nil {
			return err
		}
		logger.Info().Str("path", session.Path()).Msg("session log")
		runnerOpts = append(runnerOpts, matbench.WithSessionLog(session))
	}

	res, err := matbench.NewRunner(runnerOpts...).Run(cfg)
	if err != nil {
		return err
	}
	if res.Verification != nil && !res.Verification.Passed() {
		return fmt.Errorf("verification failed: %s", res.Verification)
	}
	return nil
}
