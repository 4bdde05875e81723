// Command matsummary aggregates matprod session logs and optionally
// compares them against a baseline session.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/matbench"
)

// errRegression is returned when a baseline configuration regressed or is missing
var errRegression = errors.New("comparison found regressions")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout)
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var (
		baselineFile string
		perfRegress  float64
		failOnSlower bool
	)

	cmd := &cobra.Command{
		Use:           "matsummary <session.json>...",
		Short:         "Summarize matprod session logs",
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := loadRecords(args)
			if err != nil {
				return err
			}
			rows := matbench.Summarize(current)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Summary of %d runs from %d session(s):\n", len(current), len(args))
			if err := matbench.WriteSummary(out, rows); err != nil {
				return err
			}

			if baselineFile == "" {
				return nil
			}
			if perfRegress < 1 {
				return fmt.Errorf("--perf-regress must be at least 1, got %g", perfRegress)
			}
			baseline, err := loadRecords([]string{baselineFile})
			if err != nil {
				return err
			}

			comps := matbench.CompareSummaries(matbench.Summarize(baseline), rows, perfRegress)
			fmt.Fprintf(out, "\nComparison against %s:\n", baselineFile)
			if err := matbench.WriteComparison(out, comps); err != nil {
				return err
			}
			for _, c := range comps {
				if c.Status == matbench.StatusMissing || (failOnSlower && c.Status == matbench.StatusSlower) {
					return errRegression
				}
			}
			return nil
		},
	}
	cmd.SetOut(stdout)

	f := cmd.Flags()
	f.StringVar(&baselineFile, "baseline", "", "baseline session log to compare against")
	f.Float64Var(&perfRegress, "perf-regress", 1.1, "regression threshold (1.1 = 10% slower)")
	f.BoolVar(&failOnSlower, "fail-on-slower", false, "exit non-zero when a configuration regressed")
	return cmd
}

func loadRecords(paths []string) ([]matbench.RunRecord, error) {
	var all []matbench.RunRecord
	for _, p := range paths {
		recs, err := matbench.ReadSessionLog(p)
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}
	return all, nil
}
