package matbench

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// SummaryKey groups runs of the same benchmark configuration
type SummaryKey struct {
	Size           int
	Operation      string
	BlockSize      int
	CacheCondition string
}

// String names the configuration like "block/n=512/bs=32/hot"
func (k SummaryKey) String() string {
	name := fmt.Sprintf("%s/n=%d", k.Operation, k.Size)
	if k.BlockSize > 0 {
		name += fmt.Sprintf("/bs=%d", k.BlockSize)
	}
	if k.CacheCondition != "" {
		name += "/" + k.CacheCondition
	}
	return name
}

// SummaryRow aggregates the runs of one configuration
type SummaryRow struct {
	Key         SummaryKey
	Runs        int
	Failures    int
	MinSeconds  float64
	MeanSeconds float64
	MaxSeconds  float64
	MeanL1      float64 // NaN when no run had counters
	MeanL2      float64
}

func keyOf(rec RunRecord) SummaryKey {
	return SummaryKey{
		Size:           rec.Size,
		Operation:      rec.Operation,
		BlockSize:      rec.BlockSize,
		CacheCondition: rec.CacheCondition,
	}
}

// Summarize groups records by configuration. Failed runs are counted but
// do not contribute timings.
func Summarize(records []RunRecord) []SummaryRow {
	groups := lo.GroupBy(records, keyOf)

	rows := make([]SummaryRow, 0, len(groups))
	for key, recs := range groups {
		passed := lo.Filter(recs, func(r RunRecord, _ int) bool { return r.Status == "pass" })
		row := SummaryRow{
			Key:         key,
			Runs:        len(recs),
			Failures:    len(recs) - len(passed),
			MinSeconds:  math.NaN(),
			MeanSeconds: math.NaN(),
			MaxSeconds:  math.NaN(),
			MeanL1:      math.NaN(),
			MeanL2:      math.NaN(),
		}

		if len(passed) > 0 {
			secs := lo.Map(passed, func(r RunRecord, _ int) float64 { return r.ElapsedSeconds })
			row.MinSeconds = lo.Min(secs)
			row.MaxSeconds = lo.Max(secs)
			row.MeanSeconds = lo.Sum(secs) / float64(len(secs))
		}

		counted := lo.Filter(passed, func(r RunRecord, _ int) bool {
			return r.L1DataMisses != nil && r.L2DataMisses != nil
		})
		if len(counted) > 0 {
			row.MeanL1 = lo.SumBy(counted, func(r RunRecord) float64 { return float64(*r.L1DataMisses) }) / float64(len(counted))
			row.MeanL2 = lo.SumBy(counted, func(r RunRecord) float64 { return float64(*r.L2DataMisses) }) / float64(len(counted))
		}

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].Key, rows[j].Key
		if a.Size != b.Size {
			return a.Size < b.Size
		}
		if a.Operation != b.Operation {
			return a.Operation < b.Operation
		}
		if a.BlockSize != b.BlockSize {
			return a.BlockSize < b.BlockSize
		}
		return a.CacheCondition < b.CacheCondition
	})
	return rows
}

func formatOptional(v float64, format string) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

// WriteSummary prints one line per configuration
func WriteSummary(w io.Writer, rows []SummaryRow) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-36s %5s %5s %12s %12s %12s %14s %14s\n",
		"Benchmark", "Runs", "Fail", "Min (s)", "Mean (s)", "Max (s)", "L1 DCM", "L2 DCM")
	sb.WriteString(strings.Repeat("-", 118))
	sb.WriteByte('\n')

	for _, r := range rows {
		fmt.Fprintf(&sb, "%-36s %5d %5d %12s %12s %12s %14s %14s\n",
			r.Key, r.Runs, r.Failures,
			formatOptional(r.MinSeconds, "%.6f"),
			formatOptional(r.MeanSeconds, "%.6f"),
			formatOptional(r.MaxSeconds, "%.6f"),
			formatOptional(r.MeanL1, "%.0f"),
			formatOptional(r.MeanL2, "%.0f"))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// Comparison statuses
const (
	StatusPass    = "PASS"
	StatusSlower  = "SLOWER"
	StatusFaster  = "FASTER"
	StatusMissing = "MISSING"
)

// fasterThreshold marks a speedup worth calling out
const fasterThreshold = 1.2

// Comparison is one configuration measured in two sessions
type Comparison struct {
	Key             SummaryKey
	Status          string
	BaselineSeconds float64
	CurrentSeconds  float64
	Speedup         float64 // baseline / current mean time
	Message         string
}

// CompareSummaries matches current rows against a baseline. A run is SLOWER
// when its speedup drops below 1/perfRegress.
func CompareSummaries(baseline, current []SummaryRow, perfRegress float64) []Comparison {
	currentByKey := lo.KeyBy(current, func(r SummaryRow) SummaryKey { return r.Key })

	comps := make([]Comparison, 0, len(baseline))
	for _, base := range baseline {
		comp := Comparison{Key: base.Key, BaselineSeconds: base.MeanSeconds}

		curr, ok := currentByKey[base.Key]
		if !ok || math.IsNaN(curr.MeanSeconds) || math.IsNaN(base.MeanSeconds) {
			comp.Status = StatusMissing
			comp.CurrentSeconds, comp.Speedup = math.NaN(), math.NaN()
			comp.Message = "no passing run in both sessions"
			comps = append(comps, comp)
			continue
		}

		comp.CurrentSeconds = curr.MeanSeconds
		if curr.MeanSeconds > 0 {
			comp.Speedup = base.MeanSeconds / curr.MeanSeconds
		} else {
			comp.Speedup = math.Inf(1)
		}

		switch {
		case comp.Speedup < 1.0/perfRegress:
			comp.Status = StatusSlower
			comp.Message = fmt.Sprintf("Performance regression: %.2fx slower", 1.0/comp.Speedup)
		case comp.Speedup > fasterThreshold:
			comp.Status = StatusFaster
			comp.Message = fmt.Sprintf("Performance improvement: %.2fx faster", comp.Speedup)
		default:
			comp.Status = StatusPass
		}
		comps = append(comps, comp)
	}
	return comps
}

// WriteComparison prints status counts and a per-configuration table
func WriteComparison(w io.Writer, comps []Comparison) error {
	counts := lo.CountValuesBy(comps, func(c Comparison) string { return c.Status })

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total: %d | PASS: %d | SLOWER: %d | FASTER: %d | MISSING: %d\n\n",
		len(comps), counts[StatusPass], counts[StatusSlower], counts[StatusFaster], counts[StatusMissing])
	fmt.Fprintf(&sb, "%-36s %-8s %12s %12s %8s\n", "Benchmark", "Status", "Baseline", "Current", "Speedup")
	sb.WriteString(strings.Repeat("-", 80))
	sb.WriteByte('\n')

	for _, c := range comps {
		fmt.Fprintf(&sb, "%-36s %-8s %12s %12s %8s",
			c.Key, c.Status,
			formatOptional(c.BaselineSeconds, "%.6f"),
			formatOptional(c.CurrentSeconds, "%.6f"),
			formatOptional(c.Speedup, "%.2f"))
		if c.Message != "" {
			sb.WriteString("  " + c.Message)
		}
		sb.WriteByte('\n')
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
