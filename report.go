package matbench

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// FormatValue prints a cell in its shortest round-tripping form
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatRow joins a row of cells with single spaces
func FormatRow(row []float64) string {
	return strings.Join(lo.Map(row, func(v float64, _ int) string { return FormatValue(v) }), " ")
}

// WriteReport prints elapsed seconds, the counter pair when present, and
// the top-left corner of C.
func WriteReport(w io.Writer, res *Result) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Time elapsed: %.6f seconds\n", res.Elapsed.Seconds())
	if res.Counters != nil {
		sb.WriteString(res.Counters.String())
	}

	sb.WriteString("Result matrix:\n")
	if res.C != nil {
		for _, row := range res.C.Corner(PreviewLimit) {
			sb.WriteString(FormatRow(row))
			sb.WriteByte('\n')
		}
	}

	if res.Verification != nil {
		fmt.Fprintf(&sb, "Verification: %s\n", res.Verification)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
