package matbench

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// NewMatrixOrFail allocates an n×n matrix and fails the test if unsuccessful
func NewMatrixOrFail(t testing.TB, n int) *Matrix {
	t.Helper()
	m, err := NewMatrix(n)
	require.NoError(t, err, "allocate %dx%d", n, n)
	return m
}

// operandsOrFail builds the harness operands A = 1, B[i][j] = i+1, C = 0
func operandsOrFail(t testing.TB, n int) (a, b, c *Matrix) {
	t.Helper()
	a, b, c, err := initOperands(n)
	require.NoError(t, err)
	return a, b, c
}

// closedForm returns the expected product of the harness operands
func closedForm(t testing.TB, n int) *Matrix {
	t.Helper()
	want := NewMatrixOrFail(t, n)
	want.FillByRow(func(i int) float64 { return float64((i + 1) * n) })
	return want
}

// fromRows builds a matrix from literal rows
func fromRows(t testing.TB, rows [][]float64) *Matrix {
	t.Helper()
	m := NewMatrixOrFail(t, len(rows))
	for i, row := range rows {
		require.Len(t, row, len(rows), "row %d", i)
		copy(m.Row(i), row)
	}
	return m
}
