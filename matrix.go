package matbench

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

// maxDim is the largest n for which n*n float64 values are addressable.
var maxDim = int(math.Sqrt(float64(math.MaxInt / float64Bytes)))

// Matrix is a dense square matrix of float64 stored row-major: cell (i, j)
// lives at Data[i*N+j].
type Matrix struct {
	N    int
	Data []float64
}

// NewMatrix allocates a zero-filled n×n matrix.
func NewMatrix(n int) (*Matrix, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	if n > maxDim {
		return nil, NewMemoryError("NewMatrix",
			fmt.Sprintf("%dx%d matrix exceeds addressable memory", n, n), nil)
	}
	return &Matrix{N: n, Data: make([]float64, n*n)}, nil
}

// At returns cell (i, j).
func (m *Matrix) At(i, j int) float64 {
	return m.Data[i*m.N+j]
}

// Set stores v at cell (i, j).
func (m *Matrix) Set(i, j int, v float64) {
	m.Data[i*m.N+j] = v
}

// Row returns row i as a slice aliasing the backing storage.
func (m *Matrix) Row(i int) []float64 {
	return m.Data[i*m.N : (i+1)*m.N]
}

// FillFunc sets every cell (i, j) to gen(i, j).
func (m *Matrix) FillFunc(gen func(i, j int) float64) {
	for i := 0; i < m.N; i++ {
		row := m.Row(i)
		for j := range row {
			row[j] = gen(i, j)
		}
	}
}

// FillConstant sets every cell to v.
func (m *Matrix) FillConstant(v float64) {
	m.FillFunc(func(int, int) float64 { return v })
}

// FillByRow sets cell (i, j) to gen(i); the column is ignored.
func (m *Matrix) FillByRow(gen func(i int) float64) {
	m.FillFunc(func(i, _ int) float64 { return gen(i) })
}

// Corner copies the top-left min(N, limit) square of the matrix.
func (m *Matrix) Corner(limit int) [][]float64 {
	size := min(m.N, limit)
	if size <= 0 {
		return nil
	}
	return lo.Times(size, func(i int) []float64 {
		return append([]float64(nil), m.Row(i)[:size]...)
	})
}

// RowIndexPlusOne is the generator for the B operand: row i holds i+1.
func RowIndexPlusOne(i int) float64 {
	return float64(i + 1)
}
