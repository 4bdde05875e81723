package matbench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatrixZeroed(t *testing.T) {
	m := NewMatrixOrFail(t, 5)
	assert.Equal(t, 5, m.N)
	assert.Len(t, m.Data, 25)
	for i, v := range m.Data {
		assert.Zero(t, v, "cell %d", i)
	}
}

func TestNewMatrixRejectsBadSizes(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		_, err := NewMatrix(n)
		assert.ErrorIs(t, err, ErrInvalidSize, "n=%d", n)
		assert.True(t, IsInvalidArgError(err))
	}

	_, err := NewMatrix(maxDim + 1)
	require.Error(t, err)
	assert.True(t, IsMemoryError(err))
}

func TestMatrixRowMajorLayout(t *testing.T) {
	m := NewMatrixOrFail(t, 3)
	m.Set(1, 2, 7)
	assert.Equal(t, 7.0, m.Data[1*3+2])
	assert.Equal(t, 7.0, m.At(1, 2))
	assert.Equal(t, []float64{0, 0, 7}, m.Row(1))

	// Row aliases storage
	m.Row(2)[0] = 9
	assert.Equal(t, 9.0, m.At(2, 0))
}

func TestFillPolicies(t *testing.T) {
	a := NewMatrixOrFail(t, 4)
	a.FillConstant(1.0)
	for _, v := range a.Data {
		assert.Equal(t, 1.0, v)
	}

	b := NewMatrixOrFail(t, 4)
	b.FillByRow(RowIndexPlusOne)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.Equal(t, float64(i+1), b.At(i, j), "B[%d][%d]", i, j)
		}
	}

	c := NewMatrixOrFail(t, 3)
	c.FillFunc(func(i, j int) float64 { return float64(10*i + j) })
	assert.Equal(t, []float64{0, 1, 2, 10, 11, 12, 20, 21, 22}, c.Data)
}

func TestCorner(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		limit int
		want  int
	}{
		{"smaller than limit", 4, PreviewLimit, 4},
		{"larger than limit", 12, PreviewLimit, 10},
		{"exact", 10, PreviewLimit, 10},
		{"single", 1, PreviewLimit, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatrixOrFail(t, tt.n)
			m.FillFunc(func(i, j int) float64 { return float64(i*tt.n + j) })

			corner := m.Corner(tt.limit)
			require.Len(t, corner, tt.want)
			for i, row := range corner {
				require.Len(t, row, tt.want)
				assert.Equal(t, m.Row(i)[:tt.want], row)
			}

			// Corner is a copy
			corner[0][0] = -1
			assert.Equal(t, 0.0, m.At(0, 0))
		})
	}

	assert.Nil(t, (&Matrix{}).Corner(PreviewLimit))
}
