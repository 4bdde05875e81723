// Package matbench matrix multiplication kernels
package matbench

import (
	"fmt"
)

// Kernel computes C = A×B into a zero-initialized C. All operands share N.
type Kernel func(a, b, c *Matrix) error

// Operation selects one of the kernels by its command-line code.
type Operation int

const (
	// OpStandard is the i-j-k triple loop with a per-cell local sum
	OpStandard Operation = 1
	// OpRowWise is the i-k-j "line" loop accumulating straight into C
	OpRowWise Operation = 2
	// OpBlock is the tiled loop nest
	OpBlock Operation = 3
)

// Operations lists every valid operation in code order.
var Operations = []Operation{OpStandard, OpRowWise, OpBlock}

// ParseOperation validates an operation code.
func ParseOperation(code int) (Operation, error) {
	op := Operation(code)
	switch op {
	case OpStandard, OpRowWise, OpBlock:
		return op, nil
	}
	return 0, &BenchError{
		Type:    ErrTypeConfig,
		Op:      "ParseOperation",
		Message: fmt.Sprintf("unknown operation code %d", code),
		Err:     ErrUnknownOperation,
	}
}

// String returns the operation name
func (op Operation) String() string {
	switch op {
	case OpStandard:
		return "standard"
	case OpRowWise:
		return "row-wise"
	case OpBlock:
		return "block"
	default:
		return fmt.Sprintf("operation(%d)", int(op))
	}
}

// Kernel returns the kernel for op. blockSize is only used by OpBlock.
func (op Operation) Kernel(blockSize int) (Kernel, error) {
	switch op {
	case OpStandard:
		return MultiplyStandard, nil
	case OpRowWise:
		return MultiplyRowWise, nil
	case OpBlock:
		if blockSize <= 0 {
			return nil, ErrInvalidBlockSize
		}
		return func(a, b, c *Matrix) error {
			return MultiplyBlock(a, b, c, blockSize)
		}, nil
	}
	_, err := ParseOperation(int(op))
	return nil, err
}

func checkShapes(op string, a, b, c *Matrix) error {
	if a == nil || b == nil || c == nil {
		return NewInvalidArgError(op, "nil operand")
	}
	if a.N != b.N || a.N != c.N {
		return NewInvalidArgError(op,
			fmt.Sprintf("operand sizes differ: A=%d B=%d C=%d", a.N, b.N, c.N))
	}
	return nil
}

// MultiplyStandard sums A[i,k]*B[k,j] over ascending k into a local and
// assigns it once to C[i,j]. B is walked column-wise.
func MultiplyStandard(a, b, c *Matrix) error {
	if err := checkShapes("MultiplyStandard", a, b, c); err != nil {
		return err
	}
	n := a.N
	ad, bd, cd := a.Data, b.Data, c.Data
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for k := 0; k < n; k++ {
				sum += ad[i*n+k] * bd[k*n+j]
			}
			cd[i*n+j] = sum
		}
	}
	return nil
}

// MultiplyRowWise iterates i, k, j and accumulates C[i,j] += A[i,k]*B[k,j],
// so the inner loop streams a full row of B and of C.
func MultiplyRowWise(a, b, c *Matrix) error {
	if err := checkShapes("MultiplyRowWise", a, b, c); err != nil {
		return err
	}
	n := a.N
	for i := 0; i < n; i++ {
		ci := c.Row(i)
		for k := 0; k < n; k++ {
			aik := a.Data[i*n+k]
			bk := b.Row(k)
			for j := range ci {
				ci[j] += aik * bk[j]
			}
		}
	}
	return nil
}

// MultiplyBlock tiles the i/j/k space into cubes of edge blockSize. For each
// cell of an (i, j) tile it sums over the tile's k range into a local and
// adds that local to C[i,j] once per k tile. Tiles on the far edge are
// clamped to N.
func MultiplyBlock(a, b, c *Matrix, blockSize int) error {
	if err := checkShapes("MultiplyBlock", a, b, c); err != nil {
		return err
	}
	if blockSize <= 0 {
		return ErrInvalidBlockSize
	}
	n := a.N
	ad, bd, cd := a.Data, b.Data, c.Data
	for i0 := 0; i0 < n; i0 += blockSize {
		iMax := min(i0+blockSize, n)
		for j0 := 0; j0 < n; j0 += blockSize {
			jMax := min(j0+blockSize, n)
			for k0 := 0; k0 < n; k0 += blockSize {
				kMax := min(k0+blockSize, n)
				for i := i0; i < iMax; i++ {
					for j := j0; j < jMax; j++ {
						sum := 0.0
						for k := k0; k < kMax; k++ {
							sum += ad[i*n+k] * bd[k*n+j]
						}
						cd[i*n+j] += sum
					}
				}
			}
		}
	}
	return nil
}
