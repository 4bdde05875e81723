// Package matbench tolerance-based verification for floating-point comparisons
package matbench

import (
	"fmt"
	"math"
)

// ToleranceConfig defines tolerance parameters for floating-point comparison
type ToleranceConfig struct {
	// AbsTol is the absolute tolerance for values near zero
	AbsTol float64

	// RelTol is the relative tolerance as a fraction of the larger value
	RelTol float64

	// ULPTol is the maximum allowed difference in ULPs (Units in Last Place)
	ULPTol int64
}

// DefaultTolerance absorbs the rounding-order differences between kernels.
func DefaultTolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol: 1e-12,
		RelTol: 1e-9,
		ULPTol: 4,
	}
}

// ExactTolerance only accepts bit-identical values (and ±0).
func ExactTolerance() ToleranceConfig {
	return ToleranceConfig{}
}

// Float64NearEqual checks if two float64 values are equal within tolerance
func Float64NearEqual(a, b float64, tol ToleranceConfig) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}

	// Exact match, including ±0 and same-signed infinities
	if a == b {
		return true
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return false
	}

	diff := math.Abs(a - b)
	if diff <= tol.AbsTol {
		return true
	}

	larger := math.Max(math.Abs(a), math.Abs(b))
	if diff <= larger*tol.RelTol {
		return true
	}

	if tol.ULPTol > 0 && Float64ULPDiff(a, b) <= tol.ULPTol {
		return true
	}

	return false
}

// Float64ULPDiff computes the difference in ULPs between two float64 values
func Float64ULPDiff(a, b float64) int64 {
	aBits := math.Float64bits(a)
	bBits := math.Float64bits(b)

	// Different signs
	if (aBits^bBits)&(1<<63) != 0 {
		return math.MaxInt64
	}

	if aBits > bBits {
		return int64(aBits - bBits)
	}
	return int64(bBits - aBits)
}

// VerificationResult summarizes a cell-by-cell comparison
type VerificationResult struct {
	MaxAbsError float64
	MaxRelError float64
	NumErrors   int
	TotalItems  int
	FirstError  int // Index of first error, -1 if none
}

// Passed reports whether every cell matched
func (vr VerificationResult) Passed() bool {
	return vr.NumErrors == 0
}

// String formats the verification result
func (vr VerificationResult) String() string {
	status := "PASS"
	if !vr.Passed() {
		status = "FAIL"
	}
	return fmt.Sprintf("%s (%d/%d mismatches, max abs err %.3e, max rel err %.3e)",
		status, vr.NumErrors, vr.TotalItems, vr.MaxAbsError, vr.MaxRelError)
}

// verifyCells compares got against want(idx) for every index.
func verifyCells(got []float64, want func(idx int) float64, tol ToleranceConfig) VerificationResult {
	result := VerificationResult{
		TotalItems: len(got),
		FirstError: -1,
	}

	for idx, g := range got {
		w := want(idx)
		absErr := math.Abs(g - w)
		if absErr > result.MaxAbsError {
			result.MaxAbsError = absErr
		}
		if w != 0 {
			if relErr := absErr / math.Abs(w); relErr > result.MaxRelError {
				result.MaxRelError = relErr
			}
		}
		if !Float64NearEqual(g, w, tol) {
			result.NumErrors++
			if result.FirstError < 0 {
				result.FirstError = idx
			}
		}
	}

	return result
}

// VerifyMatrix compares two matrices cell by cell
func VerifyMatrix(got, want *Matrix, tol ToleranceConfig) (VerificationResult, error) {
	if got.N != want.N {
		return VerificationResult{}, NewInvalidArgError("VerifyMatrix",
			fmt.Sprintf("size mismatch: %d vs %d", got.N, want.N))
	}
	return verifyCells(got.Data, func(idx int) float64 { return want.Data[idx] }, tol), nil
}

// VerifyClosedForm checks C against (i+1)*N, the product of an all-ones A
// and a B whose row i holds i+1.
func VerifyClosedForm(c *Matrix, tol ToleranceConfig) VerificationResult {
	n := c.N
	return verifyCells(c.Data, func(idx int) float64 {
		return float64(idx/n+1) * float64(n)
	}, tol)
}
