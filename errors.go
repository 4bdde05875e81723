// Package matbench structured error types for the benchmark harness
package matbench

import (
	"errors"
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Configuration errors: bad arguments, unknown operation codes
	ErrTypeConfig ErrorType = iota
	// Invalid argument errors raised by matrices and kernels
	ErrTypeInvalidArg
	// Memory errors
	ErrTypeMemory
	// Hardware counter facility errors
	ErrTypeCounter
)

// BenchError represents a structured error with context
type BenchError struct {
	Type    ErrorType
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any
}

// Error implements the error interface
func (e *BenchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("matbench %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("matbench %s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *BenchError) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConfig:
		return "Config"
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeMemory:
		return "Memory"
	case ErrTypeCounter:
		return "Counter"
	default:
		return "Unknown"
	}
}

// NewConfigError creates a configuration error
func NewConfigError(op string, message string) error {
	return &BenchError{
		Type:    ErrTypeConfig,
		Op:      op,
		Message: message,
	}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &BenchError{
		Type:    ErrTypeInvalidArg,
		Op:      op,
		Message: message,
	}
}

// NewMemoryError creates a memory-related error
func NewMemoryError(op string, message string, err error) error {
	return &BenchError{
		Type:    ErrTypeMemory,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewCounterError creates a hardware counter error
func NewCounterError(op string, message string, err error) error {
	return &BenchError{
		Type:    ErrTypeCounter,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

var (
	// ErrUnknownOperation indicates an operation code outside 1..3
	ErrUnknownOperation = NewConfigError("ParseOperation", "unknown operation code")

	// ErrInvalidSize indicates a non-positive matrix dimension
	ErrInvalidSize = NewInvalidArgError("NewMatrix", "size must be positive")

	// ErrInvalidBlockSize indicates a non-positive tile edge
	ErrInvalidBlockSize = NewInvalidArgError("MultiplyBlock", "block size must be positive")

	// ErrCountersUnsupported is the reason reported on platforms without a counter facility
	ErrCountersUnsupported = errors.New("hardware counters not supported on this platform")
)

func errorTypeOf(err error) (ErrorType, bool) {
	var e *BenchError
	if errors.As(err, &e) {
		return e.Type, true
	}
	return 0, false
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	t, ok := errorTypeOf(err)
	return ok && t == ErrTypeConfig
}

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool {
	t, ok := errorTypeOf(err)
	return ok && t == ErrTypeInvalidArg
}

// IsMemoryError checks if an error is a memory error
func IsMemoryError(err error) bool {
	t, ok := errorTypeOf(err)
	return ok && t == ErrTypeMemory
}

// IsCounterError checks if an error is a counter facility error
func IsCounterError(err error) bool {
	t, ok := errorTypeOf(err)
	return ok && t == ErrTypeCounter
}
