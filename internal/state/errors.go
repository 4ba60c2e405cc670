package state

import (
	"errors"
	"fmt"
)

var (
	// ErrNumericCorruption indicates a NaN or Inf in the coordinate vector.
	ErrNumericCorruption = errors.New("state: NaN or Inf in coordinates")

	// ErrDimensionMismatch indicates a coordinate vector whose length is not 3N.
	ErrDimensionMismatch = errors.New("state: coordinate length does not match body count")
)

// CorruptionError reports the first corrupt coordinate.
type CorruptionError struct {
	Index int
	Value float64
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("state: coordinate %d is %v", e.Index, e.Value)
}

func (e *CorruptionError) Unwrap() error { return ErrNumericCorruption }
