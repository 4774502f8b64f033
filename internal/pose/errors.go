package pose

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is matched by every InvalidInputError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDegenerateGeometry is matched by every DegenerateGeometryError.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// InvalidInputError reports a malformed corner set.
type InvalidInputError struct {
	Count int
	Nil   bool
}

func (e *InvalidInputError) Error() string {
	if e.Nil {
		return "invalid input: corners are missing"
	}
	return fmt.Sprintf("invalid input: corners must contain exactly %d elements, got %d", CornerCount, e.Count)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// DegenerateGeometryError reports corners whose derived width or height is
// zero, which would make the scale factors undefined.
type DegenerateGeometryError struct {
	Width   float64
	Height  float64
	Corners Corners
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("degenerate geometry: width and height of the marker cannot be zero (width=%g height=%g corners=%v)",
		e.Width, e.Height, e.Corners)
}

// Unwrap lets errors.Is match ErrDegenerateGeometry.
func (e *DegenerateGeometryError) Unwrap() error { return ErrDegenerateGeometry }
