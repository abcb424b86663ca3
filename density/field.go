// Package density provides the density fields the sampler walks over.
//
// All fields are addressed with normalized coordinates (u, v) in [0,1)x[0,1)
// and return a non-negative relative likelihood. Interpolation inside a field
// clamps at the edges; any wrap-around is the caller's business.
package density

import (
	"errors"
	"math"
)

var (
	// ErrInvalidDimensions is returned when a field has no cells or its backing
	// data does not match the requested size.
	ErrInvalidDimensions = errors.New("density: invalid dimensions")

	// ErrInvalidDensity is returned when backing data holds a negative or NaN value.
	ErrInvalidDensity = errors.New("density: invalid density")
)

// Field is a read-only 2D density lookup.
type Field interface {
	// Density returns the interpolated density at normalized coordinates.
	Density(u, v float64) float64
	// Size returns the native resolution of the field in cells.
	Size() (w, h int)
}

// Aspect returns width/height of a field.
func Aspect(f Field) float64 {
	w, h := f.Size()
	return float64(w) / float64(h)
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// bilinear blends the four corners of a cell with fractional offsets dx, dy.
func bilinear(v00, v01, v10, v11, dx, dy float64) float64 {
	return (1-dx)*((1-dy)*v00+dy*v01) + dx*((1-dy)*v10+dy*v11)
}

func floorInt(x float64) int {
	return int(math.Floor(x))
}
