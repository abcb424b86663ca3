package density

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ArrayField interpolates a flat row-major grid of densities.
type ArrayField struct {
	w, h   int
	values []float64
}

// NewArrayField creates a field from w*h row-major values. The slice is copied.
func NewArrayField(w, h int, values []float64) (*ArrayField, error) {
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
	}
	if len(values) != w*h {
		return nil, fmt.Errorf("%w: %dx%d needs %d values, got %d", ErrInvalidDimensions, w, h, w*h, len(values))
	}
	if floats.HasNaN(values) {
		return nil, fmt.Errorf("%w: NaN in grid", ErrInvalidDensity)
	}
	if m := floats.Min(values); m < 0 {
		idx := floats.MinIdx(values)
		return nil, fmt.Errorf("%w: %g at (%d,%d)", ErrInvalidDensity, m, idx%w, idx/w)
	}

	vals := make([]float64, len(values))
	copy(vals, values)
	return &ArrayField{w: w, h: h, values: vals}, nil
}

// Size returns the grid dimensions.
func (f *ArrayField) Size() (int, int) { return f.w, f.h }

// At returns the raw grid value at cell (ix, iy).
func (f *ArrayField) At(ix, iy int) float64 {
	return f.values[ix+iy*f.w]
}

// Density maps (u, v) onto the grid corners, so (0,0) hits the first cell and
// (1,1) the last. Coordinates outside [0,1] clamp to the edge cells.
func (f *ArrayField) Density(u, v float64) float64 {
	lw := f.w - 1
	lh := f.h - 1

	x := clampFloat(u*float64(lw), 0, float64(lw))
	y := clampFloat(v*float64(lh), 0, float64(lh))

	ix := clampInt(floorInt(x), 0, lw)
	iy := clampInt(floorInt(y), 0, lh)
	jx := min(ix+1, lw)
	jy := min(iy+1, lh)

	dx := x - float64(ix)
	dy := y - float64(iy)

	return bilinear(f.At(ix, iy), f.At(ix, jy), f.At(jx, iy), f.At(jx, jy), dx, dy)
}

// Sum returns the total mass of the grid.
func (f *ArrayField) Sum() float64 {
	return floats.Sum(f.values)
}

func clampFloat(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
