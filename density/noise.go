package density

import (
	"fmt"
	"math"
)

// NoiseParams configures a procedural probability map.
type NoiseParams struct {
	Width      int
	Height     int
	Scale      float64 // base lattice frequency
	Octaves    int
	Lacunarity float64 // frequency multiplier per octave
	Gain       float64 // amplitude multiplier per octave
	Contrast   float64 // exponent applied to the FBM sum (higher = sparser peaks)
	Seed       uint32
}

// DefaultNoiseParams returns a 256x256 map with a few broad patches.
func DefaultNoiseParams() NoiseParams {
	return NoiseParams{
		Width:      256,
		Height:     256,
		Scale:      4.0,
		Octaves:    4,
		Lacunarity: 2.0,
		Gain:       0.5,
		Contrast:   3.0,
		Seed:       42,
	}
}

// NewNoiseField generates a tileable FBM value-noise grid in [0,1] and wraps it
// in an ArrayField.
func NewNoiseField(p NoiseParams) (*ArrayField, error) {
	if p.Width < 1 || p.Height < 1 {
		return nil, fmt.Errorf("%w: noise %dx%d", ErrInvalidDimensions, p.Width, p.Height)
	}
	if p.Octaves < 1 {
		p.Octaves = 1
	}

	values := make([]float64, p.Width*p.Height)
	for y := 0; y < p.Height; y++ {
		v := (float64(y) + 0.5) / float64(p.Height)
		for x := 0; x < p.Width; x++ {
			u := (float64(x) + 0.5) / float64(p.Width)
			values[y*p.Width+x] = p.fbm(u, v)
		}
	}
	return NewArrayField(p.Width, p.Height, values)
}

func (p NoiseParams) fbm(u, v float64) float64 {
	sum := 0.0
	amp := 0.5
	freq := p.Scale

	for o := 0; o < p.Octaves; o++ {
		sum += amp * p.valueNoise(u, v, freq)
		freq *= p.Lacunarity
		amp *= p.Gain
	}

	return clamp01(math.Pow(sum, p.Contrast))
}

// valueNoise samples lattice noise that tiles across the unit square.
func (p NoiseParams) valueNoise(u, v, freq float64) float64 {
	x := u * freq
	y := v * freq

	ix := floorInt(x)
	iy := floorInt(y)
	fx := x - float64(ix)
	fy := y - float64(iy)

	f := max(int(freq), 1)
	x0 := modInt(ix, f)
	x1 := modInt(ix+1, f)
	y0 := modInt(iy, f)
	y1 := modInt(iy+1, f)

	a := p.hash(x0, y0)
	b := p.hash(x1, y0)
	c := p.hash(x0, y1)
	d := p.hash(x1, y1)

	ux := smoothstep(fx)
	uy := smoothstep(fy)

	ab := a + (b-a)*ux
	cd := c + (d-c)*ux
	return ab + (cd-ab)*uy
}

// hash maps lattice coordinates to [0,1).
func (p NoiseParams) hash(ix, iy int) float64 {
	x := uint32(ix)
	y := uint32(iy)
	h := x*374761393 + y*668265263 + p.Seed*1442695041
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float64(h&0x00FFFFFF) / float64(0x01000000)
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

func clamp01(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func modInt(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
