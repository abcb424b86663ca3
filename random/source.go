// Package random provides the seedable random streams used by the sampler.
package random

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source supplies the two distributions a Metropolis walk needs.
// Implementations are not required to be safe for concurrent use.
type Source interface {
	// Float64 returns a uniform value in [0,1).
	Float64() float64
	// NormFloat64 returns a standard normal value.
	NormFloat64() float64
}

// PCG is a deterministic Source backed by a PCG generator.
type PCG struct {
	uniform distuv.Uniform
	normal  distuv.Normal
}

// New returns a PCG stream for seed. Equal seeds give equal streams.
func New(seed uint64) *PCG {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &PCG{
		uniform: distuv.Uniform{Min: 0, Max: 1, Src: src},
		normal:  distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
}

// Float64 returns a uniform value in [0,1).
func (p *PCG) Float64() float64 {
	return p.uniform.Rand()
}

// NormFloat64 returns a standard normal value.
func (p *PCG) NormFloat64() float64 {
	return p.normal.Rand()
}

// Gaussian2 draws a 2D standard-normal vector from src.
func Gaussian2(src Source) (float64, float64) {
	return src.NormFloat64(), src.NormFloat64()
}

// BoxMuller turns two uniforms in [0,1) into two independent standard normals.
// It is exposed for Sources that only have a uniform stream.
func BoxMuller(u1, u2 float64) (float64, float64) {
	r := math.Sqrt(-2 * math.Log(1-u1))
	theta := 2 * math.Pi * u2
	return r * math.Cos(theta), r * math.Sin(theta)
}

// Uniform adapts a plain uniform generator into a Source, deriving normals
// with the Box-Muller transform.
type Uniform struct {
	next  func() float64
	spare float64
	ok    bool
}

// NewUniform wraps next, which must return values in [0,1).
func NewUniform(next func() float64) *Uniform {
	return &Uniform{next: next}
}

// Float64 returns the next uniform value.
func (u *Uniform) Float64() float64 { return u.next() }

// NormFloat64 returns a standard normal value, caching the second of each pair.
func (u *Uniform) NormFloat64() float64 {
	if u.ok {
		u.ok = false
		return u.spare
	}
	z0, z1 := BoxMuller(u.next(), u.next())
	u.spare, u.ok = z1, true
	return z0
}
