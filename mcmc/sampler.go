// Package mcmc implements a Metropolis-Hastings random walk over a density
// field on the unit torus.
//
// A Sampler owns one chain. It is not safe for concurrent use; run several
// samplers, each with its own random.Source, for parallel chains.
package mcmc

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"

	"github.com/pthm-cable/pinning/density"
	"github.com/pthm-cable/pinning/random"
)

// DefaultResetLimit caps the uniform draws Reset makes while looking for a
// starting point with positive density.
const DefaultResetLimit = 100

// ErrInvalidParameter is returned for unusable sampler options.
var ErrInvalidParameter = errors.New("mcmc: invalid parameter")

// Point is a sample position in [0,1)x[0,1).
type Point struct {
	X, Y float64
}

// Options configures a Sampler.
type Options struct {
	StdDev     float64 // proposal spread along x; y is rescaled by the field aspect
	Height     float64 // multiplier on the field density
	Epsilon    float64 // additive density floor
	ResetLimit int     // max uniform draws per Reset
}

// DefaultOptions returns options with the given spread and unit height.
func DefaultOptions(stdDev float64) Options {
	return Options{
		StdDev:     stdDev,
		Height:     1,
		ResetLimit: DefaultResetLimit,
	}
}

func (o Options) validate() error {
	switch {
	case !(o.StdDev > 0) || math.IsInf(o.StdDev, 0):
		return fmt.Errorf("%w: stddev %v must be positive", ErrInvalidParameter, o.StdDev)
	case !(o.Height >= 0):
		return fmt.Errorf("%w: height %v must be non-negative", ErrInvalidParameter, o.Height)
	case !(o.Epsilon >= 0):
		return fmt.Errorf("%w: epsilon %v must be non-negative", ErrInvalidParameter, o.Epsilon)
	case o.ResetLimit < 1:
		return fmt.Errorf("%w: reset limit %d must be at least 1", ErrInvalidParameter, o.ResetLimit)
	}
	return nil
}

// Counters tracks work done by a chain since construction.
type Counters struct {
	Proposed      int
	Accepted      int
	Resets        int
	ResetAttempts int
}

// AcceptanceRate returns Accepted/Proposed, or 0 before the first step.
func (c Counters) AcceptanceRate() float64 {
	if c.Proposed == 0 {
		return 0
	}
	return float64(c.Accepted) / float64(c.Proposed)
}

// Sampler is a single Metropolis chain.
type Sampler struct {
	field density.Field
	rng   random.Source
	opts  Options

	curr        Point
	currDensity float64

	aspect float64
	sigmaX float64
	sigmaY float64

	counters Counters
}

// New creates a sampler over field drawing randomness from rng. The chain
// starts uninitialized with density 0; Reset or Sequence places it.
func New(field density.Field, rng random.Source, opts Options) (*Sampler, error) {
	if field == nil {
		return nil, fmt.Errorf("%w: nil field", ErrInvalidParameter)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidParameter)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	s := &Sampler{field: field, rng: rng, opts: opts}
	s.updateSigma()
	return s, nil
}

// Reset draws uniform starting points until one has positive density or the
// reset limit runs out. In the latter case the chain keeps the last draw,
// whatever its density; Step will then accept the next proposal outright.
func (s *Sampler) Reset() {
	s.counters.Resets++
	s.currDensity = 0
	for i := 0; s.currDensity <= 0 && i < s.opts.ResetLimit; i++ {
		s.curr = Point{X: s.rng.Float64(), Y: s.rng.Float64()}
		s.currDensity = s.density(s.curr)
		s.counters.ResetAttempts++
	}
	if s.currDensity <= 0 {
		slog.Debug("reset exhausted", "attempts", s.opts.ResetLimit, "x", s.curr.X, "y", s.curr.Y)
	}
	s.updateSigma()
}

// Step performs one Metropolis transition and reports whether the proposal
// was accepted.
func (s *Sampler) Step() bool {
	gx, gy := random.Gaussian2(s.rng)
	next := Point{
		X: wrap(s.curr.X + gx*s.sigmaX),
		Y: wrap(s.curr.Y + gy*s.sigmaY),
	}
	s.counters.Proposed++

	nextDensity := s.density(next)
	if !s.accept(nextDensity) {
		return false
	}
	s.curr = next
	s.currDensity = nextDensity
	s.counters.Accepted++
	return true
}

// accept applies the symmetric-proposal rule. A chain stuck at zero density
// moves unconditionally.
func (s *Sampler) accept(nextDensity float64) bool {
	if s.currDensity <= 0 {
		return true
	}
	return math.Min(1, nextDensity/s.currDensity) >= s.rng.Float64()
}

// Sequence returns a lazy sequence of count samples. Each iteration resets the
// chain, discards nBurnIn steps, then for every sample discards nSkip steps,
// yields the current position and advances once more.
func (s *Sampler) Sequence(nBurnIn, count, nSkip int) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		s.Reset()
		for range nBurnIn {
			s.Step()
		}
		for range count {
			for range nSkip {
				s.Step()
			}
			if !yield(s.curr) {
				return
			}
			s.Step()
		}
	}
}

// Position returns the current chain position.
func (s *Sampler) Position() Point { return s.curr }

// CurrentDensity returns the scaled density at the current position.
func (s *Sampler) CurrentDensity() float64 { return s.currDensity }

// Aspect returns the field width/height ratio used for the proposal.
func (s *Sampler) Aspect() float64 { return s.aspect }

// Sigma returns the per-axis proposal spread.
func (s *Sampler) Sigma() (float64, float64) { return s.sigmaX, s.sigmaY }

// Options returns the sampler configuration.
func (s *Sampler) Options() Options { return s.opts }

// Counters returns a snapshot of the chain counters.
func (s *Sampler) Counters() Counters { return s.counters }

func (s *Sampler) density(p Point) float64 {
	return s.opts.Height*s.field.Density(p.X, p.Y) + s.opts.Epsilon
}

// Target returns the unnormalized density a sampler with these options draws
// from: Height*field + Epsilon. Goodness-of-fit checks should score chains
// against it rather than against the raw field.
func (o Options) Target(field density.Field) density.Field {
	return targetField{field: field, height: o.Height, epsilon: o.Epsilon}
}

type targetField struct {
	field   density.Field
	height  float64
	epsilon float64
}

func (t targetField) Density(u, v float64) float64 {
	return t.height*t.field.Density(u, v) + t.epsilon
}

func (t targetField) Size() (int, int) {
	return t.field.Size()
}

func (s *Sampler) updateSigma() {
	s.aspect = density.Aspect(s.field)
	s.sigmaX = s.opts.StdDev
	s.sigmaY = s.opts.StdDev / s.aspect
}

// wrap folds x onto [0,1).
func wrap(x float64) float64 {
	x -= math.Floor(x)
	// x - floor(x) rounds to exactly 1 for tiny negative x.
	if x >= 1 {
		return 0
	}
	return x
}
