package diagnostics

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/pinning/density"
	"github.com/pthm-cable/pinning/mcmc"
)

// subSamples is the per-axis count of midpoint evaluations used to
// integrate a field over one bin.
const subSamples = 4

// ErrNoSamples is returned when a test is asked to score an empty sample set.
var ErrNoSamples = errors.New("diagnostics: no samples")

// ChiSquare is the result of a binned goodness-of-fit test.
type ChiSquare struct {
	Stat   float64 `csv:"chi2"`
	DF     int     `csv:"df"`
	PValue float64 `csv:"p_value"`
}

// LogValue implements slog.LogValuer for structured logging.
func (c ChiSquare) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("chi2", c.Stat),
		slog.Int("df", c.DF),
		slog.Float64("p_value", c.PValue),
	)
}

// ChiSquareUniform tests points against the uniform distribution on the unit
// square using a bins x bins grid.
func ChiSquareUniform(points []mcmc.Point, bins int) (ChiSquare, error) {
	return chiSquare(points, bins, func(u0, v0, u1, v1 float64) float64 { return 1 })
}

// ChiSquareField tests points against the normalized density of field. The
// expected mass of each bin is estimated from a grid of midpoint lookups.
// For sampler output pass mcmc.Options.Target(field), which includes Height
// and Epsilon.
func ChiSquareField(points []mcmc.Point, field density.Field, bins int) (ChiSquare, error) {
	if field == nil {
		return ChiSquare{}, errors.New("diagnostics: nil field")
	}
	return chiSquare(points, bins, func(u0, v0, u1, v1 float64) float64 {
		var sum float64
		for j := 0; j < subSamples; j++ {
			v := v0 + (v1-v0)*(float64(j)+0.5)/subSamples
			for i := 0; i < subSamples; i++ {
				u := u0 + (u1-u0)*(float64(i)+0.5)/subSamples
				sum += field.Density(u, v)
			}
		}
		return sum
	})
}

func chiSquare(points []mcmc.Point, bins int, mass func(u0, v0, u1, v1 float64) float64) (ChiSquare, error) {
	if bins < 1 {
		return ChiSquare{}, fmt.Errorf("diagnostics: bins %d must be at least 1", bins)
	}
	if len(points) == 0 {
		return ChiSquare{}, ErrNoSamples
	}

	counts := make([]float64, bins*bins)
	for _, p := range points {
		bx := clampBin(int(p.X*float64(bins)), bins)
		by := clampBin(int(p.Y*float64(bins)), bins)
		counts[by*bins+bx]++
	}

	weights := make([]float64, bins*bins)
	var total float64
	step := 1 / float64(bins)
	for by := 0; by < bins; by++ {
		for bx := 0; bx < bins; bx++ {
			w := mass(float64(bx)*step, float64(by)*step, float64(bx+1)*step, float64(by+1)*step)
			weights[by*bins+bx] = w
			total += w
		}
	}
	if total <= 0 {
		return ChiSquare{}, errors.New("diagnostics: field has no mass")
	}

	n := float64(len(points))
	obs := make([]float64, 0, len(counts))
	exp := make([]float64, 0, len(counts))
	for i, w := range weights {
		if w <= 0 {
			if counts[i] > 0 {
				// Samples where the target has no mass: reject outright.
				return ChiSquare{Stat: math.Inf(1), DF: len(counts) - 1, PValue: 0}, nil
			}
			continue
		}
		obs = append(obs, counts[i])
		exp = append(exp, n*w/total)
	}

	res := ChiSquare{
		Stat: stat.ChiSquare(obs, exp),
		DF:   len(obs) - 1,
	}
	if res.DF < 1 {
		res.PValue = 1
		return res, nil
	}
	res.PValue = distuv.ChiSquared{K: float64(res.DF)}.Survival(res.Stat)
	return res, nil
}

// clampBin keeps points outside [0,1) in the edge bins.
func clampBin(i, bins int) int {
	return max(0, min(i, bins-1))
}
