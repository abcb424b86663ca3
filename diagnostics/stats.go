// Package diagnostics summarizes sample sets and tests them against a target
// density.
package diagnostics

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/pinning/mcmc"
)

// AxisStats holds distribution statistics for one coordinate.
type AxisStats struct {
	Mean float64 `csv:"mean"`
	Std  float64 `csv:"std"`
	P10  float64 `csv:"p10"`
	P50  float64 `csv:"p50"`
	P90  float64 `csv:"p90"`
	// Lag-1 autocorrelation in sample order
	AC1 float64 `csv:"ac1"`
}

// Summary describes a sample set.
type Summary struct {
	Count int
	X     AxisStats
	Y     AxisStats
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Autocorrelation returns the sample autocorrelation of xs at the given lag.
// Returns 0 when it is undefined.
func Autocorrelation(xs []float64, lag int) float64 {
	n := len(xs)
	if lag < 0 || lag >= n || n < 2 {
		return 0
	}
	mean := stat.Mean(xs, nil)

	var num, den float64
	for i, x := range xs {
		d := x - mean
		den += d * d
		if i+lag < n {
			num += d * (xs[i+lag] - mean)
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// ComputeAxisStats calculates mean, std, percentiles and lag-1
// autocorrelation of values.
func ComputeAxisStats(values []float64) AxisStats {
	if len(values) == 0 {
		return AxisStats{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return AxisStats{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
		AC1:  Autocorrelation(values, 1),
	}
}

// Summarize computes per-axis statistics of points.
func Summarize(points []mcmc.Point) Summary {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return Summary{
		Count: len(points),
		X:     ComputeAxisStats(xs),
		Y:     ComputeAxisStats(ys),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("count", s.Count),
		slog.Float64("x_mean", s.X.Mean),
		slog.Float64("x_std", s.X.Std),
		slog.Float64("x_p50", s.X.P50),
		slog.Float64("x_ac1", s.X.AC1),
		slog.Float64("y_mean", s.Y.Mean),
		slog.Float64("y_std", s.Y.Std),
		slog.Float64("y_p50", s.Y.P50),
		slog.Float64("y_ac1", s.Y.AC1),
	)
}
