package diagnostics

import (
	"math"
	"testing"

	"github.com/pthm-cable/pinning/mcmc"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeAxisStats(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	s := ComputeAxisStats(values)

	if math.Abs(s.Mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", s.Mean)
	}
	// Population std of 0.1..1.0
	if math.Abs(s.Std-0.2872) > 0.001 {
		t.Errorf("std = %v, want ~0.2872", s.Std)
	}
	if math.Abs(s.P10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", s.P10)
	}
	if math.Abs(s.P50-0.55) > 0.01 {
		t.Errorf("p50 = %v, want ~0.55", s.P50)
	}
	if math.Abs(s.P90-0.91) > 0.01 {
		t.Errorf("p90 = %v, want ~0.91", s.P90)
	}
	// A monotone ramp is strongly autocorrelated.
	if s.AC1 < 0.5 {
		t.Errorf("ac1 = %v, want > 0.5", s.AC1)
	}
}

func TestComputeAxisStatsEmpty(t *testing.T) {
	if s := ComputeAxisStats(nil); s != (AxisStats{}) {
		t.Errorf("empty stats = %+v, want zero", s)
	}
}

func TestAutocorrelation(t *testing.T) {
	alternating := []float64{0, 1, 0, 1, 0, 1, 0, 1}
	if ac := Autocorrelation(alternating, 1); ac > -0.5 {
		t.Errorf("alternating lag-1 ac = %v, want strongly negative", ac)
	}
	if ac := Autocorrelation(alternating, 2); ac < 0.5 {
		t.Errorf("alternating lag-2 ac = %v, want strongly positive", ac)
	}
	if ac := Autocorrelation([]float64{3, 3, 3}, 1); ac != 0 {
		t.Errorf("constant ac = %v, want 0", ac)
	}
	if ac := Autocorrelation([]float64{1, 2}, 5); ac != 0 {
		t.Errorf("out-of-range lag ac = %v, want 0", ac)
	}
}

func TestSummarize(t *testing.T) {
	points := []mcmc.Point{{X: 0.1, Y: 0.9}, {X: 0.3, Y: 0.7}, {X: 0.5, Y: 0.5}}
	s := Summarize(points)
	if s.Count != 3 {
		t.Errorf("count = %d, want 3", s.Count)
	}
	if math.Abs(s.X.Mean-0.3) > 1e-12 || math.Abs(s.Y.Mean-0.7) > 1e-12 {
		t.Errorf("means = (%v, %v), want (0.3, 0.7)", s.X.Mean, s.Y.Mean)
	}
	if s.X.P50 != 0.3 || s.Y.P50 != 0.7 {
		t.Errorf("medians = (%v, %v), want (0.3, 0.7)", s.X.P50, s.Y.P50)
	}
}
