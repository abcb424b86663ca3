// Package telemetry records sampling runs: CSV output of samples and chain
// summaries, and run timing.
package telemetry

import (
	"github.com/pthm-cable/pinning/diagnostics"
	"github.com/pthm-cable/pinning/mcmc"
)

// SampleRecord is one emitted sample.
type SampleRecord struct {
	Run   int     `csv:"run"`
	Chain int     `csv:"chain"`
	Index int     `csv:"index"`
	X     float64 `csv:"x"`
	Y     float64 `csv:"y"`
}

// ChainRecord summarizes one chain of one run.
type ChainRecord struct {
	Run            int     `csv:"run"`
	Chain          int     `csv:"chain"`
	Seed           uint64  `csv:"seed"`
	Samples        int     `csv:"samples"`
	Proposed       int     `csv:"proposed"`
	Accepted       int     `csv:"accepted"`
	AcceptanceRate float64 `csv:"acceptance_rate"`
	ResetAttempts  int     `csv:"reset_attempts"`
	XMean          float64 `csv:"x_mean"`
	XStd           float64 `csv:"x_std"`
	XAC1           float64 `csv:"x_ac1"`
	YMean          float64 `csv:"y_mean"`
	YStd           float64 `csv:"y_std"`
	YAC1           float64 `csv:"y_ac1"`
	Chi2           float64 `csv:"chi2"`
	DF             int     `csv:"df"`
	PValue         float64 `csv:"p_value"`
}

// SampleRecords flattens a chain result.
func SampleRecords(run int, r mcmc.ChainResult) []SampleRecord {
	records := make([]SampleRecord, len(r.Points))
	for i, p := range r.Points {
		records[i] = SampleRecord{Run: run, Chain: r.Chain, Index: i, X: p.X, Y: p.Y}
	}
	return records
}

// NewChainRecord combines a chain result with its diagnostics.
func NewChainRecord(run int, r mcmc.ChainResult, s diagnostics.Summary, fit diagnostics.ChiSquare) ChainRecord {
	return ChainRecord{
		Run:            run,
		Chain:          r.Chain,
		Seed:           r.Seed,
		Samples:        len(r.Points),
		Proposed:       r.Counters.Proposed,
		Accepted:       r.Counters.Accepted,
		AcceptanceRate: r.Counters.AcceptanceRate(),
		ResetAttempts:  r.Counters.ResetAttempts,
		XMean:          s.X.Mean,
		XStd:           s.X.Std,
		XAC1:           s.X.AC1,
		YMean:          s.Y.Mean,
		YStd:           s.Y.Std,
		YAC1:           s.Y.AC1,
		Chi2:           fit.Stat,
		DF:             fit.DF,
		PValue:         fit.PValue,
	}
}
