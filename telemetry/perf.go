package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one sampling run.
const (
	PhaseField       = "field"
	PhaseSampling    = "sampling"
	PhaseDiagnostics = "diagnostics"
	PhaseOutput      = "output"
)

// PerfSample holds timing data for a single run.
type PerfSample struct {
	RunDuration time.Duration
	Steps       int
	Phases      map[string]time.Duration
}

// PerfCollector tracks run timings over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	runStart      time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of runs to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 16
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartRun begins timing a new run.
func (p *PerfCollector) StartRun() {
	p.runStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndRun finishes timing the current run and records it with the number of
// Metropolis steps it performed.
func (p *PerfCollector) EndRun(steps int) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
		p.lastPhase = ""
	}

	p.samples[p.writeIndex] = PerfSample{
		RunDuration: now.Sub(p.runStart),
		Steps:       steps,
		Phases:      p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgRunDuration time.Duration
	MinRunDuration time.Duration
	MaxRunDuration time.Duration

	// Phase percentages of total run time
	PhasePct map[string]float64

	// Metropolis steps per second of sampling phase time
	StepsPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{PhasePct: make(map[string]float64)}
	}

	var total, minRun, maxRun, sampling time.Duration
	var steps int
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.RunDuration
		steps += s.Steps

		if i == 0 || s.RunDuration < minRun {
			minRun = s.RunDuration
		}
		if s.RunDuration > maxRun {
			maxRun = s.RunDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}
	sampling = phaseSum[PhaseSampling]

	phasePct := make(map[string]float64)
	if total > 0 {
		for phase, sum := range phaseSum {
			phasePct[phase] = float64(sum) / float64(total) * 100
		}
	}

	var stepsPerSec float64
	if sampling > 0 {
		stepsPerSec = float64(steps) / sampling.Seconds()
	}

	return PerfStats{
		AvgRunDuration: total / time.Duration(p.sampleCount),
		MinRunDuration: minRun,
		MaxRunDuration: maxRun,
		PhasePct:       phasePct,
		StepsPerSecond: stepsPerSec,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_run_us", s.AvgRunDuration.Microseconds()),
		slog.Int64("min_run_us", s.MinRunDuration.Microseconds()),
		slog.Int64("max_run_us", s.MaxRunDuration.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	}
	for _, phase := range []string{PhaseField, PhaseSampling, PhaseDiagnostics, PhaseOutput} {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Run            int     `csv:"run"`
	AvgRunUS       int64   `csv:"avg_run_us"`
	MinRunUS       int64   `csv:"min_run_us"`
	MaxRunUS       int64   `csv:"max_run_us"`
	StepsPerSec    float64 `csv:"steps_per_sec"`
	FieldPct       float64 `csv:"field_pct"`
	SamplingPct    float64 `csv:"sampling_pct"`
	DiagnosticsPct float64 `csv:"diagnostics_pct"`
	OutputPct      float64 `csv:"output_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(run int) PerfStatsCSV {
	return PerfStatsCSV{
		Run:            run,
		AvgRunUS:       s.AvgRunDuration.Microseconds(),
		MinRunUS:       s.MinRunDuration.Microseconds(),
		MaxRunUS:       s.MaxRunDuration.Microseconds(),
		StepsPerSec:    s.StepsPerSecond,
		FieldPct:       s.PhasePct[PhaseField],
		SamplingPct:    s.PhasePct[PhaseSampling],
		DiagnosticsPct: s.PhasePct[PhaseDiagnostics],
		OutputPct:      s.PhasePct[PhaseOutput],
	}
}
