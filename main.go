package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/pinning/config"
	"github.com/pthm-cable/pinning/density"
	"github.com/pthm-cable/pinning/diagnostics"
	"github.com/pthm-cable/pinning/mcmc"
	"github.com/pthm-cable/pinning/probmap"
	"github.com/pthm-cable/pinning/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	imagePath := flag.String("image", "", "Probability map image (overrides field.source)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = config, then time-based)")
	chains := flag.Int("chains", 0, "Independent chains per run (0 = use config)")
	count := flag.Int("count", 0, "Samples per chain (0 = use config)")
	runs := flag.Int("runs", 1, "Sampling runs, each with fresh seeds")
	outputDir := flag.String("output-dir", "", "Directory for CSV output and config snapshot")
	verbose := flag.Bool("v", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *imagePath != "" {
		cfg.Field.Source = config.SourceImage
		cfg.Field.Image = *imagePath
	}
	if *seed != 0 {
		cfg.Chains.Seed = *seed
	}
	if cfg.Chains.Seed == 0 {
		cfg.Chains.Seed = uint64(time.Now().UnixNano())
	}
	if *chains > 0 {
		cfg.Chains.Count = *chains
	}
	if *count > 0 {
		cfg.Sequence.Count = *count
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, *runs); err != nil {
		slog.Error("sampling failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, runs int) error {
	om, err := telemetry.NewOutputManager(cfg.Output.Dir)
	if err != nil {
		return err
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		return err
	}

	perf := telemetry.NewPerfCollector(cfg.Output.PerfWindow)

	perf.StartRun()
	perf.StartPhase(telemetry.PhaseField)
	field, err := probmap.Build(cfg)
	if err != nil {
		return err
	}
	w, h := field.Size()
	slog.Info("density field ready",
		"source", cfg.Field.Source,
		"width", w,
		"height", h,
		"aspect", density.Aspect(field),
	)

	opts := mcmc.Options{
		StdDev:     cfg.Sampler.StdDev,
		Height:     cfg.Sampler.Height,
		Epsilon:    cfg.Sampler.Epsilon,
		ResetLimit: cfg.Sampler.ResetLimit,
	}

	slog.Info("starting sampling",
		"seed", cfg.Chains.Seed,
		"chains", cfg.Chains.Count,
		"runs", runs,
		"steps_per_chain", cfg.Derived.StepsPerChain,
	)

	for r := 0; r < runs; r++ {
		if r > 0 {
			perf.StartRun()
		}
		if err := sampleRun(ctx, cfg, field, opts, r, perf, om); err != nil {
			return err
		}
		perf.EndRun(cfg.Chains.Count * cfg.Derived.StepsPerChain)

		stats := perf.Stats()
		slog.Info("perf", "run", r, "stats", stats)
		if err := om.WritePerf(stats, r); err != nil {
			return err
		}
	}
	return nil
}

func sampleRun(ctx context.Context, cfg *config.Config, field density.Field, opts mcmc.Options, r int, perf *telemetry.PerfCollector, om *telemetry.OutputManager) error {
	perf.StartPhase(telemetry.PhaseSampling)
	results, err := mcmc.RunChains(ctx, mcmc.ChainSpec{
		Field:   field,
		Options: opts,
		Chains:  cfg.Chains.Count,
		Seed:    cfg.Chains.Seed + uint64(r*cfg.Chains.Count),
		BurnIn:  cfg.Sequence.BurnIn,
		Count:   cfg.Sequence.Count,
		Skip:    cfg.Sequence.Skip,
		Workers: cfg.Chains.Workers,
	})
	if err != nil {
		return err
	}

	perf.StartPhase(telemetry.PhaseDiagnostics)
	target := opts.Target(field)
	records := make([]telemetry.ChainRecord, len(results))
	for i, res := range results {
		summary := diagnostics.Summarize(res.Points)
		fit, err := diagnostics.ChiSquareField(res.Points, target, cfg.Diagnostics.Bins)
		if err != nil && len(res.Points) > 0 {
			slog.Warn("goodness of fit unavailable", "run", r, "chain", res.Chain, "error", err)
		}
		records[i] = telemetry.NewChainRecord(r, res, summary, fit)
		slog.Info("chain",
			"run", r,
			"chain", res.Chain,
			"acceptance_rate", res.Counters.AcceptanceRate(),
			"summary", summary,
			"fit", fit,
		)
	}

	perf.StartPhase(telemetry.PhaseOutput)
	for i, res := range results {
		if err := om.WriteSamples(telemetry.SampleRecords(r, res)); err != nil {
			return err
		}
		if err := om.WriteChain(records[i]); err != nil {
			return err
		}
	}
	return nil
}
