package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/pinning/config"
	"github.com/pthm-cable/pinning/diagnostics"
	"github.com/pthm-cable/pinning/mcmc"
)

func TestNewOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatal(err)
	}
	if om != nil {
		t.Fatal("expected nil manager for empty dir")
	}
	// Nil manager methods are no-ops.
	if err := om.WriteSamples([]SampleRecord{{}}); err != nil {
		t.Error(err)
	}
	if err := om.WriteChain(ChainRecord{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("expected empty dir")
	}
}

func TestOutputManagerWrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	result := mcmc.ChainResult{
		Chain:    1,
		Seed:     11,
		Points:   []mcmc.Point{{X: 0.25, Y: 0.5}, {X: 0.75, Y: 0.125}},
		Counters: mcmc.Counters{Proposed: 4, Accepted: 3},
	}

	// Two writes: header only once.
	if err := om.WriteSamples(SampleRecords(0, result)); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteSamples(SampleRecords(1, result)); err != nil {
		t.Fatal(err)
	}
	summary := diagnostics.Summarize(result.Points)
	if err := om.WriteChain(NewChainRecord(0, result, summary, diagnostics.ChiSquare{Stat: 1.5, DF: 3, PValue: 0.7})); err != nil {
		t.Fatal(err)
	}
	if err := om.WritePerf(PerfStats{PhasePct: map[string]float64{}}, 0); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	var samples []SampleRecord
	readCSV(t, filepath.Join(dir, "samples.csv"), &samples)
	if len(samples) != 4 {
		t.Fatalf("read %d samples, want 4", len(samples))
	}
	if samples[3] != (SampleRecord{Run: 1, Chain: 1, Index: 1, X: 0.75, Y: 0.125}) {
		t.Errorf("last sample = %+v", samples[3])
	}

	var chains []ChainRecord
	readCSV(t, filepath.Join(dir, "chains.csv"), &chains)
	if len(chains) != 1 {
		t.Fatalf("read %d chain records, want 1", len(chains))
	}
	if chains[0].AcceptanceRate != 0.75 || chains[0].Samples != 2 || chains[0].DF != 3 {
		t.Errorf("chain record = %+v", chains[0])
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config snapshot missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "perf.csv")); err != nil {
		t.Errorf("perf.csv missing: %v", err)
	}
}

func readCSV(t *testing.T, path string, out any) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := gocsv.UnmarshalFile(f, out); err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
}
