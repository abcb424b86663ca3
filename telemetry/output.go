package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/pinning/config"
)

// OutputManager handles run output with CSV logging.
type OutputManager struct {
	dir         string
	samplesFile *os.File
	chainsFile  *os.File
	perfFile    *os.File

	// Track if headers have been written
	samplesHeaderWritten bool
	chainsHeaderWritten  bool
	perfHeaderWritten    bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	var err error
	if om.samplesFile, err = os.Create(filepath.Join(dir, "samples.csv")); err != nil {
		return nil, fmt.Errorf("creating samples.csv: %w", err)
	}
	if om.chainsFile, err = os.Create(filepath.Join(dir, "chains.csv")); err != nil {
		om.samplesFile.Close()
		return nil, fmt.Errorf("creating chains.csv: %w", err)
	}
	if om.perfFile, err = os.Create(filepath.Join(dir, "perf.csv")); err != nil {
		om.samplesFile.Close()
		om.chainsFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteSamples appends sample records to samples.csv.
func (om *OutputManager) WriteSamples(records []SampleRecord) error {
	if om == nil || len(records) == 0 {
		return nil
	}
	if err := writeCSV(records, om.samplesFile, &om.samplesHeaderWritten); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	return nil
}

// WriteChain appends a chain summary to chains.csv.
func (om *OutputManager) WriteChain(r ChainRecord) error {
	if om == nil {
		return nil
	}
	if err := writeCSV([]ChainRecord{r}, om.chainsFile, &om.chainsHeaderWritten); err != nil {
		return fmt.Errorf("writing chain: %w", err)
	}
	return nil
}

// WritePerf appends a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, run int) error {
	if om == nil {
		return nil
	}
	if err := writeCSV([]PerfStatsCSV{stats.ToCSV(run)}, om.perfFile, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// writeCSV writes headers only on the first call for a file.
func writeCSV(records any, f *os.File, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.samplesFile, om.chainsFile, om.perfFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
