// Package config provides configuration loading and access for the sampler CLI.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// EnvPrefix prefixes every environment override, e.g. PINNING_SAMPLER_STD_DEV.
const EnvPrefix = "PINNING_"

// Field sources.
const (
	SourceNoise = "noise"
	SourceImage = "image"
)

// Config holds all sampling configuration parameters.
type Config struct {
	Sampler     SamplerConfig     `yaml:"sampler" envPrefix:"SAMPLER_"`
	Sequence    SequenceConfig    `yaml:"sequence" envPrefix:"SEQUENCE_"`
	Field       FieldConfig       `yaml:"field" envPrefix:"FIELD_"`
	Chains      ChainsConfig      `yaml:"chains" envPrefix:"CHAINS_"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics" envPrefix:"DIAGNOSTICS_"`
	Output      OutputConfig      `yaml:"output" envPrefix:"OUTPUT_"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SamplerConfig holds the Metropolis walk parameters.
type SamplerConfig struct {
	StdDev     float64 `yaml:"std_dev" env:"STD_DEV"`         // Proposal spread along x (y is scaled by aspect)
	Height     float64 `yaml:"height" env:"HEIGHT"`           // Density multiplier
	Epsilon    float64 `yaml:"epsilon" env:"EPSILON"`         // Additive density floor
	ResetLimit int     `yaml:"reset_limit" env:"RESET_LIMIT"` // Max uniform draws when placing a chain
}

// SequenceConfig holds the per-chain sequence protocol.
type SequenceConfig struct {
	BurnIn int `yaml:"burn_in" env:"BURN_IN"` // Steps discarded after reset
	Count  int `yaml:"count" env:"COUNT"`     // Samples emitted per chain
	Skip   int `yaml:"skip" env:"SKIP"`       // Extra steps discarded between samples
}

// FieldConfig selects and configures the density field.
type FieldConfig struct {
	Source  string      `yaml:"source" env:"SOURCE"`     // "noise" or "image"
	Image   string      `yaml:"image" env:"IMAGE"`       // Probability map path when source is image
	Channel string      `yaml:"channel" env:"CHANNEL"`   // red, green, blue, alpha, luminance
	MaxSize int         `yaml:"max_size" env:"MAX_SIZE"` // Downsample images above this side length (0 = never)
	Noise   NoiseConfig `yaml:"noise" envPrefix:"NOISE_"`
}

// NoiseConfig holds procedural probability map parameters.
type NoiseConfig struct {
	Width      int     `yaml:"width" env:"WIDTH"`
	Height     int     `yaml:"height" env:"HEIGHT"`
	Scale      float64 `yaml:"scale" env:"SCALE"`           // Base noise frequency
	Octaves    int     `yaml:"octaves" env:"OCTAVES"`       // FBM octaves (detail level)
	Lacunarity float64 `yaml:"lacunarity" env:"LACUNARITY"` // Frequency multiplier per octave
	Gain       float64 `yaml:"gain" env:"GAIN"`             // Amplitude multiplier per octave
	Contrast   float64 `yaml:"contrast" env:"CONTRAST"`     // FBM contrast exponent (higher = sparser patches)
	Seed       uint32  `yaml:"seed" env:"SEED"`
}

// ChainsConfig holds parallel chain settings.
type ChainsConfig struct {
	Count   int    `yaml:"count" env:"COUNT"`
	Seed    uint64 `yaml:"seed" env:"SEED"`       // Chain i uses seed+i (0 = time-based)
	Workers int    `yaml:"workers" env:"WORKERS"` // 0 = GOMAXPROCS
}

// DiagnosticsConfig holds goodness-of-fit settings.
type DiagnosticsConfig struct {
	Bins int `yaml:"bins" env:"BINS"` // Chi-square grid is bins x bins
}

// OutputConfig holds output settings.
type OutputConfig struct {
	Dir        string `yaml:"dir" env:"DIR"`                 // CSV output directory (empty = disabled)
	PerfWindow int    `yaml:"perf_window" env:"PERF_WINDOW"` // Runs averaged by the perf collector
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	StepsPerChain int // BurnIn + Count*(Skip+1)
	TotalSamples  int // Chains.Count * Sequence.Count
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults,
// then applies PINNING_* environment overrides.
// If path is empty, only embedded defaults and the environment are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Unset variables leave loaded values untouched
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	// Validate also computes derived values
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values the sampler cannot run with and recomputes Derived,
// so callers that override fields after Load must call it again.
func (c *Config) Validate() error {
	switch {
	case c.Sampler.StdDev <= 0:
		return fmt.Errorf("config: sampler.std_dev must be positive, got %v", c.Sampler.StdDev)
	case c.Sequence.BurnIn < 0 || c.Sequence.Count < 0 || c.Sequence.Skip < 0:
		return fmt.Errorf("config: sequence values must be non-negative")
	case c.Chains.Count < 1:
		return fmt.Errorf("config: chains.count must be at least 1, got %d", c.Chains.Count)
	case c.Diagnostics.Bins < 1:
		return fmt.Errorf("config: diagnostics.bins must be at least 1, got %d", c.Diagnostics.Bins)
	}

	switch c.Field.Source {
	case SourceNoise:
	case SourceImage:
		if c.Field.Image == "" {
			return fmt.Errorf("config: field.image is required when field.source is %q", SourceImage)
		}
	default:
		return fmt.Errorf("config: unknown field.source %q", c.Field.Source)
	}

	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.StepsPerChain = c.Sequence.BurnIn + c.Sequence.Count*(c.Sequence.Skip+1)
	c.Derived.TotalSamples = c.Chains.Count * c.Sequence.Count
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
