// Package config loads devpulse's run configuration: scheduler and clone
// tunables, the resume/cache locations, the metric heuristics SPEC_FULL.md
// §9 asks to expose rather than hard-code, and terminal output preferences.
// Adapted from the teacher's pkg/config (koanf-backed, TOML/YAML/JSON,
// search-path discovery, Validate before use) narrowed to the knobs
// devpulse's components actually read, since devpulse has no
// analyzer/threshold/duplicate-detection surface to configure.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for devpulse.
type Config struct {
	// Scheduler controls the memory-aware job scheduler (§4.6).
	Scheduler SchedulerConfig `koanf:"scheduler" toml:"scheduler"`

	// Clone controls repository access (§6.2).
	Clone CloneConfig `koanf:"clone" toml:"clone"`

	// Resume controls cache/resume file locations (§6.3).
	Resume ResumeConfig `koanf:"resume" toml:"resume"`

	// Metrics holds the named heuristic constants spec.md §9 leaves open
	// (DiffDelta overlap weight, provenance bootstrap age).
	Metrics MetricsConfig `koanf:"metrics" toml:"metrics"`

	// Traversal controls the commit-stream writer (§4.4).
	Traversal TraversalConfig `koanf:"traversal" toml:"traversal"`

	// Output controls terminal rendering.
	Output OutputConfig `koanf:"output" toml:"output"`
}

// SchedulerConfig controls worker count and memory backoff (§4.6).
type SchedulerConfig struct {
	Workers      int   `koanf:"workers" toml:"workers"`             // 0 = auto (min(4, NumCPU-1))
	MemoryCapMB  int64 `koanf:"memory_cap_mb" toml:"memory_cap_mb"`   // force-GC threshold
	MemoryFloorMB int64 `koanf:"memory_floor_mb" toml:"memory_floor_mb"` // resume-after-GC threshold
	JoinTimeoutSeconds int `koanf:"join_timeout_seconds" toml:"join_timeout_seconds"`
}

// CloneConfig controls repository access (§6.2).
type CloneConfig struct {
	WorkDir                string `koanf:"work_dir" toml:"work_dir"`
	ReachabilityTimeoutSeconds int `koanf:"reachability_timeout_seconds" toml:"reachability_timeout_seconds"`
	RetryBudget            int    `koanf:"retry_budget" toml:"retry_budget"` // §7 transient-retry budget
}

// ResumeConfig controls the two resume files (§6.3).
type ResumeConfig struct {
	OutputRoot string `koanf:"output_root" toml:"output_root"`
	CacheDir   string `koanf:"cache_dir" toml:"cache_dir"`
}

// MetricsConfig mirrors metrics.Config's fields so a devpulse.toml can
// override the heuristic constants without importing internal/metrics
// from the config package (kept as plain fields, converted at the call
// site in cmd/devpulse).
type MetricsConfig struct {
	DiffDeltaUpdateWeight  float64 `koanf:"diff_delta_update_weight" toml:"diff_delta_update_weight"`
	ProvenanceBootstrapAge int     `koanf:"provenance_bootstrap_age" toml:"provenance_bootstrap_age"`
}

// TraversalConfig controls the streaming commit writer's flush cadence
// (spec.md §4.4 step 3d: batch the commit_stream array, default 1000).
type TraversalConfig struct {
	BatchSize int `koanf:"batch_size" toml:"batch_size"` // 0 uses traversal's own default
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Color   bool `koanf:"color" toml:"color"`
	Verbose bool `koanf:"verbose" toml:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			Workers:            0,
			MemoryCapMB:        1536,
			MemoryFloorMB:      1024,
			JoinTimeoutSeconds: 60,
		},
		Clone: CloneConfig{
			WorkDir:                    ".devpulse/repos",
			ReachabilityTimeoutSeconds: 5,
			RetryBudget:                2,
		},
		Resume: ResumeConfig{
			OutputRoot: "output",
			CacheDir:   ".devpulse/cache",
		},
		Metrics: MetricsConfig{
			DiffDeltaUpdateWeight:  0.8,
			ProvenanceBootstrapAge: 60,
		},
		Traversal: TraversalConfig{
			BatchSize: 1000,
		},
		Output: OutputConfig{
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file, starting from defaults so any
// field the file omits keeps its default value.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches standard locations for a devpulse config file.
// Returns the path if found, or empty string if not found.
func FindConfigFile() string {
	names := []string{"devpulse.toml", "devpulse.yaml", "devpulse.yml", "devpulse.json"}
	dirs := []string{".", ".devpulse"}

	for _, dir := range dirs {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOption configures how configuration is loaded.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
}

// WithPath specifies an explicit config file path. If the path doesn't
// exist, LoadConfig returns an error.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// LoadResult contains the loaded configuration and its source.
type LoadResult struct {
	Config *Config
	Source string // path to the config file, empty if using defaults
}

// LoadConfig loads configuration with the provided options, searching
// standard locations when no explicit path is given, and falls back to
// defaults when nothing is found. Always validates before returning.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	var cfg *Config
	var source string
	var err error

	if o.path != "" {
		if _, statErr := os.Stat(o.path); os.IsNotExist(statErr) {
			return nil, fmt.Errorf("config file not found: %s", o.path)
		}
		cfg, err = Load(o.path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", o.path, err)
		}
		source = o.path
	} else {
		source = FindConfigFile()
		if source == "" {
			cfg = DefaultConfig()
		} else {
			cfg, err = Load(source)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", source, err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &LoadResult{Config: cfg, Source: source}, nil
}

// LoadOrDefault loads config from standard locations or returns defaults.
// Returns an error only if a discovered config file fails validation.
func LoadOrDefault() (*Config, error) {
	result, err := LoadConfig()
	if err != nil {
		if FindConfigFile() == "" {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return result.Config, nil
}

// Validate checks that all config values are within acceptable ranges.
func (c *Config) Validate() error {
	var errs []error

	if c.Scheduler.Workers < 0 {
		errs = append(errs, errors.New("scheduler.workers must be non-negative"))
	}
	if c.Scheduler.MemoryCapMB <= 0 {
		errs = append(errs, errors.New("scheduler.memory_cap_mb must be positive"))
	}
	if c.Scheduler.MemoryFloorMB <= 0 {
		errs = append(errs, errors.New("scheduler.memory_floor_mb must be positive"))
	}
	if c.Scheduler.MemoryFloorMB > c.Scheduler.MemoryCapMB {
		errs = append(errs, errors.New("scheduler.memory_floor_mb must not exceed scheduler.memory_cap_mb"))
	}
	if c.Scheduler.JoinTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("scheduler.join_timeout_seconds must be positive"))
	}

	if c.Clone.ReachabilityTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("clone.reachability_timeout_seconds must be positive"))
	}
	if c.Clone.RetryBudget < 0 {
		errs = append(errs, errors.New("clone.retry_budget must be non-negative"))
	}

	if c.Resume.OutputRoot == "" {
		errs = append(errs, errors.New("resume.output_root must not be empty"))
	}
	if c.Resume.CacheDir == "" {
		errs = append(errs, errors.New("resume.cache_dir must not be empty"))
	}

	if c.Metrics.DiffDeltaUpdateWeight < 0 || c.Metrics.DiffDeltaUpdateWeight > 1 {
		errs = append(errs, errors.New("metrics.diff_delta_update_weight must be between 0 and 1"))
	}
	if c.Metrics.ProvenanceBootstrapAge < 0 {
		errs = append(errs, errors.New("metrics.provenance_bootstrap_age must be non-negative"))
	}

	if c.Traversal.BatchSize < 0 {
		errs = append(errs, errors.New("traversal.batch_size must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
