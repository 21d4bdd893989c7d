package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scheduler.MemoryCapMB != 1536 {
		t.Errorf("Scheduler.MemoryCapMB = %d, want 1536", cfg.Scheduler.MemoryCapMB)
	}
	if cfg.Scheduler.JoinTimeoutSeconds != 60 {
		t.Errorf("Scheduler.JoinTimeoutSeconds = %d, want 60", cfg.Scheduler.JoinTimeoutSeconds)
	}
	if cfg.Clone.RetryBudget != 2 {
		t.Errorf("Clone.RetryBudget = %d, want 2", cfg.Clone.RetryBudget)
	}
	if cfg.Resume.OutputRoot == "" {
		t.Error("Resume.OutputRoot should not be empty")
	}
	if cfg.Metrics.DiffDeltaUpdateWeight != 0.8 {
		t.Errorf("Metrics.DiffDeltaUpdateWeight = %f, want 0.8", cfg.Metrics.DiffDeltaUpdateWeight)
	}
	if cfg.Metrics.ProvenanceBootstrapAge != 60 {
		t.Errorf("Metrics.ProvenanceBootstrapAge = %d, want 60", cfg.Metrics.ProvenanceBootstrapAge)
	}
	if !cfg.Output.Color {
		t.Error("Output.Color should be true by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() should validate, got %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "devpulse.toml")

	content := `
[scheduler]
workers = 8
memory_cap_mb = 2048

[clone]
retry_budget = 5

[metrics]
diff_delta_update_weight = 0.6

[output]
color = false
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Scheduler.Workers != 8 {
		t.Errorf("Scheduler.Workers = %d, want 8", cfg.Scheduler.Workers)
	}
	if cfg.Scheduler.MemoryCapMB != 2048 {
		t.Errorf("Scheduler.MemoryCapMB = %d, want 2048", cfg.Scheduler.MemoryCapMB)
	}
	if cfg.Clone.RetryBudget != 5 {
		t.Errorf("Clone.RetryBudget = %d, want 5", cfg.Clone.RetryBudget)
	}
	if cfg.Metrics.DiffDeltaUpdateWeight != 0.6 {
		t.Errorf("Metrics.DiffDeltaUpdateWeight = %f, want 0.6", cfg.Metrics.DiffDeltaUpdateWeight)
	}
	if cfg.Output.Color {
		t.Error("Output.Color should be false")
	}
	// Fields the file omitted keep their default value.
	if cfg.Resume.CacheDir == "" {
		t.Error("Resume.CacheDir should still have its default value")
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "devpulse.yaml")

	content := `
scheduler:
  workers: 3
metrics:
  provenance_bootstrap_age: 90
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Scheduler.Workers != 3 {
		t.Errorf("Scheduler.Workers = %d, want 3", cfg.Scheduler.Workers)
	}
	if cfg.Metrics.ProvenanceBootstrapAge != 90 {
		t.Errorf("Metrics.ProvenanceBootstrapAge = %d, want 90", cfg.Metrics.ProvenanceBootstrapAge)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "devpulse.json")

	content := `{"resume": {"cache_dir": "/tmp/dp-cache"}}`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Resume.CacheDir != "/tmp/dp-cache" {
		t.Errorf("Resume.CacheDir = %s, want /tmp/dp-cache", cfg.Resume.CacheDir)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/devpulse.toml"); err == nil {
		t.Error("Load() should return an error for a non-existent file")
	}
}

func TestLoadConfig_FallsBackToDefaultsWhenNoFileFound(t *testing.T) {
	tmpDir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	result, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if result.Source != "" {
		t.Errorf("Source = %q, want empty (no config file found)", result.Source)
	}
	if result.Config.Scheduler.MemoryCapMB != DefaultConfig().Scheduler.MemoryCapMB {
		t.Error("LoadConfig() without a file should return defaults")
	}
}

func TestLoadConfig_ExplicitPathMustExist(t *testing.T) {
	if _, err := LoadConfig(WithPath("/nonexistent/devpulse.toml")); err == nil {
		t.Error("LoadConfig(WithPath(...)) should error when the path doesn't exist")
	}
}

func TestValidate_RejectsInvertedMemoryBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scheduler.MemoryFloorMB = cfg.Scheduler.MemoryCapMB + 1
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject memory_floor_mb > memory_cap_mb")
	}
}

func TestValidate_RejectsOutOfRangeDiffDeltaWeight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metrics.DiffDeltaUpdateWeight = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject diff_delta_update_weight outside [0,1]")
	}
}
