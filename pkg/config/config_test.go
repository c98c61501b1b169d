package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "does-not-exist.yaml")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("expected default logging format text, got %q", cfg.Logging.Format)
	}
	if cfg.Engine.MaxActiveConditions != 256 {
		t.Errorf("expected default max active conditions 256, got %d", cfg.Engine.MaxActiveConditions)
	}
	if cfg.Engine.FloatEpsilon != 1e-3 {
		t.Errorf("expected default float epsilon 1e-3, got %v", cfg.Engine.FloatEpsilon)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "DEBUG"
  format: "json"
  output: "stdout"

engine:
  max_sample_memory: 128Mi
  max_active_conditions: 64
  eval_recursion_limit: 32

fetch:
  enabled: true
  min_periodic_interval: 500ms

lksi:
  enabled: true
  db_path: "` + filepath.ToSlash(tmpDir) + `/lksi"

shutdown_timeout: 5s
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected logging level DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Engine.MaxActiveConditions != 64 {
		t.Errorf("expected max active conditions 64, got %d", cfg.Engine.MaxActiveConditions)
	}
	if cfg.Engine.MaxSampleMemory != 128*1024*1024 {
		t.Errorf("expected max sample memory 128Mi, got %d", cfg.Engine.MaxSampleMemory)
	}
	if cfg.Fetch.MinPeriodicInterval != 500*time.Millisecond {
		t.Errorf("expected min periodic interval 500ms, got %v", cfg.Fetch.MinPeriodicInterval)
	}
	if !cfg.LKSI.Enabled {
		t.Error("expected lksi enabled")
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("expected shutdown timeout 5s, got %v", cfg.ShutdownTimeout)
	}
}

func TestValidate_RejectsBadLoggingLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "TRACE"

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for invalid logging level")
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("expected default config to validate, got: %v", err)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("expected config path to end in config.yaml, got %q", path)
	}
}
