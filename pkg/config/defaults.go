package config

import (
	"strings"
	"time"

	"github.com/marmos91/edge-agent/internal/bytesize"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyEngineDefaults(&cfg.Engine)
	applyFetchDefaults(&cfg.Fetch)
	applyLKSIDefaults(&cfg.LKSI)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in for telemetry)

	// Default endpoint is localhost:4317 (standard OTLP gRPC port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	// Default sample rate is 1.0 (sample all traces)
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	// Enabled defaults to false (opt-in for profiling)

	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics)
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyEngineDefaults sets inspection engine defaults.
func applyEngineDefaults(cfg *EngineConfig) {
	if cfg.MaxSampleMemory == 0 {
		cfg.MaxSampleMemory = bytesize.ByteSize(64 * bytesize.MiB)
	}
	if cfg.MaxActiveConditions == 0 {
		cfg.MaxActiveConditions = 256
	}
	if cfg.HistoryDefaultCapacity == 0 {
		cfg.HistoryDefaultCapacity = 32
	}
	if cfg.SignalQueueCapacity == 0 {
		cfg.SignalQueueCapacity = 4096
	}
	if cfg.OutputQueueCapacity == 0 {
		cfg.OutputQueueCapacity = 256
	}
	if cfg.EvalRecursionLimit == 0 {
		cfg.EvalRecursionLimit = 64
	}
	if cfg.FloatEpsilon == 0 {
		cfg.FloatEpsilon = 1e-3
	}
}

// applyFetchDefaults sets data fetch manager defaults.
func applyFetchDefaults(cfg *FetchConfig) {
	if cfg.QueueCapacity == 0 {
		cfg.QueueCapacity = 256
	}
	if cfg.MinPeriodicInterval == 0 {
		cfg.MinPeriodicInterval = 1 * time.Second
	}
}

// applyLKSIDefaults sets last-known-state inspector defaults.
func applyLKSIDefaults(cfg *LKSIConfig) {
	if cfg.DBPath == "" && cfg.Enabled {
		cfg.DBPath = "/var/lib/edge-agent/lksi"
	}
	if cfg.CommandQueueCapacity == 0 {
		cfg.CommandQueueCapacity = 64
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
