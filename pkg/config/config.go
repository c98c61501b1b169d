package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/marmos91/edge-agent/internal/bytesize"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the edge engine configuration.
//
// This structure captures the static configuration of the collection and
// inspection engine:
//   - Logging configuration
//   - Telemetry/tracing configuration
//   - Prometheus metrics server configuration
//   - Engine configuration (RDBM memory budget, ACT size, queue capacities)
//   - Data fetch manager configuration
//   - Last-known-state inspector configuration
//
// Collection schemes, state templates and decoder manifests are dynamic
// configuration delivered over the ingestion channel at runtime; this
// structure only governs process-level bootstrap behavior.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (EDGE_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Engine configures the collection and inspection engine: RDBM memory
	// budget, ACT size, evaluator limits, and queue capacities.
	Engine EngineConfig `mapstructure:"engine" yaml:"engine"`

	// Fetch configures the data fetch manager.
	Fetch FetchConfig `mapstructure:"fetch" yaml:"fetch"`

	// LKSI configures the last-known-state inspector.
	LKSI LKSIConfig `mapstructure:"lksi" yaml:"lksi"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// EngineConfig configures the collection and inspection engine.
type EngineConfig struct {
	// MaxSampleMemory is the raw data buffer manager's memory quota for
	// variable-length sample payloads (STRING signals, DTC snapshots,
	// fetched blobs). Supports human-readable formats: "64MiB", "256Mi".
	MaxSampleMemory bytesize.ByteSize `mapstructure:"max_sample_memory" yaml:"max_sample_memory,omitempty"`

	// MaxActiveConditions sets the width of the history store's
	// per-buffer subscribed-conditions and per-sample consumed bitmaps,
	// and of the engine's fetch-condition bitmap. The number of conditions
	// in an inspection matrix is not checked against it.
	MaxActiveConditions int `mapstructure:"max_active_conditions" validate:"omitempty,min=1" yaml:"max_active_conditions"`

	// HistoryDefaultCapacity is loaded and validated but not passed to the
	// engine: a history buffer whose condition references request no
	// capacity gets a ring of one sample.
	HistoryDefaultCapacity int `mapstructure:"history_default_capacity" validate:"omitempty,min=1" yaml:"history_default_capacity"`

	// SignalQueueCapacity is the bounded multi-producer queue capacity for
	// the signal intake queue feeding the inspection worker.
	SignalQueueCapacity int `mapstructure:"signal_queue_capacity" validate:"omitempty,min=1" yaml:"signal_queue_capacity"`

	// OutputQueueCapacity is the bounded queue capacity for assembled
	// payloads awaiting the external sender.
	OutputQueueCapacity int `mapstructure:"output_queue_capacity" validate:"omitempty,min=1" yaml:"output_queue_capacity"`

	// EvalRecursionLimit is loaded and validated but not passed to the
	// engine: the evaluator the engine builds uses eval's default depth of
	// 64, past which evaluation yields eval.ErrStackOverflow.
	EvalRecursionLimit int `mapstructure:"eval_recursion_limit" validate:"omitempty,min=1" yaml:"eval_recursion_limit"`

	// FloatEpsilon is loaded and validated but not passed to the engine:
	// the evaluator's EQ/NEQ comparisons use a fixed tolerance of 1e-3,
	// and its relational comparisons use none.
	FloatEpsilon float64 `mapstructure:"float_epsilon" validate:"omitempty,gt=0" yaml:"float_epsilon"`
}

// FetchConfig configures the data fetch manager's periodic and
// event-driven scheduling loop.
type FetchConfig struct {
	// Enabled controls whether the data fetch manager runs at all.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// QueueCapacity is the bounded queue depth for fetch requests raised
	// by condition evaluation (FETCH_REQUEST nodes).
	QueueCapacity int `mapstructure:"queue_capacity" validate:"omitempty,min=1" yaml:"queue_capacity"`

	// MinPeriodicInterval is loaded but not passed to the fetch manager,
	// which schedules every periodic entry at its own FrequencyMs.
	MinPeriodicInterval time.Duration `mapstructure:"min_periodic_interval" yaml:"min_periodic_interval"`
}

// LKSIConfig configures the last-known-state inspector.
type LKSIConfig struct {
	// Enabled controls whether the last-known-state inspector runs.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// DBPath is the BadgerDB directory used to persist the state template
	// activation list across restarts.
	DBPath string `mapstructure:"db_path" validate:"required_with=Enabled" yaml:"db_path,omitempty"`

	// CommandQueueCapacity bounds the ACTIVATE/DEACTIVATE/FETCH_SNAPSHOT
	// command queue.
	CommandQueueCapacity int `mapstructure:"command_queue_capacity" validate:"omitempty,min=1" yaml:"command_queue_capacity"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (EDGE_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists
	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	// If no config file was found, use defaults
	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	// Unmarshal into config struct with custom decode hooks
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions if not.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: User-friendly error with instructions if config not found
func MustLoad(configPath string) (*Config, error) {
	// Determine config path
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please create a configuration file at that location,\n"+
				"or specify a custom config file:\n"+
				"  edge-agent <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file at that path.",
				configPath)
		}
	}

	// Load configuration
	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path.
// The configuration is saved in YAML format using proper yaml tags.
func SaveConfig(cfg *Config, path string) error {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Use yaml.Marshal directly to respect yaml tags
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file with restricted permissions (0600 = owner read/write only).
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Set up environment variable support
	// Environment variables use EDGE_ prefix and underscores
	// Example: EDGE_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("EDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Configure config file search
	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/edge-agent/config.yaml
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		// Check if error is "config file not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		// Also check for os.PathError when explicit config file doesn't exist
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
// This includes ByteSize and time.Duration parsing.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook returns a mapstructure decode hook that converts strings
// and integers to bytesize.ByteSize. This enables config files to use human-readable
// sizes like "1Gi", "500Mi", "100MB", or plain numbers.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "edge-agent")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "edge-agent")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
