package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the multilocator aggregator configuration.
//
// This structure captures the static configuration of the process:
//   - Locator topology (immutable after MustLoad, per the core's
//     "immutable after load" invariant)
//   - Resource limits (MaxTags, MaxSequenceIDs, MaxSequenceDiff)
//   - Estimation tunables
//   - Logging, metrics, and telemetry configuration
//
// Configuration sources (in order of precedence):
//  1. Environment variables (MULTILOCATOR_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
type Config struct {
	// MultilocatorID identifies this aggregator instance. Used as the
	// egress topic prefix component and in log/metric labels.
	MultilocatorID string `mapstructure:"multilocator_id" validate:"required" yaml:"multilocator_id"`

	// Broker is the MQTT broker address, e.g. "localhost:1883".
	Broker string `mapstructure:"broker" validate:"required" yaml:"broker"`

	// Locators is the ordered list of locators this instance correlates
	// angle reports from. Immutable once loaded; at most MaxLocators.
	Locators []LocatorConfig `mapstructure:"locators" validate:"required,min=1,dive" yaml:"locators"`

	// Limits contains the resource caps carried from the reference design.
	Limits LimitsConfig `mapstructure:"limits" yaml:"limits"`

	// Estimation contains the position estimator's tunables.
	Estimation EstimationConfig `mapstructure:"estimation" yaml:"estimation"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Telemetry controls OpenTelemetry distributed tracing and Pyroscope
	// continuous profiling.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// LocatorConfig describes one physical locator's identity and placement.
// Placement (Coordinate/Orientation) is carried through to the estimator
// adapter; the core dispatcher only needs the ID.
type LocatorConfig struct {
	ID          string      `mapstructure:"id" validate:"required" yaml:"id"`
	Coordinate  Vector3     `mapstructure:"coordinate" yaml:"coordinate"`
	Orientation Vector3     `mapstructure:"orientation" yaml:"orientation"`
}

// Vector3 is a simple (x, y, z) tuple used for locator placement.
type Vector3 struct {
	X float64 `mapstructure:"x" yaml:"x"`
	Y float64 `mapstructure:"y" yaml:"y"`
	Z float64 `mapstructure:"z" yaml:"z"`
}

// LimitsConfig carries the resource caps from the reference C implementation
// (MAX_NUM_LOCATORS, MAX_NUM_TAGS, MAX_NUM_SEQUENCE_IDS, MAX_SEQUENCE_DIFF).
type LimitsConfig struct {
	// MaxLocators bounds len(Locators). Default: 6.
	MaxLocators int `mapstructure:"max_locators" validate:"omitempty,gt=0" yaml:"max_locators"`

	// MaxTags is the hard cap on concurrently tracked tags. Default: 50.
	MaxTags int `mapstructure:"max_tags" validate:"omitempty,gt=0" yaml:"max_tags"`

	// MaxSequenceIDs is the number of slots in each tag's window, i.e.
	// the number of distinct in-flight sequence numbers tracked per tag.
	// Default: 6.
	MaxSequenceIDs int `mapstructure:"max_sequence_ids" validate:"omitempty,gt=0" yaml:"max_sequence_ids"`

	// MaxSequenceDiff is the staleness cutoff for SequenceArithmetic.Diff.
	// Must be >= MaxSequenceIDs (validated in Validate). Default: 20.
	MaxSequenceDiff int `mapstructure:"max_sequence_diff" validate:"omitempty,gt=0" yaml:"max_sequence_diff"`
}

// EstimationConfig controls the position estimator.
type EstimationConfig struct {
	// Mode selects the estimator's operating mode. Valid values:
	// two_dim, three_dim, three_dim_high_accuracy.
	Mode string `mapstructure:"mode" validate:"omitempty,oneof=two_dim three_dim three_dim_high_accuracy" yaml:"mode"`

	// IntervalSec is the time step fed to the estimator between
	// successive position updates for the same tag, in seconds.
	// Default: 0.1.
	IntervalSec float64 `mapstructure:"interval_sec" validate:"omitempty,gt=0" yaml:"interval_sec"`

	// FilteringAmount is the per-axis low-pass filter coefficient applied
	// to estimator output, in [0, 1]. Default: 0.1.
	FilteringAmount float64 `mapstructure:"filtering_amount" validate:"omitempty,gte=0,lte=1" yaml:"filtering_amount"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are registered (zero overhead).
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the /metrics endpoint. Default: 9090 when
	// Enabled is true; left at 0 when metrics are disabled.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port).
	// Default: "localhost:4317".
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use a non-TLS connection.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate, 0.0 to 1.0.
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint. Default: "http://localhost:4040".
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect.
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (MULTILOCATOR_*)
//  2. Configuration file
//  3. Default values
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return nil, fmt.Errorf("no configuration file found at %q", configPath)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages. configPath must
// not be empty: the CLI's -c/--config flag is required (spec.md §6).
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates a Config using go-playground/validator struct tags,
// then checks cross-field invariants the struct tags can't express:
// MaxLocators vs len(Locators), and MaxSequenceDiff >= MaxSequenceIDs.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Limits.MaxLocators > 0 && len(cfg.Locators) > cfg.Limits.MaxLocators {
		return fmt.Errorf("locators: %d configured exceeds max_locators %d", len(cfg.Locators), cfg.Limits.MaxLocators)
	}

	if cfg.Limits.MaxSequenceDiff < cfg.Limits.MaxSequenceIDs {
		return fmt.Errorf("limits: max_sequence_diff (%d) must be >= max_sequence_ids (%d)",
			cfg.Limits.MaxSequenceDiff, cfg.Limits.MaxSequenceIDs)
	}

	seen := make(map[string]struct{}, len(cfg.Locators))
	for _, loc := range cfg.Locators {
		if _, dup := seen[loc.ID]; dup {
			return fmt.Errorf("locators: duplicate id %q", loc.ID)
		}
		seen[loc.ID] = struct{}{}
	}

	return nil
}

// setupViper configures viper with environment variable and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("MULTILOCATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns the combined mapstructure decode hook for
// time.Duration parsing.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook converts human-readable duration strings ("30s", "5m")
// to time.Duration during config unmarshal.
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

// SaveConfig saves the configuration to the specified file path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
