package config

import (
	"strings"
	"time"
)

// Default resource limits, mirroring the reference C implementation's
// compile-time constants (app_config.h: MAX_NUM_LOCATORS, MAX_NUM_TAGS,
// MAX_NUM_SEQUENCE_IDS, MAX_SEQUENCE_DIFF).
const (
	DefaultMaxLocators     = 6
	DefaultMaxTags         = 50
	DefaultMaxSequenceIDs  = 6
	DefaultMaxSequenceDiff = 20

	DefaultEstimationMode            = "three_dim_high_accuracy"
	DefaultEstimationIntervalSec     = 0.1
	DefaultEstimationFilteringAmount = 0.1
)

// ApplyDefaults sets default values for any unspecified configuration fields.
func ApplyDefaults(cfg *Config) {
	applyLimitsDefaults(&cfg.Limits)
	applyEstimationDefaults(&cfg.Estimation)
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyTelemetryDefaults(&cfg.Telemetry)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}

// applyLimitsDefaults fills in the reference implementation's resource caps.
func applyLimitsDefaults(cfg *LimitsConfig) {
	if cfg.MaxLocators == 0 {
		cfg.MaxLocators = DefaultMaxLocators
	}
	if cfg.MaxTags == 0 {
		cfg.MaxTags = DefaultMaxTags
	}
	if cfg.MaxSequenceIDs == 0 {
		cfg.MaxSequenceIDs = DefaultMaxSequenceIDs
	}
	if cfg.MaxSequenceDiff == 0 {
		cfg.MaxSequenceDiff = DefaultMaxSequenceDiff
	}
}

// applyEstimationDefaults fills in the estimator's tunables, matching the
// reference implementation's ESTIMATION_MODE/ESTIMATION_INTERVAL_SEC/
// FILTERING_AMOUNT defaults.
func applyEstimationDefaults(cfg *EstimationConfig) {
	if cfg.Mode == "" {
		cfg.Mode = DefaultEstimationMode
	}
	if cfg.IntervalSec == 0 {
		cfg.IntervalSec = DefaultEstimationIntervalSec
	}
	if cfg.FilteringAmount == 0 {
		cfg.FilteringAmount = DefaultEstimationFilteringAmount
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyMetricsDefaults sets metrics server defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyTelemetryDefaults sets OpenTelemetry and Pyroscope defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope continuous profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
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

// GetDefaultConfig returns a Config with all default values applied and a
// single-locator topology, useful for tests and documentation. It does not
// set MultilocatorID/Broker/Locators[0].ID to anything meaningful beyond
// placeholders - callers loading from a real file always get those from
// the file itself.
func GetDefaultConfig() *Config {
	cfg := &Config{
		MultilocatorID: "ml-01",
		Broker:         "localhost:1883",
		Locators: []LocatorConfig{
			{ID: "loc-a"},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
