package testsupport

import (
	"path/filepath"
	"testing"

	"corral/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithThresholds overrides the confidence thresholds on the test config.
func WithThresholds(high, medium, low float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Thresholds.High = high
		cfg.Thresholds.Medium = medium
		cfg.Thresholds.Low = low
	}
}

// WithTimeWindowDays overrides the candidate time window on the test config.
func WithTimeWindowDays(days int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Matching.TimeWindowDays = days
	}
}
