package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Any violation is a fatal
// startup error; values are never silently corrected.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateThresholds(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateMatching() error {
	weights := map[string]float64{
		"matching.weight_postal":            c.Matching.WeightPostal,
		"matching.weight_subjects":          c.Matching.WeightSubjects,
		"matching.weight_levels":            c.Matching.WeightLevels,
		"matching.weight_rate":              c.Matching.WeightRate,
		"matching.weight_temporal":          c.Matching.WeightTemporal,
		"matching.weight_code":              c.Matching.WeightCode,
		"matching.weight_time_availability": c.Matching.WeightTimeAvailability,
	}
	for name, weight := range weights {
		if weight < 0 {
			return fmt.Errorf("%s must be non-negative (got %v)", name, weight)
		}
	}
	if c.Matching.TimeWindowDays <= 0 {
		return fmt.Errorf("matching.time_window_days must be positive (got %d)", c.Matching.TimeWindowDays)
	}
	if c.Matching.FuzzyPostalTolerance < 0 {
		return fmt.Errorf("matching.fuzzy_postal_tolerance must be non-negative (got %d)", c.Matching.FuzzyPostalTolerance)
	}
	return nil
}

func (c *Config) validateThresholds() error {
	t := c.Thresholds
	if t.High <= t.Medium || t.Medium <= t.Low {
		return fmt.Errorf("thresholds must be ordered high > medium > low (got %v/%v/%v)", t.High, t.Medium, t.Low)
	}
	if t.Low < 0 || t.High > 100 {
		return fmt.Errorf("thresholds must lie within [0, 100] (got %v/%v/%v)", t.High, t.Medium, t.Low)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PassIntervalMinutes <= 0 {
		return errors.New("workflow.pass_interval_minutes must be positive")
	}
	if c.Workflow.CommitRetries <= 0 {
		return errors.New("workflow.commit_retries must be positive")
	}
	if c.Workflow.ScoreWorkers < 0 {
		return errors.New("workflow.score_workers must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
