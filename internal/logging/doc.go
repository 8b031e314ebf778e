// Package logging assembles the structured slog loggers used across the
// consolidation engine.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and defines the standardized field keys (component, pass_id,
// group_id, record, ...) so every component emits data with the same shape.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
//
// Prefer these constructors over hand-rolled slog setup.
package logging
