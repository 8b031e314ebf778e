// Package config loads, validates, and defaults the engine configuration.
//
// Configuration lives in a TOML file (default ~/.config/corral/config.toml,
// overridable with the CORRAL_CONFIG environment variable or a --config
// flag). All weights, thresholds, and windows have documented defaults;
// invalid values are fatal at startup, never silently clamped. The resolved
// Config value is immutable for the duration of a detection pass and is
// passed explicitly to every component — nothing reads configuration from
// ambient global scope.
package config
