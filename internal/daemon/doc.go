// Package daemon runs the consolidation engine as a long-lived background
// process: it enforces single-instance execution with a file lock and
// schedules recurring detection passes.
package daemon
