// Package logging assembles structured slog loggers and formatting helpers used
// across rasteralign.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with the run ID, the file being processed and the current stage.
// OpenRunLog tees a run's records into a JSON file next to its outputs. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
