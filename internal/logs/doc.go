// Package logs locates and reads the per-run JSON logs written by the
// pipeline.
//
// Tail streams a log file with bounded memory, supports a negative offset
// for "last N lines" reads and follow mode for a run still in progress.
// ParseRecord decodes one JSON line into a Record so the CLI can filter by
// level, stage or file before rendering.
package logs
