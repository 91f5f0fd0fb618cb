// Package metrics collects per-run counters for rasteralign and exports them
// in the Prometheus text format.
//
// A Recorder owns its own registry so tests and repeated runs in one process
// never share state. WriteTextfile is meant for the node_exporter textfile
// collector: the file is replaced atomically after each run.
package metrics
