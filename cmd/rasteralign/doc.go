// Package main hosts the rasteralign CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, builds the structured
// logger and hands each invocation to the internal packages: align runs the
// batch pipeline, grid inspects the reference grid a batch would get,
// rasterize and preview work on single files, diff compares a time series and
// history reads the run ledger.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through a dedicated command or flag here.
package main
