// Package pipeline runs one alignment batch end to end.
//
// A run discovers rasters and vectors under an input root, reprojects
// rasters into the target CRS inside a run-scoped staging directory, derives
// (or reuses) the reference grid, moves every raster onto it, burns every
// vector layer onto it and mirrors the results under the output root. Each
// file ends with its own FileOutcome; only failures that prevent a grid from
// forming abort the batch. Runs take an exclusive lock on the output root,
// are recorded in the ledger, and optionally export metrics and publish
// their outputs.
package pipeline
