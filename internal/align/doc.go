// Package align computes a shared reference grid for a set of rasters and
// moves individual rasters and vector layers onto it.
//
// The grid is the smallest transformed valid-data extent among the inputs
// paired with the finest native pixel size. A raster whose own footprint
// covers the reference is cropped to it; a smaller raster keeps its own
// footprint and only has its CRS and resolution normalized, so no output
// ever claims coverage its source did not have. Vector layers are burned
// onto the same grid.
//
// File I/O and resampling are reached through the collaborator interfaces
// in collaborators.go so every step can be exercised against in-memory
// fakes.
package align
