// Package series compares consecutive rasters of a time series.
//
// Aligned rasters in one directory are ordered by the first four-digit year
// in their file name, and the absolute difference of each consecutive pair is
// written next to the series as <name>_diff.asc.
package series
