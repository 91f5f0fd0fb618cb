// Package raster models single-band georeferenced grids and moves them on
// and off disk.
//
// Cell values live in a gonum dense matrix. FileStore handles ESRI ASCII
// grids in both directions and reads PNG images georeferenced by a world
// file; in every case the coordinate reference system is carried by a .prj
// sidecar next to the data file.
package raster
