// Package vector loads vector layers and burns them into rasters.
//
// Shapefiles are decoded with ctessum/geom; each layer keeps the CRS from its
// .prj sidecar and can be reprojected before burning.
package vector
