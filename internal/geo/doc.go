// Package geo holds the coordinate primitives shared by the raster and vector
// layers: coordinate reference systems, affine geotransforms, axis-aligned
// extents, and point transformers between reference systems.
//
// CRS values are identified by their EPSG authority code when one can be
// determined. A small registry maps the common codes to proj4 definitions so
// transformers can be built without a PROJ database; anything else falls back
// to parsing the definition text that accompanied the file.
package geo
