// Package warp resamples a raster onto a destination grid, reprojecting on
// the fly.
//
// Destination cells are sampled at their centres through the inverse of the
// source geotransform. Nearest, bilinear and area-weighted average sampling
// are supported; source cells without data never contribute, and a
// destination cell that receives nothing is set to the destination nodata.
package warp
