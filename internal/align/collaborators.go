package align

import (
	"context"

	"rasteralign/internal/raster"
	"rasteralign/internal/vector"
	"rasteralign/internal/warp"
)

// RasterStore opens and creates rasters by path.
type RasterStore interface {
	Open(path string) (*raster.Raster, error)
	Create(path string, r *raster.Raster) error
}

// Warper reprojects, crops and resamples the raster at src onto the grid in
// opts, writing the result to dst.
type Warper interface {
	Warp(ctx context.Context, src, dst string, opts warp.Options) error
}

// VectorStore opens vector layers by path.
type VectorStore interface {
	OpenLayer(path string) (*vector.Layer, error)
}

var (
	_ RasterStore = raster.FileStore{}
	_ Warper      = (*warp.FileWarper)(nil)
	_ VectorStore = vector.ShapefileStore{}
)
