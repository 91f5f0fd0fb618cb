package align

import (
	"context"
	"fmt"
	"math"

	"rasteralign/internal/raster"
	"rasteralign/internal/vector"
)

// Rasterizer burns vector layers onto a ReferenceGrid. BurnValue must be
// finite and differ from OutputNoData.
type Rasterizer struct {
	Vectors   VectorStore
	Store     RasterStore
	BurnValue float64
}

// ValidBurnValue reports whether v can mark burned pixels apart from the
// nodata fill.
func ValidBurnValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v != OutputNoData
}

// Rasterize returns a raster with the grid's shape whose pixels are
// BurnValue where a geometry of layer touches them and 0 (nodata) elsewhere.
// Polygons claim the pixels whose centre is inside them or on their boundary.
func (z *Rasterizer) Rasterize(layer *vector.Layer, grid ReferenceGrid) (*raster.Raster, error) {
	if err := grid.Validate(); err != nil {
		return nil, Wrap(ErrRasterizeFailed, "grid", layer.Path, err)
	}
	if !ValidBurnValue(z.BurnValue) {
		return nil, Wrap(ErrRasterizeFailed, "burn value", layer.Path,
			fmt.Errorf("%g collides with nodata %g or is not finite", z.BurnValue, OutputNoData))
	}
	cols, rows := grid.Dims()
	out := raster.New(rows, cols, grid.GeoTransform(), grid.CRS)
	out.SetNoData(OutputNoData)
	out.Fill(OutputNoData)

	projected, err := layer.Transform(grid.CRS)
	if err != nil {
		return nil, Wrap(ErrRasterizeFailed, "transform layer", layer.Path, err)
	}
	if err := vector.Burn(out, projected, z.BurnValue); err != nil {
		return nil, Wrap(ErrRasterizeFailed, "burn", layer.Path, err)
	}
	return out, nil
}

// RasterizeFile opens the layer at src, rasterizes it onto grid and writes
// the result to dst.
func (z *Rasterizer) RasterizeFile(ctx context.Context, src, dst string, grid ReferenceGrid) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	layer, err := z.Vectors.OpenLayer(src)
	if err != nil {
		return Wrap(ErrRasterizeFailed, "open layer", src, err)
	}
	out, err := z.Rasterize(layer, grid)
	if err != nil {
		return err
	}
	out.Path = dst
	if err := z.Store.Create(dst, out); err != nil {
		return Wrap(ErrRasterizeFailed, "write", dst, fmt.Errorf("create raster: %w", err))
	}
	return nil
}
