package align

import (
	"rasteralign/internal/geo"
	"rasteralign/internal/raster"
)

// ValidExtent returns the bounding box, in the raster's own CRS, of every
// pixel that is not nodata. The box spans the outer edges of the edge
// pixels, so a fully valid raster yields its complete footprint.
func ValidExtent(r *raster.Raster) (geo.Extent, error) {
	rows, cols := r.Dims()
	rowMin, rowMax := rows, -1
	colMin, colMax := cols, -1
	for i := range rows {
		for j := range cols {
			if !r.IsValid(r.At(i, j)) {
				continue
			}
			rowMin = min(rowMin, i)
			rowMax = max(rowMax, i)
			colMin = min(colMin, j)
			colMax = max(colMax, j)
		}
	}
	if rowMax < 0 {
		return geo.Extent{}, Wrap(ErrNoValidData, "valid extent", r.Path, nil)
	}
	return r.Transform.Window(colMin, rowMin, colMax+1, rowMax+1, r.CRS), nil
}

// TransformedExtent returns the valid extent of r expressed in target. Only
// the four corners are transformed; a raster without a CRS is assumed to be
// in target already.
func TransformedExtent(r *raster.Raster, target geo.CRS) (geo.Extent, error) {
	ext, err := ValidExtent(r)
	if err != nil {
		return geo.Extent{}, err
	}
	src := r.CRS
	if src.IsZero() {
		src = target
	}
	t, err := geo.NewTransformer(src, target)
	if err != nil {
		return geo.Extent{}, err
	}
	return ext.Transform(t, target)
}
