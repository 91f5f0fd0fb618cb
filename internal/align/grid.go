package align

import (
	"errors"
	"fmt"
	"math"

	"rasteralign/internal/geo"
	"rasteralign/internal/raster"
)

// ReferenceGrid is the shared target of a run: every aligned output is
// expressed in CRS on square pixels of size Resolution, inside Extent.
type ReferenceGrid struct {
	Extent     geo.Extent
	Resolution float64
	CRS        geo.CRS
}

// Validate checks that the grid can address at least one pixel.
func (g ReferenceGrid) Validate() error {
	if !(g.Resolution > 0) || math.IsInf(g.Resolution, 0) {
		return fmt.Errorf("grid resolution %g must be positive and finite", g.Resolution)
	}
	if g.Extent.IsEmpty() {
		return errors.New("grid extent is empty")
	}
	cols, rows := g.Dims()
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("grid extent %s is smaller than one %g pixel", g.Extent, g.Resolution)
	}
	return nil
}

// Dims returns the pixel columns and rows spanned by the reference extent,
// each rounded to the nearest integer.
func (g ReferenceGrid) Dims() (cols, rows int) {
	return int(math.Round(g.Extent.Width() / g.Resolution)), int(math.Round(g.Extent.Height() / g.Resolution))
}

// GeoTransform anchors the grid at the reference extent's top-left corner.
func (g ReferenceGrid) GeoTransform() geo.GeoTransform {
	return geo.NorthUp(g.Extent.XMin, g.Extent.YMax, g.Resolution)
}

// BuildReferenceGrid selects the reference extent and resolution for
// rasters, which must already be in target.
func BuildReferenceGrid(rasters []*raster.Raster, target geo.CRS) (ReferenceGrid, ReferenceSelection, error) {
	sel, err := SelectReferenceExtent(rasters, target)
	if err != nil {
		return ReferenceGrid{}, sel, err
	}
	res, err := SelectResolution(rasters)
	if err != nil {
		return ReferenceGrid{}, sel, err
	}
	grid := ReferenceGrid{Extent: sel.Extent, Resolution: res, CRS: target}
	grid.Extent.CRS = target
	return grid, sel, nil
}
