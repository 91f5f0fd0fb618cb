package align

import (
	"errors"
	"math"

	"rasteralign/internal/geo"
	"rasteralign/internal/raster"
)

// Candidate is one raster's transformed valid extent.
type Candidate struct {
	Path   string
	Extent geo.Extent
	Area   float64
}

// Skipped records an input that could not contribute an extent.
type Skipped struct {
	Path string
	Err  error
}

// ReferenceSelection is the outcome of SelectReferenceExtent.
type ReferenceSelection struct {
	Extent     geo.Extent
	Source     string
	Candidates []Candidate
	Skipped    []Skipped
}

// SelectReferenceExtent returns the smallest-area transformed valid extent
// among rasters. Ties keep the earliest raster. Rasters with no valid data or
// whose extent cannot be transformed are skipped.
func SelectReferenceExtent(rasters []*raster.Raster, target geo.CRS) (ReferenceSelection, error) {
	var sel ReferenceSelection
	best := -1
	for _, r := range rasters {
		ext, err := TransformedExtent(r, target)
		if err != nil {
			sel.Skipped = append(sel.Skipped, Skipped{Path: r.Path, Err: err})
			continue
		}
		c := Candidate{Path: r.Path, Extent: ext, Area: ext.Area()}
		sel.Candidates = append(sel.Candidates, c)
		if best < 0 || c.Area < sel.Candidates[best].Area {
			best = len(sel.Candidates) - 1
		}
	}
	if best < 0 {
		cause := errors.New("no input raster has valid data")
		if len(rasters) == 0 {
			cause = errors.New("no input rasters")
		}
		return sel, Wrap(ErrNoReferenceExtent, "select reference extent", "", cause)
	}
	sel.Extent = sel.Candidates[best].Extent
	sel.Source = sel.Candidates[best].Path
	return sel, nil
}

// NativePixelSize returns the absolute pixel width of r. ok is false when
// the geotransform cannot address pixels.
func NativePixelSize(r *raster.Raster) (float64, bool) {
	if r == nil || !r.Transform.Valid() {
		return 0, false
	}
	size := r.Transform.PixelSize()
	if !(size > 0) || math.IsInf(size, 0) {
		return 0, false
	}
	return size, true
}

// SelectResolution returns the finest native pixel size among rasters.
// Rasters with an unusable geotransform are skipped.
func SelectResolution(rasters []*raster.Raster) (float64, error) {
	res := math.Inf(1)
	for _, r := range rasters {
		if size, ok := NativePixelSize(r); ok {
			res = math.Min(res, size)
		}
	}
	if math.IsInf(res, 1) {
		return 0, Wrap(ErrNoResolution, "select resolution", "", errors.New("no input raster has a usable geotransform"))
	}
	return res, nil
}
