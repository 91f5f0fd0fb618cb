package raster

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"rasteralign/internal/geo"
)

// Raster is a single-band georeferenced grid held in memory. Band rows run
// top to bottom in the direction of the geotransform's row axis. A nil Band
// describes a grid with no cells.
type Raster struct {
	Path      string
	CRS       geo.CRS
	Transform geo.GeoTransform
	NoData    float64
	HasNoData bool
	Band      *mat.Dense
}

// New allocates a zero-filled raster of the given shape.
func New(rows, cols int, transform geo.GeoTransform, crs geo.CRS) *Raster {
	r := &Raster{CRS: crs, Transform: transform}
	if rows > 0 && cols > 0 {
		r.Band = mat.NewDense(rows, cols, nil)
	}
	return r
}

// Dims returns rows and columns.
func (r *Raster) Dims() (rows, cols int) {
	if r.Band == nil {
		return 0, 0
	}
	return r.Band.Dims()
}

func (r *Raster) Rows() int {
	rows, _ := r.Dims()
	return rows
}

func (r *Raster) Cols() int {
	_, cols := r.Dims()
	return cols
}

func (r *Raster) At(row, col int) float64 {
	return r.Band.At(row, col)
}

func (r *Raster) Set(row, col int, v float64) {
	r.Band.Set(row, col, v)
}

// SetNoData marks v as the no-data sentinel.
func (r *Raster) SetNoData(v float64) {
	r.NoData = v
	r.HasNoData = true
}

// IsValid reports whether v is a data value. NaN is never data; the nodata
// sentinel is not data when one is set.
func (r *Raster) IsValid(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	return !r.HasNoData || v != r.NoData
}

// Fill sets every cell to v.
func (r *Raster) Fill(v float64) {
	if r.Band == nil {
		return
	}
	rows, cols := r.Band.Dims()
	for i := range rows {
		for j := range cols {
			r.Band.Set(i, j, v)
		}
	}
}

// Footprint returns the full grid extent.
func (r *Raster) Footprint() geo.Extent {
	rows, cols := r.Dims()
	return r.Transform.Footprint(cols, rows, r.CRS)
}

// PixelCentre returns the world coordinate of the centre of (row, col).
func (r *Raster) PixelCentre(row, col int) (x, y float64) {
	return r.Transform.Apply(float64(col)+0.5, float64(row)+0.5)
}

// ValidValues collects every data value in row-major order.
func (r *Raster) ValidValues() []float64 {
	rows, cols := r.Dims()
	out := make([]float64, 0, rows*cols)
	for i := range rows {
		for j := range cols {
			if v := r.Band.At(i, j); r.IsValid(v) {
				out = append(out, v)
			}
		}
	}
	return out
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	out := *r
	if r.Band != nil {
		out.Band = mat.DenseCopyOf(r.Band)
	}
	return &out
}
