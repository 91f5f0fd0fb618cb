package warp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom/proj"

	"rasteralign/internal/geo"
	"rasteralign/internal/raster"
)

// Algorithm selects how destination cells are sampled from the source.
type Algorithm string

const (
	Nearest  Algorithm = "nearest"
	Bilinear Algorithm = "bilinear"
	Average  Algorithm = "average"
)

var (
	// ErrEmptyGrid is returned when the requested bounds and resolution
	// round to a grid with no cells.
	ErrEmptyGrid = errors.New("output grid has no cells")
	// ErrInvalidResolution is returned for a non-positive or non-finite
	// resolution.
	ErrInvalidResolution = errors.New("invalid output resolution")
)

// Options describe the destination grid of a warp. Bounds must be expressed
// in DstCRS; cells that receive no source data are set to DstNoData.
type Options struct {
	DstCRS     geo.CRS
	Bounds     geo.Extent
	Resolution float64
	Algorithm  Algorithm
	DstNoData  float64
}

// Dims returns the destination column and row counts: the bounds divided by
// the resolution, rounded to the nearest integer.
func (o Options) Dims() (cols, rows int) {
	return int(math.Round(o.Bounds.Width() / o.Resolution)), int(math.Round(o.Bounds.Height() / o.Resolution))
}

// Resample produces a new raster on the grid described by opts.
func Resample(ctx context.Context, src *raster.Raster, opts Options) (*raster.Raster, error) {
	if !(opts.Resolution > 0) || math.IsInf(opts.Resolution, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidResolution, opts.Resolution)
	}
	cols, rows := opts.Dims()
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: %dx%d from %s at %g", ErrEmptyGrid, cols, rows, opts.Bounds, opts.Resolution)
	}
	if opts.Algorithm == "" {
		opts.Algorithm = Nearest
	}
	inv, ok := src.Transform.Invert()
	if !ok {
		return nil, fmt.Errorf("source geotransform is not invertible")
	}
	// A side without any CRS is taken to share the other's coordinates.
	toSrc := proj.Transformer(geo.Identity)
	if !src.CRS.IsZero() && !opts.DstCRS.IsZero() {
		t, err := geo.NewTransformer(opts.DstCRS, src.CRS)
		if err != nil {
			return nil, err
		}
		toSrc = t
	}

	dst := raster.New(rows, cols, geo.NorthUp(opts.Bounds.XMin, opts.Bounds.YMax, opts.Resolution), opts.DstCRS)
	dst.SetNoData(opts.DstNoData)
	s := sampler{src: src, inv: inv, toSrc: toSrc}
	for i := range rows {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for j := range cols {
			v, ok := s.cell(opts.Algorithm, dst.Transform, i, j)
			if !ok {
				v = opts.DstNoData
			}
			dst.Set(i, j, v)
		}
	}
	return dst, nil
}

// SuggestGrid proposes bounds and resolution for reprojecting src into dst.
// The resolution keeps the pixel count along the raster diagonal unchanged.
func SuggestGrid(src *raster.Raster, dst geo.CRS) (geo.Extent, float64, error) {
	t, err := geo.NewTransformer(src.CRS, dst)
	if err != nil {
		return geo.Extent{}, 0, err
	}
	bounds, err := src.Footprint().Transform(t, dst)
	if err != nil {
		return geo.Extent{}, 0, err
	}
	rows, cols := src.Dims()
	diagonal := math.Hypot(float64(cols), float64(rows))
	if diagonal == 0 || bounds.IsEmpty() {
		return geo.Extent{}, 0, ErrEmptyGrid
	}
	res := math.Hypot(bounds.Width(), bounds.Height()) / diagonal
	return bounds, res, nil
}

type sampler struct {
	src   *raster.Raster
	inv   geo.GeoTransform
	toSrc proj.Transformer
}

// sourcePixel maps a destination world coordinate to fractional source
// pixel coordinates.
func (s sampler) sourcePixel(x, y float64) (float64, float64, bool) {
	sx, sy, err := s.toSrc(x, y)
	if err != nil || math.IsNaN(sx) || math.IsNaN(sy) {
		return 0, 0, false
	}
	col, row := s.inv.Apply(sx, sy)
	return col, row, true
}

func (s sampler) cell(alg Algorithm, dstGT geo.GeoTransform, row, col int) (float64, bool) {
	switch alg {
	case Average:
		return s.average(dstGT, row, col)
	case Bilinear:
		x, y := dstGT.Apply(float64(col)+0.5, float64(row)+0.5)
		pc, pr, ok := s.sourcePixel(x, y)
		if !ok {
			return 0, false
		}
		return s.bilinear(pc, pr)
	default:
		x, y := dstGT.Apply(float64(col)+0.5, float64(row)+0.5)
		pc, pr, ok := s.sourcePixel(x, y)
		if !ok {
			return 0, false
		}
		return s.nearest(pc, pr)
	}
}

func (s sampler) value(row, col int) (float64, bool) {
	rows, cols := s.src.Dims()
	if row < 0 || col < 0 || row >= rows || col >= cols {
		return 0, false
	}
	v := s.src.At(row, col)
	return v, s.src.IsValid(v)
}

func (s sampler) nearest(pc, pr float64) (float64, bool) {
	return s.value(int(math.Floor(pr)), int(math.Floor(pc)))
}

// bilinear interpolates between the four surrounding pixel centres,
// renormalising the weights over neighbours that hold data.
func (s sampler) bilinear(pc, pr float64) (float64, bool) {
	rows, cols := s.src.Dims()
	if pc < 0 || pr < 0 || pc > float64(cols) || pr > float64(rows) {
		return 0, false
	}
	u, v := pc-0.5, pr-0.5
	c0, r0 := math.Floor(u), math.Floor(v)
	fx, fy := u-c0, v-r0
	var sum, weight float64
	for _, n := range [4]struct {
		dr, dc int
		w      float64
	}{
		{0, 0, (1 - fx) * (1 - fy)},
		{0, 1, fx * (1 - fy)},
		{1, 0, (1 - fx) * fy},
		{1, 1, fx * fy},
	} {
		if n.w <= 0 {
			continue
		}
		val, ok := s.value(int(r0)+n.dr, int(c0)+n.dc)
		if !ok {
			continue
		}
		sum += val * n.w
		weight += n.w
	}
	if weight == 0 {
		return 0, false
	}
	return sum / weight, true
}

// average takes the area-weighted mean of the source pixels covered by the
// destination cell's footprint.
func (s sampler) average(dstGT geo.GeoTransform, row, col int) (float64, bool) {
	minC, minR := math.Inf(1), math.Inf(1)
	maxC, maxR := math.Inf(-1), math.Inf(-1)
	for _, corner := range [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		x, y := dstGT.Apply(float64(col)+corner[0], float64(row)+corner[1])
		pc, pr, ok := s.sourcePixel(x, y)
		if !ok {
			return 0, false
		}
		minC, maxC = math.Min(minC, pc), math.Max(maxC, pc)
		minR, maxR = math.Min(minR, pr), math.Max(maxR, pr)
	}
	rows, cols := s.src.Dims()
	minC, maxC = math.Max(minC, 0), math.Min(maxC, float64(cols))
	minR, maxR = math.Max(minR, 0), math.Min(maxR, float64(rows))
	if minC >= maxC || minR >= maxR {
		return 0, false
	}
	var sum, weight float64
	for r := int(math.Floor(minR)); float64(r) < maxR; r++ {
		h := math.Min(float64(r+1), maxR) - math.Max(float64(r), minR)
		if h <= 0 {
			continue
		}
		for c := int(math.Floor(minC)); float64(c) < maxC; c++ {
			w := math.Min(float64(c+1), maxC) - math.Max(float64(c), minC)
			if w <= 0 {
				continue
			}
			val, ok := s.value(r, c)
			if !ok {
				continue
			}
			sum += val * w * h
			weight += w * h
		}
	}
	if weight == 0 {
		return 0, false
	}
	return sum / weight, true
}
