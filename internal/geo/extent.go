package geo

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// Extent is an axis-aligned rectangle in the coordinates of CRS.
type Extent struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
	CRS  CRS     `json:"crs"`
}

// NewExtent orders the corner coordinates so that min <= max on both axes.
func NewExtent(x0, y0, x1, y1 float64, crs CRS) Extent {
	return Extent{
		XMin: math.Min(x0, x1),
		YMin: math.Min(y0, y1),
		XMax: math.Max(x0, x1),
		YMax: math.Max(y0, y1),
		CRS:  crs,
	}
}

// ExtentFromBounds converts a geometry bounding box.
func ExtentFromBounds(b *geom.Bounds, crs CRS) Extent {
	return NewExtent(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y, crs)
}

func (e Extent) Width() float64  { return e.XMax - e.XMin }
func (e Extent) Height() float64 { return e.YMax - e.YMin }

// Area is width times height in squared CRS units.
func (e Extent) Area() float64 {
	return e.Width() * e.Height()
}

// IsEmpty reports a degenerate or non-finite rectangle.
func (e Extent) IsEmpty() bool {
	for _, v := range e.Array() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return e.Width() <= 0 || e.Height() <= 0
}

// Contains reports whether other lies inside e, boundaries inclusive.
func (e Extent) Contains(other Extent) bool {
	return other.XMin >= e.XMin && other.XMax <= e.XMax &&
		other.YMin >= e.YMin && other.YMax <= e.YMax
}

// Intersects reports whether the two rectangles share any area.
func (e Extent) Intersects(other Extent) bool {
	return e.XMin < other.XMax && other.XMin < e.XMax &&
		e.YMin < other.YMax && other.YMin < e.YMax
}

// Array returns [xmin, ymin, xmax, ymax].
func (e Extent) Array() [4]float64 {
	return [4]float64{e.XMin, e.YMin, e.XMax, e.YMax}
}

// Corners lists (xmin,ymin), (xmin,ymax), (xmax,ymin), (xmax,ymax).
func (e Extent) Corners() [4]geom.Point {
	return [4]geom.Point{
		{X: e.XMin, Y: e.YMin},
		{X: e.XMin, Y: e.YMax},
		{X: e.XMax, Y: e.YMin},
		{X: e.XMax, Y: e.YMax},
	}
}

// Bounds converts the extent for use with geometry operations.
func (e Extent) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: e.XMin, Y: e.YMin},
		Max: geom.Point{X: e.XMax, Y: e.YMax},
	}
}

// Transform maps the four corners through t and returns their bounding box
// labelled with target.
func (e Extent) Transform(t proj.Transformer, target CRS) (Extent, error) {
	out := Extent{
		XMin: math.Inf(1), YMin: math.Inf(1),
		XMax: math.Inf(-1), YMax: math.Inf(-1),
		CRS: target,
	}
	for _, c := range e.Corners() {
		x, y, err := t(c.X, c.Y)
		if err != nil {
			return Extent{}, fmt.Errorf("transform corner (%g, %g): %w", c.X, c.Y, err)
		}
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return Extent{}, fmt.Errorf("transform corner (%g, %g): non-finite result", c.X, c.Y)
		}
		out.XMin = math.Min(out.XMin, x)
		out.YMin = math.Min(out.YMin, y)
		out.XMax = math.Max(out.XMax, x)
		out.YMax = math.Max(out.YMax, y)
	}
	return out, nil
}

func (e Extent) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g] %s", e.XMin, e.YMin, e.XMax, e.YMax, e.CRS)
}
