package vector

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom"

	"rasteralign/internal/geo"
	"rasteralign/internal/raster"
)

// ErrUnsupportedGeometry is returned for geometry types Burn cannot draw.
var ErrUnsupportedGeometry = errors.New("unsupported geometry type")

// Burn writes value into every cell of target touched by the layer.
// Polygons claim the cells whose centre falls inside them or exactly on their
// boundary (polygons are closed sets), lines claim every
// cell they cross and points claim the cell that contains them. The layer
// must already be in the target's CRS.
func Burn(target *raster.Raster, layer *Layer, value float64) error {
	inv, ok := target.Transform.Invert()
	if !ok {
		return fmt.Errorf("target geotransform is not invertible")
	}
	b := burner{target: target, inv: inv, value: value}
	for i, g := range layer.Geometries {
		if err := b.draw(g); err != nil {
			return fmt.Errorf("geometry %d: %w", i, err)
		}
	}
	return nil
}

type burner struct {
	target *raster.Raster
	inv    geo.GeoTransform
	value  float64
}

func (b burner) draw(g geom.Geom) error {
	switch v := g.(type) {
	case geom.Point:
		b.point(v)
	case geom.MultiPoint:
		for _, p := range v {
			b.point(p)
		}
	case geom.LineString:
		b.line(v)
	case geom.MultiLineString:
		for _, l := range v {
			b.line(l)
		}
	case geom.GeometryCollection:
		for _, child := range v {
			if err := b.draw(child); err != nil {
				return err
			}
		}
	case geom.Polygonal:
		b.polygon(v)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedGeometry, g)
	}
	return nil
}

func (b burner) mark(col, row float64) {
	rows, cols := b.target.Dims()
	c, r := int(math.Floor(col)), int(math.Floor(row))
	if c < 0 || r < 0 || c >= cols || r >= rows {
		return
	}
	b.target.Set(r, c, b.value)
}

func (b burner) point(p geom.Point) {
	b.mark(b.inv.Apply(p.X, p.Y))
}

// line walks each segment in quarter-pixel steps.
func (b burner) line(l geom.LineString) {
	if len(l) == 1 {
		b.point(l[0])
		return
	}
	for i := 1; i < len(l); i++ {
		c0, r0 := b.inv.Apply(l[i-1].X, l[i-1].Y)
		c1, r1 := b.inv.Apply(l[i].X, l[i].Y)
		steps := int(math.Ceil(math.Max(math.Abs(c1-c0), math.Abs(r1-r0))*4)) + 1
		for s := 0; s <= steps; s++ {
			t := float64(s) / float64(steps)
			b.mark(c0+(c1-c0)*t, r0+(r1-r0)*t)
		}
	}
}

func (b burner) polygon(poly geom.Polygonal) {
	bounds := poly.Bounds()
	if bounds == nil {
		return
	}
	ext := geo.ExtentFromBounds(bounds, geo.CRS{})
	if !ext.Intersects(b.target.Footprint()) {
		return
	}
	rows, cols := b.target.Dims()
	minC, minR := math.Inf(1), math.Inf(1)
	maxC, maxR := math.Inf(-1), math.Inf(-1)
	for _, c := range ext.Corners() {
		pc, pr := b.inv.Apply(c.X, c.Y)
		minC, maxC = math.Min(minC, pc), math.Max(maxC, pc)
		minR, maxR = math.Min(minR, pr), math.Max(maxR, pr)
	}
	c0, c1 := clamp(int(math.Floor(minC)), cols), clamp(int(math.Ceil(maxC)), cols)
	r0, r1 := clamp(int(math.Floor(minR)), rows), clamp(int(math.Ceil(maxR)), rows)
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			x, y := b.target.PixelCentre(r, c)
			switch (geom.Point{X: x, Y: y}).Within(poly) {
			case geom.Inside, geom.OnEdge:
				b.target.Set(r, c, b.value)
			}
		}
	}
}

func clamp(v, n int) int {
	switch {
	case v < 0:
		return 0
	case v > n:
		return n
	default:
		return v
	}
}
