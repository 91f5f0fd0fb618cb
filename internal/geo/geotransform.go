package geo

import "math"

// GeoTransform is the six-coefficient affine mapping from pixel space to
// world coordinates:
//
//	x = g[0] + col*g[1] + row*g[2]
//	y = g[3] + col*g[4] + row*g[5]
//
// (col, row) address the top-left corner of a pixel; add 0.5 for its centre.
type GeoTransform [6]float64

// NorthUp builds a transform with square pixels of size res whose top-left
// corner sits at (originX, originY).
func NorthUp(originX, originY, res float64) GeoTransform {
	return GeoTransform{originX, res, 0, originY, 0, -res}
}

// Apply maps pixel coordinates to world coordinates.
func (g GeoTransform) Apply(col, row float64) (x, y float64) {
	return g[0] + col*g[1] + row*g[2], g[3] + col*g[4] + row*g[5]
}

// Invert returns the world-to-pixel transform. ok is false when the
// transform is degenerate.
func (g GeoTransform) Invert() (inv GeoTransform, ok bool) {
	det := g[1]*g[5] - g[2]*g[4]
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return GeoTransform{}, false
	}
	inv[1] = g[5] / det
	inv[2] = -g[2] / det
	inv[4] = -g[4] / det
	inv[5] = g[1] / det
	inv[0] = (g[2]*g[3] - g[0]*g[5]) / det
	inv[3] = (-g[1]*g[3] + g[0]*g[4]) / det
	return inv, true
}

// PixelSize is the absolute x pixel dimension, in CRS units.
func (g GeoTransform) PixelSize() float64 {
	return math.Abs(g[1])
}

// Valid reports whether the transform can address pixels.
func (g GeoTransform) Valid() bool {
	for _, v := range g {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	_, ok := g.Invert()
	return ok
}

// NorthUpAligned reports whether the transform has no rotation terms.
func (g GeoTransform) NorthUpAligned() bool {
	return g[2] == 0 && g[4] == 0
}

// Footprint returns the extent covered by a cols x rows grid. Rotated
// transforms yield the bounding box of the four corners.
func (g GeoTransform) Footprint(cols, rows int, crs CRS) Extent {
	return g.Window(0, 0, cols, rows, crs)
}

// Window returns the extent spanned by the pixel corners (col0,row0) and
// (col1,row1), the latter exclusive in pixel terms.
func (g GeoTransform) Window(col0, row0, col1, row1 int, crs CRS) Extent {
	x0, y0 := g.Apply(float64(col0), float64(row0))
	x1, y1 := g.Apply(float64(col1), float64(row0))
	x2, y2 := g.Apply(float64(col0), float64(row1))
	x3, y3 := g.Apply(float64(col1), float64(row1))
	return Extent{
		XMin: math.Min(math.Min(x0, x1), math.Min(x2, x3)),
		YMin: math.Min(math.Min(y0, y1), math.Min(y2, y3)),
		XMax: math.Max(math.Max(x0, x1), math.Max(x2, x3)),
		YMax: math.Max(math.Max(y0, y1), math.Max(y2, y3)),
		CRS:  crs,
	}
}
