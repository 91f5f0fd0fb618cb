package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"

	"rasteralign/internal/geo"
	"rasteralign/internal/raster"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Repeat("B", int(size))), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Grid builds a north-up raster with its top-left corner at (originX,
// originY). values are row-major; a nil slice leaves the band zeroed. When
// nodata is non-nil it becomes the raster's nodata value.
func Grid(t testing.TB, rows, cols int, originX, originY, res float64, crs geo.CRS, nodata *float64, values []float64) *raster.Raster {
	t.Helper()

	r := raster.New(rows, cols, geo.NorthUp(originX, originY, res), crs)
	if nodata != nil {
		r.SetNoData(*nodata)
	}
	if values == nil {
		return r
	}
	if len(values) != rows*cols {
		t.Fatalf("grid values: got %d, want %d", len(values), rows*cols)
	}
	for i := range rows {
		for j := range cols {
			r.Set(i, j, values[i*cols+j])
		}
	}
	return r
}

// Filled returns rows*cols copies of v.
func Filled(rows, cols int, v float64) []float64 {
	out := make([]float64, rows*cols)
	for i := range out {
		out[i] = v
	}
	return out
}

// NoData is a convenience for Grid's nodata argument.
func NoData(v float64) *float64 {
	return &v
}

// WriteRaster stores r at path as an ASCII grid with its .prj sidecar.
func WriteRaster(t testing.TB, path string, r *raster.Raster) {
	t.Helper()

	if err := (raster.FileStore{}).Create(path, r); err != nil {
		t.Fatalf("write raster %s: %v", path, err)
	}
}

// ReadRaster loads the raster at path.
func ReadRaster(t testing.TB, path string) *raster.Raster {
	t.Helper()

	r, err := (raster.FileStore{}).Open(path)
	if err != nil {
		t.Fatalf("read raster %s: %v", path, err)
	}
	return r
}

// Ring is a closed or open list of (x, y) pairs.
type Ring [][2]float64

// WritePolygonShapefile writes a polygon shapefile at path with one polygon
// per ring and a .prj sidecar for crs.
func WritePolygonShapefile(t testing.TB, path string, crs geo.CRS, rings ...Ring) {
	t.Helper()

	writeShapefile(t, path, crs, shp.POLYGON, func(w *shp.Writer) {
		for _, ring := range rings {
			poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{toShpPoints(closeRing(ring))}))
			w.Write(&poly)
		}
	})
}

// WriteLineShapefile writes a polyline shapefile at path with one line per
// vertex list.
func WriteLineShapefile(t testing.TB, path string, crs geo.CRS, lines ...Ring) {
	t.Helper()

	writeShapefile(t, path, crs, shp.POLYLINE, func(w *shp.Writer) {
		for _, line := range lines {
			w.Write(shp.NewPolyLine([][]shp.Point{toShpPoints(line)}))
		}
	})
}

// WritePointShapefile writes a point shapefile at path.
func WritePointShapefile(t testing.TB, path string, crs geo.CRS, points ...[2]float64) {
	t.Helper()

	writeShapefile(t, path, crs, shp.POINT, func(w *shp.Writer) {
		for _, p := range points {
			w.Write(&shp.Point{X: p[0], Y: p[1]})
		}
	})
}

func writeShapefile(t testing.TB, path string, crs geo.CRS, kind shp.ShapeType, fill func(*shp.Writer)) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	w, err := shp.Create(path, kind)
	if err != nil {
		t.Fatalf("create shapefile %s: %v", path, err)
	}
	fill(w)
	w.Close()

	// Some go-shp releases name the attribute table "<base>dbf" without the
	// dot, which readers then fail to find.
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if _, err := os.Stat(base + "dbf"); err == nil {
		if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
			t.Fatalf("rename dbf: %v", err)
		}
	}

	if err := raster.WritePRJ(path, crs); err != nil {
		t.Fatalf("write prj: %v", err)
	}
}

func closeRing(ring Ring) Ring {
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(append(Ring(nil), ring...), ring[0])
	}
	return ring
}

func toShpPoints(ring Ring) []shp.Point {
	out := make([]shp.Point, len(ring))
	for i, p := range ring {
		out[i] = shp.Point{X: p[0], Y: p[1]}
	}
	return out
}
