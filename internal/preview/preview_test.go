package preview_test

import (
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"rasteralign/internal/geo"
	"rasteralign/internal/preview"
	"rasteralign/internal/testsupport"
)

func TestSummarizeSkipsNoData(t *testing.T) {
	r := testsupport.Grid(t, 2, 2, 0, 2, 1, geo.EPSG(4326), testsupport.NoData(0), []float64{0, 2, 4, 6})

	s := preview.Summarize(r)
	if s.Valid != 3 || s.Total != 4 {
		t.Fatalf("valid/total = %d/%d, want 3/4", s.Valid, s.Total)
	}
	if s.Min != 2 || s.Max != 6 || s.Mean != 4 {
		t.Fatalf("stats = %+v", s)
	}
	if math.Abs(s.StdDev-2) > 1e-12 {
		t.Fatalf("stddev = %g, want 2", s.StdDev)
	}
}

func TestRenderWritesPNG(t *testing.T) {
	values := make([]float64, 25)
	for i := range values {
		values[i] = float64(i)
	}
	r := testsupport.Grid(t, 5, 5, 10, 20, 1, geo.EPSG(4326), testsupport.NoData(0), values)
	r.Path = "dem.asc"
	path := filepath.Join(t.TempDir(), "img", "dem.png")

	if err := preview.Render(r, path, preview.Options{WidthInches: 2, HeightInches: 2, PaletteColors: 16}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open preview: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		t.Fatalf("empty image bounds %v", b)
	}
}

func TestRenderConstantRaster(t *testing.T) {
	r := testsupport.Grid(t, 3, 3, 0, 3, 1, geo.EPSG(4326), nil, testsupport.Filled(3, 3, 7))
	if err := preview.Render(r, filepath.Join(t.TempDir(), "flat.png"), preview.Options{}); err != nil {
		t.Fatalf("Render: %v", err)
	}
}

func TestRenderRejectsEmptyRaster(t *testing.T) {
	r := testsupport.Grid(t, 2, 2, 0, 2, 1, geo.EPSG(4326), testsupport.NoData(0), testsupport.Filled(2, 2, 0))
	err := preview.Render(r, filepath.Join(t.TempDir(), "empty.png"), preview.Options{})
	if !errors.Is(err, preview.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}
