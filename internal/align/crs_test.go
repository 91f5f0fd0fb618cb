package align_test

import (
	"context"
	"path/filepath"
	"testing"

	"rasteralign/internal/align"
	"rasteralign/internal/geo"
	"rasteralign/internal/raster"
	"rasteralign/internal/testsupport"
	"rasteralign/internal/warp"
)

func newCRSNormalizer() *align.CRSNormalizer {
	store := raster.FileStore{}
	return &align.CRSNormalizer{Store: store, Warper: warp.NewFileWarper(store)}
}

func TestCRSNormalizeKeepsMatchingRaster(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.asc")
	testsupport.WriteRaster(t, src, testsupport.Grid(t, 2, 2, 0, 2, 1, geo.EPSG(4326), nil, testsupport.Filled(2, 2, 1)))

	dst := filepath.Join(dir, "staged", "a.asc")
	got, err := newCRSNormalizer().Normalize(context.Background(), src, geo.EPSG(4326), dst)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != src {
		t.Fatalf("path = %q, want source %q", got, src)
	}
}

func TestCRSNormalizeAssumesUnresolvableCRS(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "custom.asc")
	custom := geo.CRS{Definition: "+proj=longlat +ellps=intl +no_defs"}
	testsupport.WriteRaster(t, src, testsupport.Grid(t, 2, 2, 0, 2, 1, custom, nil, testsupport.Filled(2, 2, 1)))

	got, err := newCRSNormalizer().Normalize(context.Background(), src, geo.EPSG(3857), filepath.Join(dir, "staged.asc"))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != src {
		t.Fatalf("path = %q, want source %q", got, src)
	}
}

func TestCRSNormalizeReprojects(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "wgs.asc")
	testsupport.WriteRaster(t, src, testsupport.Grid(t, 4, 4, 10, 44, 0.5, geo.EPSG(4326), testsupport.NoData(-9999), testsupport.Filled(4, 4, 3)))

	dst := filepath.Join(dir, "staged", "wgs.asc")
	got, err := newCRSNormalizer().Normalize(context.Background(), src, geo.EPSG(3857), dst)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != dst {
		t.Fatalf("path = %q, want %q", got, dst)
	}
	out := testsupport.ReadRaster(t, dst)
	if !out.CRS.Equal(geo.EPSG(3857)) {
		t.Fatalf("CRS = %s, want EPSG:3857", out.CRS)
	}
	if !out.HasNoData || out.NoData != -9999 {
		t.Fatalf("nodata = %v/%g, want -9999", out.HasNoData, out.NoData)
	}
	if out.Footprint().XMin < 1e6 {
		t.Fatalf("footprint %s does not look like web mercator metres", out.Footprint())
	}
}
