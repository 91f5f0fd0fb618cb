package align_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"rasteralign/internal/align"
	"rasteralign/internal/geo"
	"rasteralign/internal/raster"
	"rasteralign/internal/testsupport"
)

func TestSelectReferenceExtentPicksSmallestArea(t *testing.T) {
	wgs := geo.EPSG(4326)
	large := testsupport.Grid(t, 10, 10, 0, 20, 2, wgs, nil, testsupport.Filled(10, 10, 1))
	large.Path = "large.asc"
	small := testsupport.Grid(t, 6, 6, 2, 8, 1, wgs, nil, testsupport.Filled(6, 6, 1))
	small.Path = "small.asc"

	sel, err := align.SelectReferenceExtent([]*raster.Raster{large, small}, wgs)
	if err != nil {
		t.Fatalf("SelectReferenceExtent: %v", err)
	}
	if sel.Source != "small.asc" {
		t.Fatalf("source = %q, want small.asc", sel.Source)
	}
	if diff := cmp.Diff([4]float64{2, 2, 8, 8}, sel.Extent.Array()); diff != "" {
		t.Fatalf("extent mismatch (-want +got):\n%s", diff)
	}
	if len(sel.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(sel.Candidates))
	}
}

func TestSelectReferenceExtentTieKeepsFirst(t *testing.T) {
	wgs := geo.EPSG(4326)
	a := testsupport.Grid(t, 2, 2, 0, 2, 1, wgs, nil, testsupport.Filled(2, 2, 1))
	a.Path = "a.asc"
	b := testsupport.Grid(t, 2, 2, 5, 7, 1, wgs, nil, testsupport.Filled(2, 2, 1))
	b.Path = "b.asc"

	sel, err := align.SelectReferenceExtent([]*raster.Raster{a, b}, wgs)
	if err != nil {
		t.Fatalf("SelectReferenceExtent: %v", err)
	}
	if sel.Source != "a.asc" {
		t.Fatalf("source = %q, want a.asc", sel.Source)
	}
}

func TestSelectReferenceExtentSkipsAllNoData(t *testing.T) {
	wgs := geo.EPSG(4326)
	empty := testsupport.Grid(t, 2, 2, 0, 2, 1, wgs, testsupport.NoData(-9999), testsupport.Filled(2, 2, -9999))
	empty.Path = "empty.asc"
	valid := testsupport.Grid(t, 4, 4, 0, 4, 1, wgs, testsupport.NoData(-9999), testsupport.Filled(4, 4, 3))
	valid.Path = "valid.asc"

	sel, err := align.SelectReferenceExtent([]*raster.Raster{empty, valid}, wgs)
	if err != nil {
		t.Fatalf("SelectReferenceExtent: %v", err)
	}
	if sel.Source != "valid.asc" {
		t.Fatalf("source = %q, want valid.asc", sel.Source)
	}
	if len(sel.Skipped) != 1 || sel.Skipped[0].Path != "empty.asc" || !errors.Is(sel.Skipped[0].Err, align.ErrNoValidData) {
		t.Fatalf("unexpected skipped list: %+v", sel.Skipped)
	}
}

func TestSelectReferenceExtentFailsWithoutValidData(t *testing.T) {
	wgs := geo.EPSG(4326)
	empty := testsupport.Grid(t, 2, 2, 0, 2, 1, wgs, testsupport.NoData(0), testsupport.Filled(2, 2, 0))

	for name, rasters := range map[string][]*raster.Raster{
		"no inputs":  nil,
		"all nodata": {empty},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := align.SelectReferenceExtent(rasters, wgs)
			if !errors.Is(err, align.ErrNoReferenceExtent) {
				t.Fatalf("expected ErrNoReferenceExtent, got %v", err)
			}
			if !align.IsBatchFatal(err) {
				t.Fatal("missing reference extent must be batch-fatal")
			}
		})
	}
}

func TestSelectResolutionPicksFinest(t *testing.T) {
	wgs := geo.EPSG(4326)
	coarse := testsupport.Grid(t, 2, 2, 0, 4, 2, wgs, nil, nil)
	fine := testsupport.Grid(t, 2, 2, 0, 1, 0.5, wgs, nil, nil)
	broken := raster.New(2, 2, geo.GeoTransform{}, wgs)

	res, err := align.SelectResolution([]*raster.Raster{coarse, broken, fine})
	if err != nil {
		t.Fatalf("SelectResolution: %v", err)
	}
	if res != 0.5 {
		t.Fatalf("resolution = %g, want 0.5", res)
	}
}

func TestSelectResolutionFailsWithoutGeotransform(t *testing.T) {
	broken := raster.New(2, 2, geo.GeoTransform{}, geo.EPSG(4326))

	_, err := align.SelectResolution([]*raster.Raster{broken})
	if !errors.Is(err, align.ErrNoResolution) {
		t.Fatalf("expected ErrNoResolution, got %v", err)
	}
}

func TestBuildReferenceGrid(t *testing.T) {
	wgs := geo.EPSG(4326)
	large := testsupport.Grid(t, 10, 10, 0, 20, 2, wgs, nil, testsupport.Filled(10, 10, 1))
	small := testsupport.Grid(t, 6, 6, 2, 8, 1, wgs, nil, testsupport.Filled(6, 6, 1))

	grid, _, err := align.BuildReferenceGrid([]*raster.Raster{large, small}, wgs)
	if err != nil {
		t.Fatalf("BuildReferenceGrid: %v", err)
	}
	if grid.Resolution != 1 {
		t.Fatalf("resolution = %g, want 1", grid.Resolution)
	}
	cols, rows := grid.Dims()
	if cols != 6 || rows != 6 {
		t.Fatalf("dims = %dx%d, want 6x6", cols, rows)
	}
	if diff := cmp.Diff(geo.NorthUp(2, 8, 1), grid.GeoTransform()); diff != "" {
		t.Fatalf("geotransform mismatch (-want +got):\n%s", diff)
	}
}
