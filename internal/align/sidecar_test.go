package align_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"rasteralign/internal/align"
	"rasteralign/internal/geo"
)

func TestGridRecordRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "extent.txt")
	grid := align.ReferenceGrid{Extent: geo.NewExtent(2, 2, 8, 8, geo.EPSG(4326)), Resolution: 0.5, CRS: geo.EPSG(4326)}

	if err := align.WriteGridRecord(path, grid); err != nil {
		t.Fatalf("WriteGridRecord: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if !strings.HasPrefix(string(data), "[\n    2,\n") || !strings.HasSuffix(string(data), "\n0.5\nEPSG:4326\n") {
		t.Fatalf("unexpected record layout:\n%s", data)
	}

	got, err := align.ReadGridRecord(path, geo.CRS{})
	if err != nil {
		t.Fatalf("ReadGridRecord: %v", err)
	}
	if diff := cmp.Diff(grid.Extent.Array(), got.Extent.Array()); diff != "" {
		t.Fatalf("extent mismatch (-want +got):\n%s", diff)
	}
	if got.Resolution != 0.5 || !got.CRS.Equal(geo.EPSG(4326)) {
		t.Fatalf("grid = %+v", got)
	}
}

func TestReadGridRecordLegacyForm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extent.txt")
	if err := os.WriteFile(path, []byte("[0.0, 0.0, 4.0, 4.0]\n1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := align.ReadGridRecord(path, geo.EPSG(3857))
	if err != nil {
		t.Fatalf("ReadGridRecord: %v", err)
	}
	if !got.CRS.Equal(geo.EPSG(3857)) || got.Resolution != 1 {
		t.Fatalf("grid = %+v", got)
	}
}

func TestReadGridRecordMalformed(t *testing.T) {
	for name, content := range map[string]string{
		"not json":       "extent\n1\n",
		"short extent":   "[0, 0, 4]\n1\n",
		"no resolution":  "[0, 0, 4, 4]\n",
		"bad resolution": "[0, 0, 4, 4]\nfine\n",
		"empty extent":   "[0, 0, 0, 0]\n1\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "extent.txt")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := align.ReadGridRecord(path, geo.EPSG(4326)); !errors.Is(err, align.ErrMalformedGridRecord) {
				t.Fatalf("expected ErrMalformedGridRecord, got %v", err)
			}
		})
	}
}
