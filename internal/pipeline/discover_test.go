package pipeline_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"rasteralign/internal/pipeline"
	"rasteralign/internal/testsupport"
)

func rels(inputs []pipeline.Input) []string {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, filepath.ToSlash(in.Rel))
	}
	return out
}

func TestDiscoverClassifiesAndSkips(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := t.TempDir()
	out := filepath.Join(root, "out")

	for _, name := range []string{
		"dem/a.asc",
		"dem/a.prj",
		"dem/b.png",
		"dem/b.pgw",
		"roads/roads.shp",
		"roads/roads.shx",
		"roads/roads.dbf",
		"notes.txt",
		".hidden/c.asc",
		"dem/.d.asc",
		"dem/e.asc.partial",
		"out/a_norm.asc",
	} {
		testsupport.WriteFile(t, filepath.Join(root, name), 4)
	}

	inputs, err := pipeline.Discover(root, out, cfg)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if diff := cmp.Diff([]string{"dem/a.asc", "dem/b.png"}, rels(inputs.Rasters)); diff != "" {
		t.Fatalf("rasters mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"roads/roads.shp"}, rels(inputs.Vectors)); diff != "" {
		t.Fatalf("vectors mismatch (-want +got):\n%s", diff)
	}
	if inputs.Total() != 3 {
		t.Fatalf("Total = %d, want 3", inputs.Total())
	}
	for _, in := range inputs.Rasters {
		if in.Kind != pipeline.KindRaster || filepath.Dir(in.Path) != filepath.Join(root, "dem") {
			t.Fatalf("unexpected raster input %+v", in)
		}
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := pipeline.Discover(filepath.Join(t.TempDir(), "missing"), "", cfg); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in   pipeline.Input
		want string
	}{
		{pipeline.Input{Rel: "dem/a.asc", Kind: pipeline.KindRaster}, "/out/dem/a_norm.asc"},
		{pipeline.Input{Rel: "b.png", Kind: pipeline.KindRaster}, "/out/b_norm.asc"},
		{pipeline.Input{Rel: "roads/roads.shp", Kind: pipeline.KindVector}, "/out/roads/roads.asc"},
	}
	for _, tt := range tests {
		got := filepath.ToSlash(pipeline.OutputPath("/out", tt.in, "_norm"))
		if got != tt.want {
			t.Errorf("OutputPath(%s) = %s, want %s", tt.in.Rel, got, tt.want)
		}
	}
}
