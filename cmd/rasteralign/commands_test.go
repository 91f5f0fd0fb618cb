package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"rasteralign/internal/align"
	"rasteralign/internal/geo"
	"rasteralign/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "EPSG:4326")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, target); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestAlignJSONAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "aligned")
	writeScene(t, in)

	stdout, _, err := runCLI(t, []string{"align", "--json", in, out}, env.configPath)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	var summary runJSON
	if err := json.Unmarshal([]byte(stdout), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, stdout)
	}
	if summary.Aligned != 2 || summary.Rasterized != 1 || summary.Failed != 0 {
		t.Fatalf("counts = %d/%d/%d", summary.Aligned, summary.Rasterized, summary.Failed)
	}
	if diff := cmp.Diff([4]float64{2, 2, 8, 8}, summary.Grid.Extent); diff != "" {
		t.Fatalf("grid extent mismatch (-want +got):\n%s", diff)
	}
	if summary.Grid.Cols != 6 || summary.Grid.Rows != 6 {
		t.Fatalf("grid dims = %dx%d", summary.Grid.Cols, summary.Grid.Rows)
	}
	for _, name := range []string{"coarse_norm.asc", "fine_norm.asc", "zone.asc", env.cfg.Grid.SidecarName} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("missing output %s: %v", name, err)
		}
	}

	stdout, _, err = runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var history struct {
		Runs []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"runs"`
	}
	if err := json.Unmarshal([]byte(stdout), &history); err != nil {
		t.Fatalf("decode history: %v\n%s", err, stdout)
	}
	if len(history.Runs) != 1 || history.Runs[0].ID != summary.RunID || history.Runs[0].Status != "completed" {
		t.Fatalf("history = %+v", history.Runs)
	}

	stdout, _, err = runCLI(t, []string{"history", "--run", summary.RunID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history --run: %v", err)
	}
	requireContains(t, stdout, "Completed")
	requireContains(t, stdout, "coarse.asc")
	requireContains(t, stdout, "average")
}

func TestLogsShowsLatestRun(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutLedger())

	stdout, _, err := runCLI(t, []string{"logs"}, env.configPath)
	if err != nil {
		t.Fatalf("logs before any run: %v", err)
	}
	requireContains(t, stdout, "No run logs found")

	in, out := t.TempDir(), filepath.Join(t.TempDir(), "aligned")
	writeScene(t, in)
	if _, _, err := runCLI(t, []string{"align", in, out}, env.configPath); err != nil {
		t.Fatalf("align: %v", err)
	}

	stdout, _, err = runCLI(t, []string{"logs"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, stdout, "raster aligned")
	requireContains(t, stdout, "inputs discovered")

	stdout, _, err = runCLI(t, []string{"logs", "--file", "fine"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --file: %v", err)
	}
	requireContains(t, stdout, "fine.asc: raster aligned")
	if strings.Contains(stdout, "inputs discovered") {
		t.Fatalf("file filter should drop run-level records:\n%s", stdout)
	}
}

func TestAlignStrictExitCode(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutLedger())
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "aligned")
	writeScene(t, in)
	if err := os.WriteFile(filepath.Join(in, "broken.asc"), []byte("garbage\n"), 0o644); err != nil {
		t.Fatalf("write broken raster: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"align", in, out}, env.configPath)
	if err != nil {
		t.Fatalf("align without --strict should succeed: %v", err)
	}
	requireContains(t, stdout, "failed 1")

	_, _, err = runCLI(t, []string{"align", "--strict", in, out}, env.configPath)
	if err == nil {
		t.Fatal("expected error under --strict")
	}
	if code := exitCode(err); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestAlignWithoutRasterIsFatal(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutLedger())
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "aligned")
	testsupport.WritePolygonShapefile(t, filepath.Join(in, "zone.shp"), geo.EPSG(4326),
		testsupport.Ring{{0, 0}, {0, 1}, {1, 1}, {1, 0}})

	_, _, err := runCLI(t, []string{"align", in, out}, env.configPath)
	if err == nil {
		t.Fatal("expected batch error without rasters")
	}
	if code := exitCode(err); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !errors.Is(err, align.ErrNoReferenceExtent) {
		t.Fatalf("error = %v, want ErrNoReferenceExtent", err)
	}
	requireContains(t, err.Error(), "no input raster has valid pixels")
}

func TestGridThenRasterize(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutLedger())
	in, out := t.TempDir(), t.TempDir()
	writeScene(t, in)

	stdout, _, err := runCLI(t, []string{"grid", in, "--output", out}, env.configPath)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	requireContains(t, stdout, "fine.asc")
	sidecar := filepath.Join(out, env.cfg.Grid.SidecarName)
	if _, err := os.Stat(sidecar); err != nil {
		t.Fatalf("grid record missing: %v", err)
	}

	dst := filepath.Join(out, "zone.asc")
	if _, _, err := runCLI(t, []string{"rasterize", filepath.Join(in, "zone.shp"), dst, "--grid", out, "--burn", "9"}, env.configPath); err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	r := testsupport.ReadRaster(t, dst)
	if rows, cols := r.Dims(); rows != 6 || cols != 6 {
		t.Fatalf("dims = %dx%d, want 6x6", rows, cols)
	}
	if r.At(3, 1) != 9 || r.At(0, 0) != 0 {
		t.Fatalf("burned cells: (3,1)=%g (0,0)=%g", r.At(3, 1), r.At(0, 0))
	}

	_, _, err = runCLI(t, []string{"rasterize", filepath.Join(in, "zone.shp"), filepath.Join(out, "zero.asc"), "--grid", out, "--burn", "0"}, env.configPath)
	if err == nil {
		t.Fatal("burn value 0 should be rejected")
	}
	requireContains(t, err.Error(), "differ from the nodata value")
	if _, statErr := os.Stat(filepath.Join(out, "zero.asc")); !os.IsNotExist(statErr) {
		t.Fatalf("rejected burn should write nothing, stat err = %v", statErr)
	}
}

func TestRasterizeRequiresGrid(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutLedger())
	if _, _, err := runCLI(t, []string{"rasterize", "a.shp", "a.asc"}, env.configPath); err == nil {
		t.Fatal("expected error without --grid")
	}
}

func TestDiffSeries(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutLedger())
	dir := t.TempDir()
	wgs := geo.EPSG(4326)
	testsupport.WriteRaster(t, filepath.Join(dir, "dem_2021.asc"), testsupport.Grid(t, 2, 2, 0, 2, 1, wgs, nil, []float64{4, 4, 4, 4}))
	testsupport.WriteRaster(t, filepath.Join(dir, "dem_2019.asc"), testsupport.Grid(t, 2, 2, 0, 2, 1, wgs, nil, []float64{1, 2, 3, 7}))

	stdout, _, err := runCLI(t, []string{"diff", "--json", dir}, env.configPath)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	requireContains(t, stdout, "dem_2021_diff.asc")

	r := testsupport.ReadRaster(t, filepath.Join(dir, "dem_2021_diff.asc"))
	got := []float64{r.At(0, 0), r.At(0, 1), r.At(1, 0), r.At(1, 1)}
	if diff := cmp.Diff([]float64{3, 2, 1, 3}, got); diff != "" {
		t.Fatalf("difference mismatch (-want +got):\n%s", diff)
	}
}

func TestPreviewWritesImage(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutLedger())
	dir := t.TempDir()
	src := filepath.Join(dir, "dem.asc")
	testsupport.WriteRaster(t, src, testsupport.Grid(t, 3, 3, 0, 3, 1, geo.EPSG(4326), testsupport.NoData(-1),
		[]float64{1, 2, 3, 4, -1, 6, 7, 8, 9}))

	img := filepath.Join(dir, "out", "dem.png")
	stdout, _, err := runCLI(t, []string{"preview", src, img}, env.configPath)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	requireContains(t, stdout, "8 / 9")
	info, err := os.Stat(img)
	if err != nil || info.Size() == 0 {
		t.Fatalf("preview image missing: %v", err)
	}
}

func TestPreflightReportsMissingInput(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutLedger())
	missing := filepath.Join(t.TempDir(), "missing")

	stdout, _, err := runCLI(t, []string{"preflight", missing}, env.configPath)
	if err == nil {
		t.Fatal("expected preflight failure for missing input")
	}
	requireContains(t, stdout, "Input directory")
	requireContains(t, stdout, "[ERROR]")

	stdout, _, err = runCLI(t, []string{"preflight", t.TempDir()}, env.configPath)
	if err != nil {
		t.Fatalf("preflight: %v\n%s", err, stdout)
	}
	requireContains(t, stdout, "[OK]")
}

func TestStagingCleanAll(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutLedger())
	leftover := filepath.Join(env.cfg.Paths.StagingDir, "run-crashed")
	testsupport.WriteFile(t, filepath.Join(leftover, "a.asc"), 16)

	stdout, _, err := runCLI(t, []string{"staging", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, stdout, "run-crashed")

	stdout, _, err = runCLI(t, []string{"staging", "clean", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("staging clean: %v", err)
	}
	requireContains(t, stdout, "Removed 1")
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Fatalf("leftover should be removed, stat err = %v", err)
	}
}

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"completed":  "Completed",
		"rasterized": "Rasterized",
		"no_data":    "No Data",
		"":           "-",
	}
	for in, want := range tests {
		if got := label(in); got != want {
			t.Errorf("label(%q) = %q, want %q", in, got, want)
		}
	}
}
