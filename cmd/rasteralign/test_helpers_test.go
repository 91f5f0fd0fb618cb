package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"rasteralign/internal/config"
	"rasteralign/internal/geo"
	"rasteralign/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"

	configPath := filepath.Join(base, "rasteralign.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", needle, haystack)
	}
}

// writeScene lays out a coarse and a fine raster plus one polygon layer
// under root. The fine raster's extent [2,2,8,8] becomes the grid.
func writeScene(t *testing.T, root string) {
	t.Helper()
	wgs := geo.EPSG(4326)
	testsupport.WriteRaster(t, filepath.Join(root, "coarse.asc"),
		testsupport.Grid(t, 10, 10, 0, 20, 2, wgs, testsupport.NoData(-9999), testsupport.Filled(10, 10, 1)))
	testsupport.WriteRaster(t, filepath.Join(root, "fine.asc"),
		testsupport.Grid(t, 6, 6, 2, 8, 1, wgs, testsupport.NoData(-9999), testsupport.Filled(6, 6, 5)))
	testsupport.WritePolygonShapefile(t, filepath.Join(root, "zone.shp"), wgs,
		testsupport.Ring{{2.9, 2.9}, {2.9, 5.1}, {5.1, 5.1}, {5.1, 2.9}})
}
