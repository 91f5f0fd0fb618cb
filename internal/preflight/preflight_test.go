package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"rasteralign/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCreatable(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"existing", base, true},
		{"missing nested", filepath.Join(base, "a", "b", "c"), true},
		{"under a file", filepath.Join(file, "sub"), false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckCreatable("test", tt.path); got.Passed != tt.want {
				t.Fatalf("passed = %v, want %v (%s)", got.Passed, tt.want, got.Detail)
			}
		})
	}
}

func TestCheckTargetCRS(t *testing.T) {
	cfg := config.Default()
	if res := CheckTargetCRS(&cfg); !res.Passed {
		t.Fatalf("default target CRS failed: %s", res.Detail)
	}
	cfg.Grid.TargetCRS = "+proj=longlat +datum=WGS84"
	if res := CheckTargetCRS(&cfg); res.Passed {
		t.Fatal("expected failure for CRS without EPSG code")
	}
}

func TestCheckPublish(t *testing.T) {
	if res := CheckPublish(config.Publish{Driver: "s3"}); res.Passed {
		t.Fatal("expected failure without bucket")
	}
	if res := CheckPublish(config.Publish{Driver: "s3", Bucket: "b", Region: "eu-west-1"}); !res.Passed {
		t.Fatalf("expected pass, got %s", res.Detail)
	}
	if res := CheckPublish(config.Publish{Driver: "dir", Dir: filepath.Join(t.TempDir(), "pub")}); !res.Passed {
		t.Fatalf("expected pass, got %s", res.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil, Roots{})
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.LedgerPath = ""

	results := RunAll(context.Background(), &cfg, Roots{Input: base, Output: filepath.Join(base, "out")})
	// input, output, staging, logs, target CRS
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_ReportsMissingInput(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.LedgerPath = filepath.Join(base, "ledger.db")
	cfg.Publish.Enabled = true
	cfg.Publish.Driver = "dir"
	cfg.Publish.Dir = filepath.Join(base, "published")

	results := RunAll(context.Background(), &cfg, Roots{Input: filepath.Join(base, "missing")})
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Input directory" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	found := false
	for _, r := range results {
		if r.Name == "Publish" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected publish check in results")
	}
}
