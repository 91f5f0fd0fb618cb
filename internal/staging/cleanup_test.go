package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rasteralign/internal/logging"
)

func makeDir(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	if age > 0 {
		stamp := time.Now().Add(-age)
		if err := os.Chtimes(path, stamp, stamp); err != nil {
			t.Fatalf("set time: %v", err)
		}
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldRunDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	oldRun := filepath.Join(tmpDir, "run-old")
	makeDir(t, oldRun, 2*time.Hour)
	recentRun := filepath.Join(tmpDir, "run-recent")
	makeDir(t, recentRun, 0)
	foreign := filepath.Join(tmpDir, "someone-else")
	makeDir(t, foreign, 2*time.Hour)

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != oldRun {
		t.Fatalf("expected only %s removed, got %v", oldRun, result.Removed)
	}
	if _, err := os.Stat(oldRun); !os.IsNotExist(err) {
		t.Error("old run directory should have been removed")
	}
	for _, keep := range []string{recentRun, foreign} {
		if _, err := os.Stat(keep); err != nil {
			t.Errorf("%s should still exist", keep)
		}
	}
}

func TestCleanStaleIgnoresFiles(t *testing.T) {
	tmpDir := t.TempDir()
	oldFile := filepath.Join(tmpDir, "run-file.txt")
	if err := os.WriteFile(oldFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}
	oldTime := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldFile, oldTime, oldTime); err != nil {
		t.Fatalf("set old time: %v", err)
	}

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Errorf("expected no removals for files, got %d", len(result.Removed))
	}
}

func TestCleanStaleStopsWhenCancelled(t *testing.T) {
	tmpDir := t.TempDir()
	makeDir(t, filepath.Join(tmpDir, "run-a"), 2*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := CleanStale(ctx, tmpDir, time.Hour, nil)
	if len(result.Removed) != 0 {
		t.Fatalf("cancelled sweep removed %v", result.Removed)
	}
}

func TestListDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	run := filepath.Join(tmpDir, "run-abc")
	makeDir(t, run, 0)
	if err := os.WriteFile(filepath.Join(run, "a.asc"), []byte("12345"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	makeDir(t, filepath.Join(tmpDir, "other"), 0)

	dirs, err := ListDirectories(tmpDir)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 1 {
		t.Fatalf("expected one run directory, got %d", len(dirs))
	}
	if dirs[0].Name != "run-abc" || dirs[0].Size != 5 {
		t.Fatalf("unexpected dir info: %+v", dirs[0])
	}

	missing, err := ListDirectories(filepath.Join(tmpDir, "missing"))
	if err != nil || missing != nil {
		t.Fatalf("missing staging dir should list nothing, got %v %v", missing, err)
	}
}
