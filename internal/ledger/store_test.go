package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"rasteralign/internal/ledger"
	"rasteralign/internal/testsupport"
)

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "run-1", "/data/in", "/data/in/processed")
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if run.Status != ledger.RunRunning {
		t.Fatalf("status = %s, want running", run.Status)
	}

	grid := ledger.Grid{Extent: [4]float64{2, 2, 8, 8}, Resolution: 1, CRS: "EPSG:4326"}
	if err := store.RecordGrid(ctx, "run-1", grid); err != nil {
		t.Fatalf("RecordGrid failed: %v", err)
	}
	records := []ledger.FileRecord{
		{RunID: "run-1", RelPath: "a.asc", Kind: "raster", Status: ledger.FileAligned, OutputPath: "/out/a_norm.asc", Algorithm: "average", NativeSize: 2, CroppedToReference: true},
		{RunID: "run-1", RelPath: "b.asc", Kind: "raster", Status: ledger.FileAligned, OutputPath: "/out/b_norm.asc", Algorithm: "bilinear", NativeSize: 1},
		{RunID: "run-1", RelPath: "roads.shp", Kind: "vector", Status: ledger.FileRasterized, OutputPath: "/out/roads.asc"},
		{RunID: "run-1", RelPath: "broken.asc", Kind: "raster", Status: ledger.FileFailed, Error: "resample failed: boom"},
	}
	for _, rec := range records {
		if err := store.RecordFile(ctx, rec); err != nil {
			t.Fatalf("RecordFile(%s) failed: %v", rec.RelPath, err)
		}
	}
	if err := store.FinishRun(ctx, "run-1", ledger.RunCompleted, nil); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != ledger.RunCompleted || got.FinishedAt.IsZero() {
		t.Fatalf("unexpected run state: %#v", got)
	}
	if got.Grid == nil {
		t.Fatal("expected grid to be recorded")
	}
	if diff := cmp.Diff(grid, *got.Grid); diff != "" {
		t.Fatalf("grid mismatch (-want +got):\n%s", diff)
	}
	if got.Aligned != 2 || got.Rasterized != 1 || got.Failed != 1 {
		t.Fatalf("counts = %d/%d/%d, want 2/1/1", got.Aligned, got.Rasterized, got.Failed)
	}

	files, err := store.RunFiles(ctx, "run-1")
	if err != nil {
		t.Fatalf("RunFiles failed: %v", err)
	}
	if diff := cmp.Diff(records, files, cmpopts.IgnoreFields(ledger.FileRecord{}, "RecordedAt")); diff != "" {
		t.Fatalf("file records mismatch (-want +got):\n%s", diff)
	}
}

func TestBeginRunRequiresID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	if _, err := store.BeginRun(context.Background(), " ", "/in", "/out"); err == nil {
		t.Fatal("expected error when run id missing")
	}
}

func TestGetRunNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	if _, err := store.GetRun(context.Background(), "missing"); !errors.Is(err, ledger.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := store.FinishRun(context.Background(), "missing", ledger.RunFailed, errors.New("x")); !errors.Is(err, ledger.ErrRunNotFound) {
		t.Fatalf("FinishRun on missing run: expected ErrRunNotFound, got %v", err)
	}
}

func TestMarkAbandoned(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"crashed", "done"} {
		if _, err := store.BeginRun(ctx, id, "/in", "/out"); err != nil {
			t.Fatalf("BeginRun(%s) failed: %v", id, err)
		}
	}
	if err := store.FinishRun(ctx, "done", ledger.RunCompleted, nil); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	n, err := store.MarkAbandoned(ctx)
	if err != nil {
		t.Fatalf("MarkAbandoned failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("abandoned = %d, want 1", n)
	}
	crashed, err := store.GetRun(ctx, "crashed")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if crashed.Status != ledger.RunAbandoned || crashed.Error == "" {
		t.Fatalf("unexpected crashed run: %#v", crashed)
	}
	done, err := store.GetRun(ctx, "done")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if done.Status != ledger.RunCompleted {
		t.Fatalf("completed run changed to %s", done.Status)
	}
}

func TestListRunsLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"r1", "r2", "r3"} {
		if _, err := store.BeginRun(ctx, id, "/in", "/out"); err != nil {
			t.Fatalf("BeginRun(%s) failed: %v", id, err)
		}
	}
	all, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("runs = %d, want 3", len(all))
	}
	limited, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited runs = %d, want 2", len(limited))
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := ledger.Open(cfg.Paths.LedgerPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := store.BeginRun(context.Background(), "persisted", "/in", "/out"); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenLedger(t, cfg)
	if _, err := reopened.GetRun(context.Background(), "persisted"); err != nil {
		t.Fatalf("GetRun after reopen failed: %v", err)
	}
	if reopened.Path() != cfg.Paths.LedgerPath {
		t.Fatalf("Path = %q, want %q", reopened.Path(), cfg.Paths.LedgerPath)
	}
}
