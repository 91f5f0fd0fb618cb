package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	content := []byte("verified copy content")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyFileVerified_MissingSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "nonexistent")
	dst := filepath.Join(dir, "dst.bin")

	err := CopyFileVerified(src, dst)
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestCopyFileCreatesDestinationDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.asc")
	if err := os.WriteFile(src, []byte("grid"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "out", "nested", "a.asc")
	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatalf("CopyFileVerified: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("expected destination: %v", err)
	}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCompanions(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "roads.shp", "roads.shx", "roads.DBF", "roads.prj", "roads.shp.xml", "roadsx.prj", "other.dbf")

	got, err := Companions(filepath.Join(dir, "roads.shp"), []string{".shx", ".dbf", ".prj", ".xml"})
	if err != nil {
		t.Fatalf("Companions: %v", err)
	}
	want := []Companion{
		{Path: filepath.Join(dir, "roads.DBF"), Suffix: ".DBF"},
		{Path: filepath.Join(dir, "roads.prj"), Suffix: ".prj"},
		{Path: filepath.Join(dir, "roads.shp.xml"), Suffix: ".shp.xml"},
		{Path: filepath.Join(dir, "roads.shx"), Suffix: ".shx"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("companions mismatch (-want +got):\n%s", diff)
	}
}

func TestCopyWithCompanionsRenamesOntoDestination(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, "dem.asc", "dem.prj", "dem.asc.aux.xml")

	dstDir := t.TempDir()
	written, err := CopyWithCompanions(filepath.Join(src, "dem.asc"), filepath.Join(dstDir, "sub", "dem_norm.asc"), []string{".prj", ".aux.xml"})
	if err != nil {
		t.Fatalf("CopyWithCompanions: %v", err)
	}
	want := []string{
		filepath.Join(dstDir, "sub", "dem_norm.asc"),
		filepath.Join(dstDir, "sub", "dem_norm.asc.aux.xml"),
		filepath.Join(dstDir, "sub", "dem_norm.prj"),
	}
	if diff := cmp.Diff(want, written); diff != "" {
		t.Fatalf("written mismatch (-want +got):\n%s", diff)
	}
	got, err := os.ReadFile(filepath.Join(dstDir, "sub", "dem_norm.prj"))
	if err != nil || string(got) != "dem.prj" {
		t.Fatalf("companion content = %q, %v", got, err)
	}
}
