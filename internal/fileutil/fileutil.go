package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CopyFileVerified streams src to dst with SHA256 + size integrity
// verification, creating the destination directory when missing. Removes dst
// on mismatch.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, dstHasher), io.TeeReader(in, srcHasher))
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}

// Companion is a sidecar file that travels with a primary file. Suffix is the
// part of the sidecar name after the shared stem, e.g. ".prj" for x.prj next to
// x.asc or ".asc.aux.xml" for x.asc.aux.xml.
type Companion struct {
	Path   string
	Suffix string
}

// Companions lists the existing sidecars of primary whose extension is one of
// exts. Both naming styles are recognised: the primary's stem plus the
// extension (x.prj) and the full primary name plus the extension
// (x.asc.aux.xml). Matching ignores case. Results are sorted by path.
func Companions(primary string, exts []string) ([]Companion, error) {
	dir := filepath.Dir(primary)
	base := filepath.Base(primary)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []Companion
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == base {
			continue
		}
		name := entry.Name()
		lower := strings.ToLower(name)
		for _, ext := range exts {
			ext = strings.ToLower(ext)
			var suffix string
			switch {
			case lower == strings.ToLower(base)+ext:
				suffix = name[len(stem):]
			case lower == strings.ToLower(stem)+ext:
				suffix = name[len(stem):]
			default:
				continue
			}
			out = append(out, Companion{Path: filepath.Join(dir, name), Suffix: suffix})
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// CopyWithCompanions copies src to dst and carries every companion of src
// along, renamed onto dst's stem. It returns the destination paths written,
// primary first.
func CopyWithCompanions(src, dst string, exts []string) ([]string, error) {
	if err := CopyFileVerified(src, dst); err != nil {
		return nil, fmt.Errorf("copy %s: %w", src, err)
	}
	written := []string{dst}

	companions, err := Companions(src, exts)
	if err != nil {
		return written, fmt.Errorf("list companions of %s: %w", src, err)
	}
	dstBase := filepath.Base(dst)
	dstStem := strings.TrimSuffix(dstBase, filepath.Ext(dstBase))
	for _, companion := range companions {
		target := filepath.Join(filepath.Dir(dst), dstStem+companion.Suffix)
		if err := CopyFileVerified(companion.Path, target); err != nil {
			return written, fmt.Errorf("copy companion %s: %w", companion.Path, err)
		}
		written = append(written, target)
	}
	return written, nil
}
