package pipeline

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"rasteralign/internal/config"
)

// Input is one discovered primary file.
type Input struct {
	Path string
	Rel  string
	Kind Kind
}

// Inputs groups discovered files by kind, each in lexical path order.
type Inputs struct {
	Rasters []Input
	Vectors []Input
}

// Total counts every discovered input.
func (in Inputs) Total() int {
	return len(in.Rasters) + len(in.Vectors)
}

// Discover walks root and returns the raster and vector primaries beneath
// it. The subtree at exclude (normally the output root) is skipped, as are
// hidden entries, companion sidecars and partially written files.
func Discover(root, exclude string, cfg *config.Config) (Inputs, error) {
	var in Inputs
	exclude = filepath.Clean(exclude)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || (exclude != "." && filepath.Clean(path) == exclude)) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".partial") || cfg.IsCompanion(path) {
			return nil
		}
		var kind Kind
		switch {
		case cfg.IsRaster(path):
			kind = KindRaster
		case cfg.IsVector(path):
			kind = KindVector
		default:
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		input := Input{Path: path, Rel: rel, Kind: kind}
		if kind == KindRaster {
			in.Rasters = append(in.Rasters, input)
		} else {
			in.Vectors = append(in.Vectors, input)
		}
		return nil
	})
	if err != nil {
		return Inputs{}, fmt.Errorf("discover inputs under %s: %w", root, err)
	}
	return in, nil
}

// OutputPath maps an input's relative path into the output tree. Rasters
// gain suffix; vectors keep their stem. Both get the ASCII grid extension.
func OutputPath(outputRoot string, in Input, suffix string) string {
	dir := filepath.Dir(in.Rel)
	base := filepath.Base(in.Rel)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if in.Kind == KindRaster {
		stem += suffix
	}
	return filepath.Join(outputRoot, dir, stem+".asc")
}
