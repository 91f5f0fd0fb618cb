package raster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for extensions the store cannot handle.
var ErrUnsupportedFormat = errors.New("unsupported raster format")

// FileStore reads and writes rasters on the local filesystem. ESRI ASCII
// grids (.asc, .agr) are read and written; PNG images with a world file are
// read only. The CRS always comes from the .prj sidecar.
type FileStore struct{}

// Open loads the raster at path together with its CRS.
func (FileStore) Open(path string) (*Raster, error) {
	var (
		r   *Raster
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asc", ".agr":
		r, err = openASCII(path)
	case ".png":
		r, err = ReadPNG(path)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}
	crs, err := ReadPRJ(path)
	if err != nil {
		return nil, err
	}
	r.Path = path
	r.CRS = crs
	return r, nil
}

// Create writes r to path as an ASCII grid with a .prj sidecar, creating
// parent directories as needed.
func (FileStore) Create(path string, r *Raster) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asc", ".agr":
	default:
		return fmt.Errorf("%s: %w for writing", filepath.Base(path), ErrUnsupportedFormat)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp := path + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create raster: %w", err)
	}
	if err := WriteASCIIGrid(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close raster: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize raster: %w", err)
	}
	return WritePRJ(path, r.CRS)
}

func openASCII(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := ReadASCIIGrid(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return r, nil
}
