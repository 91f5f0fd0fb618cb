package warp

import (
	"context"
	"fmt"

	"rasteralign/internal/raster"
)

// Store is the raster persistence the file warper reads from and writes to.
type Store interface {
	Open(path string) (*raster.Raster, error)
	Create(path string, r *raster.Raster) error
}

// FileWarper warps rasters between paths.
type FileWarper struct {
	Store Store
}

// NewFileWarper returns a warper over store, defaulting to the local
// filesystem.
func NewFileWarper(store Store) *FileWarper {
	if store == nil {
		store = raster.FileStore{}
	}
	return &FileWarper{Store: store}
}

// Warp reads src, resamples it onto the grid in opts and writes dst.
func (w *FileWarper) Warp(ctx context.Context, src, dst string, opts Options) error {
	in, err := w.Store.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	out, err := Resample(ctx, in, opts)
	if err != nil {
		return err
	}
	out.Path = dst
	if err := w.Store.Create(dst, out); err != nil {
		return fmt.Errorf("write destination: %w", err)
	}
	return nil
}
