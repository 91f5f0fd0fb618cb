package publish

import (
	"context"
	"errors"
	"path/filepath"

	"rasteralign/internal/fileutil"
)

// DirPublisher copies outputs into a local directory.
type DirPublisher struct {
	Dir           string
	CompanionExts []string
}

func (p *DirPublisher) Publish(ctx context.Context, root string, files []string) (Result, error) {
	res := Result{Destination: p.Dir}
	if p.Dir == "" {
		return res, errors.New("publish directory is not configured")
	}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rel, err := relativeTo(root, file)
		if err != nil {
			return res, err
		}
		written, err := fileutil.CopyWithCompanions(file, filepath.Join(p.Dir, rel), p.CompanionExts)
		res.Written = append(res.Written, written...)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}
