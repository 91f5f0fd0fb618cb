package publish

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"rasteralign/internal/config"
)

// Publisher delivers the files of a finished run. files are primaries
// located under root; their destination mirrors the path relative to root.
type Publisher interface {
	Publish(ctx context.Context, root string, files []string) (Result, error)
}

// Result lists what a publisher wrote.
type Result struct {
	Destination string
	Written     []string
}

// New builds the publisher selected by cfg.Driver.
func New(ctx context.Context, cfg config.Publish, companionExts []string) (Publisher, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3(ctx, cfg, companionExts)
	case "dir":
		return &DirPublisher{Dir: cfg.Dir, CompanionExts: companionExts}, nil
	default:
		return nil, fmt.Errorf("unknown publish driver %q", cfg.Driver)
	}
}

func relativeTo(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", path, root)
	}
	return rel, nil
}
