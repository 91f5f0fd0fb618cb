package staging

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rasteralign/internal/logging"
)

// CleanStaleResult contains the outcome of a stale directory cleanup operation.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes run directories under stagingDir older than maxAge.
// Only directories carrying the run prefix are considered so a staging_dir
// shared with other tools is left alone. Cancellation stops the sweep early.
func CleanStale(ctx context.Context, stagingDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return result
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), runDirPrefix) {
			continue
		}

		dirPath := filepath.Join(stagingDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			logging.WarnWithContext(logger, "failed to remove stale staging directory", "staging_cleanup_failed",
				logging.String("path", dirPath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		logger.Info("removed stale staging directory",
			logging.String("path", dirPath),
			logging.Duration("age", time.Since(info.ModTime()).Round(time.Second)),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}

	return result
}

// DirInfo contains metadata about a staging run directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListDirectories returns the run directories in stagingDir with their
// metadata. A missing staging directory yields an empty list.
func ListDirectories(stagingDir string) ([]DirInfo, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), runDirPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirPath := filepath.Join(stagingDir, entry.Name())
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    dirSize(dirPath),
		})
	}

	return dirs, nil
}

// dirSize sums regular file sizes below path, best effort.
func dirSize(path string) int64 {
	var size int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
