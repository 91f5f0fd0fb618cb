package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const runDirPrefix = "run-"

// RunDir is the scratch directory owned by a single pipeline run. Reprojected
// intermediates live here and are removed together when the run ends.
type RunDir struct {
	path string
}

// NewRunDir creates <stagingDir>/run-<runID>.
func NewRunDir(stagingDir, runID string) (*RunDir, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	runID = strings.TrimSpace(runID)
	if stagingDir == "" {
		return nil, errors.New("staging directory not configured")
	}
	if runID == "" || strings.ContainsAny(runID, `/\`) {
		return nil, fmt.Errorf("invalid run id %q", runID)
	}
	path := filepath.Join(stagingDir, runDirPrefix+runID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create run staging directory: %w", err)
	}
	return &RunDir{path: path}, nil
}

// Path returns the run directory.
func (d *RunDir) Path() string {
	return d.path
}

// File returns a staging path for the input file identified by rel (a path
// relative to the input root). The result mirrors rel under the run directory
// so files with the same base name in different folders cannot collide.
func (d *RunDir) File(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
		return "", fmt.Errorf("staging path %q escapes the run directory", rel)
	}
	path := filepath.Join(d.path, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create staging subdirectory: %w", err)
	}
	return path, nil
}

// Remove deletes the run directory and everything in it. It is safe to call
// more than once.
func (d *RunDir) Remove() error {
	if d == nil || d.path == "" {
		return nil
	}
	if err := os.RemoveAll(d.path); err != nil {
		return fmt.Errorf("remove run staging directory: %w", err)
	}
	return nil
}
