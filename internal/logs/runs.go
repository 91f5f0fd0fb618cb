package logs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoRunLogs is returned by Latest when no run has logged yet.
var ErrNoRunLogs = errors.New("no run logs found")

const (
	runLogDir = "runs"
	runLogExt = ".log"
)

// RunLogPath is where the run identified by runID writes its debug log.
func RunLogPath(logDir, runID string) string {
	return filepath.Join(logDir, runLogDir, runID+runLogExt)
}

// FindRunLog resolves a run ID, or a unique prefix of one, to its log file.
func FindRunLog(logDir, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("run id is required")
	}
	exact := RunLogPath(logDir, id)
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	}
	matches, err := filepath.Glob(filepath.Join(logDir, runLogDir, id+"*"+runLogExt))
	if err != nil {
		return "", fmt.Errorf("search run logs: %w", err)
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no run log for %q", id)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("run prefix %q is ambiguous (%d logs)", id, len(matches))
	}
}

// Latest returns the most recently modified run log.
func Latest(logDir string) (string, error) {
	entries, err := os.ReadDir(filepath.Join(logDir, runLogDir))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoRunLogs
		}
		return "", fmt.Errorf("read run logs: %w", err)
	}
	var (
		latest string
		newest int64
	)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != runLogExt {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); latest == "" || mod > newest {
			latest, newest = entry.Name(), mod
		}
	}
	if latest == "" {
		return "", ErrNoRunLogs
	}
	return filepath.Join(logDir, runLogDir, latest), nil
}
