package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rasteralign/internal/align"
	"rasteralign/internal/config"
)

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	days := int(d.Hours() / 24)
	return fmt.Sprintf("%dd", days)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatExtent(e [4]float64) string {
	return fmt.Sprintf("[%g, %g, %g, %g]", e[0], e[1], e[2], e[3])
}

func formatGrid(grid align.ReferenceGrid) string {
	cols, rows := grid.Dims()
	return fmt.Sprintf("%s @ %g (%dx%d) %s", formatExtent(grid.Extent.Array()), grid.Resolution, cols, rows, grid.CRS)
}

// expandArg resolves a user supplied path the way config paths are resolved.
func expandArg(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("path is required")
	}
	return config.ExpandPath(arg)
}

// sidecarFor returns the grid record path inside dir.
func sidecarFor(cfg *config.Config, dir string) string {
	return filepath.Join(dir, cfg.Grid.SidecarName)
}

// readGrid loads a grid record, accepting either the record itself or the
// directory that holds it.
func readGrid(cfg *config.Config, path string) (align.ReferenceGrid, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = sidecarFor(cfg, path)
	}
	return align.ReadGridRecord(path, cfg.TargetCRS())
}
