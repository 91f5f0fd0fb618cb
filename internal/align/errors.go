package align

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoValidData means every pixel of a raster is nodata, or it has no pixels.
	ErrNoValidData = errors.New("no valid data")
	// ErrUnresolvableCRS means a raster's reference system has no authority code.
	ErrUnresolvableCRS = errors.New("unresolvable crs")
	// ErrNoReferenceExtent means no input produced a valid extent. Batch-fatal.
	ErrNoReferenceExtent = errors.New("no reference extent")
	// ErrNoResolution means no input produced a usable pixel size. Batch-fatal.
	ErrNoResolution = errors.New("no resolution")
	// ErrResampleFailed marks a file whose warp onto the grid failed.
	ErrResampleFailed = errors.New("resample failed")
	// ErrRasterizeFailed marks a vector file that could not be rasterized.
	ErrRasterizeFailed = errors.New("rasterize failed")
)

// Wrap builds "marker: operation: path: cause" while keeping both marker and
// cause reachable through errors.Is.
func Wrap(marker error, operation, path string, err error) error {
	detail := buildDetail(operation, path)
	if marker == nil {
		marker = ErrResampleFailed
	}
	if err != nil {
		if detail == "" {
			return fmt.Errorf("%w: %w", marker, err)
		}
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	if detail == "" {
		return marker
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsBatchFatal reports whether err prevents a shared grid from being formed.
func IsBatchFatal(err error) bool {
	return errors.Is(err, ErrNoReferenceExtent) || errors.Is(err, ErrNoResolution)
}

func buildDetail(operation, path string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if path = strings.TrimSpace(path); path != "" {
		parts = append(parts, path)
	}
	return strings.Join(parts, ": ")
}
