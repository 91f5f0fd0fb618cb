package align

import (
	"context"
	"fmt"
	"log/slog"

	"rasteralign/internal/geo"
	"rasteralign/internal/logging"
	"rasteralign/internal/warp"
)

// CRSNormalizer reprojects rasters whose CRS differs from the target.
type CRSNormalizer struct {
	Store  RasterStore
	Warper Warper
	Logger *slog.Logger
}

// Normalize returns a path to a raster equivalent to the one at path whose
// CRS is target. A raster already in target is returned as is and nothing is
// written. A raster whose CRS carries no authority code is assumed to be
// compliant and is also returned unchanged. Anything else is reprojected into
// dst with nearest-neighbour sampling over its full footprint, and dst is
// returned.
func (n *CRSNormalizer) Normalize(ctx context.Context, path string, target geo.CRS, dst string) (string, error) {
	logger := n.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	src, err := n.Store.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}

	if src.CRS.Equal(target) {
		return path, nil
	}
	if !src.CRS.Known() {
		logging.WarnWithContext(logger, "raster has no resolvable crs; assuming it already matches the target", "crs_assumed",
			logging.String("path", path),
			logging.String("target_crs", target.String()),
			logging.Error(Wrap(ErrUnresolvableCRS, "normalize crs", path, nil)),
			logging.String(logging.FieldErrorHint, "add a .prj sidecar naming the EPSG code"),
			logging.String(logging.FieldImpact, "raster used without reprojection"),
		)
		return path, nil
	}

	bounds, res, err := warp.SuggestGrid(src, target)
	if err != nil {
		return "", Wrap(ErrResampleFailed, "reproject", path, err)
	}
	nodata := 0.0
	if src.HasNoData {
		nodata = src.NoData
	}
	opts := warp.Options{
		DstCRS:     target,
		Bounds:     bounds,
		Resolution: res,
		Algorithm:  warp.Nearest,
		DstNoData:  nodata,
	}
	if err := n.Warper.Warp(ctx, path, dst, opts); err != nil {
		return "", Wrap(ErrResampleFailed, "reproject", path, err)
	}
	logger.Debug("reprojected raster",
		logging.String("path", path),
		logging.String("staged", dst),
		logging.String("source_crs", src.CRS.String()),
		logging.String("target_crs", target.String()),
		logging.Float64("resolution", res),
	)
	return dst, nil
}
