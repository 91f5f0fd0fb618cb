package align

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"rasteralign/internal/geo"
	"rasteralign/internal/logging"
	"rasteralign/internal/raster"
	"rasteralign/internal/warp"
)

// DefaultDownsampleTolerance is the factor by which a source pixel must be
// coarser than the grid before area averaging replaces bilinear sampling.
const DefaultDownsampleTolerance = 1.01

// OutputNoData is the nodata value of every aligned output.
const OutputNoData = 0.0

// Plan records how one raster is moved onto the grid.
type Plan struct {
	// FileExtent is the raster's valid extent in the grid CRS, or the
	// reference extent when the raster has no valid data.
	FileExtent geo.Extent
	// Crop is the output bounds: the reference extent when FileExtent
	// contains it, FileExtent otherwise.
	Crop               geo.Extent
	CroppedToReference bool
	NoValidData        bool
	// NativeSize is the source pixel size; zero when it is unknown.
	NativeSize float64
	Resolution float64
	Algorithm  warp.Algorithm
}

// ChooseAlgorithm picks area averaging when the source is coarser than the
// target by at least tolerance, bilinear otherwise, and nearest neighbour
// when the native size is unknown (zero, negative or not a number).
func ChooseAlgorithm(native, target, tolerance float64) warp.Algorithm {
	if !(native > 0) || math.IsInf(native, 0) {
		return warp.Nearest
	}
	if tolerance <= 0 {
		tolerance = DefaultDownsampleTolerance
	}
	// The relative slack keeps an exact tolerance ratio on the averaging side
	// despite rounding in the product.
	if native >= target*tolerance*(1-1e-12) {
		return warp.Average
	}
	return warp.Bilinear
}

// GridNormalizer moves rasters onto a ReferenceGrid.
type GridNormalizer struct {
	Store     RasterStore
	Warper    Warper
	Tolerance float64
	Logger    *slog.Logger
}

// Plan decides the crop extent and resampling algorithm for r.
func (g *GridNormalizer) Plan(r *raster.Raster, grid ReferenceGrid) (Plan, error) {
	plan := Plan{Resolution: grid.Resolution}

	ext, err := TransformedExtent(r, grid.CRS)
	switch {
	case errors.Is(err, ErrNoValidData):
		ext = grid.Extent
		plan.NoValidData = true
	case err != nil:
		return Plan{}, Wrap(ErrResampleFailed, "transform extent", r.Path, err)
	}
	plan.FileExtent = ext

	if ext.Contains(grid.Extent) {
		plan.Crop = grid.Extent
		plan.CroppedToReference = true
	} else {
		plan.Crop = ext
	}
	plan.Crop.CRS = grid.CRS

	if size, ok := NativePixelSize(r); ok {
		plan.NativeSize = size
	}
	plan.Algorithm = ChooseAlgorithm(plan.NativeSize, grid.Resolution, g.Tolerance)
	return plan, nil
}

// Normalize writes the raster at src onto grid at dst and returns the plan
// it followed. Failures are wrapped in ErrResampleFailed.
func (g *GridNormalizer) Normalize(ctx context.Context, src, dst string, grid ReferenceGrid) (Plan, error) {
	logger := g.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	r, err := g.Store.Open(src)
	if err != nil {
		return Plan{}, Wrap(ErrResampleFailed, "open", src, err)
	}
	plan, err := g.Plan(r, grid)
	if err != nil {
		return Plan{}, err
	}

	cropReason := "file extent contains the reference extent"
	if !plan.CroppedToReference {
		cropReason = "file extent is smaller than the reference extent"
	}
	logger.Debug("grid plan",
		append(logging.Args(logging.DecisionAttrs("crop", cropReason, plan.Crop.String())...),
			logging.Extent("crop_extent", plan.Crop.Array()),
			logging.Float64("native_size", plan.NativeSize),
			logging.Float64("resolution", plan.Resolution),
			logging.String("algorithm", string(plan.Algorithm)),
		)...,
	)

	opts := warp.Options{
		DstCRS:     grid.CRS,
		Bounds:     plan.Crop,
		Resolution: grid.Resolution,
		Algorithm:  plan.Algorithm,
		DstNoData:  OutputNoData,
	}
	if err := g.Warper.Warp(ctx, src, dst, opts); err != nil {
		if ctx.Err() != nil {
			return plan, err
		}
		return plan, Wrap(ErrResampleFailed, "warp", src, err)
	}
	return plan, nil
}

// String summarises the plan for logs and tables.
func (p Plan) String() string {
	mode := "own extent"
	if p.CroppedToReference {
		mode = "reference extent"
	}
	return fmt.Sprintf("%s, %s, native %g -> %g", mode, p.Algorithm, p.NativeSize, p.Resolution)
}
