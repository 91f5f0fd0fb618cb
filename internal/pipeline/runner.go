package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"rasteralign/internal/align"
	"rasteralign/internal/config"
	"rasteralign/internal/geo"
	"rasteralign/internal/ledger"
	"rasteralign/internal/logging"
	"rasteralign/internal/logs"
	"rasteralign/internal/metrics"
	"rasteralign/internal/publish"
	"rasteralign/internal/raster"
	"rasteralign/internal/staging"
	"rasteralign/internal/vector"
	"rasteralign/internal/warp"
)

// LockFileName is created in the output root while a run writes to it.
const LockFileName = ".rasteralign.lock"

var (
	// ErrOutputLocked is returned when another run holds the output root.
	ErrOutputLocked = errors.New("output directory is locked by another run")
	// ErrOutputConflict marks an input whose output path an earlier input
	// in the same run already claimed, as with a.asc next to a.agr.
	ErrOutputConflict = errors.New("output path already claimed")
)

// Options selects what one run does.
type Options struct {
	InputRoot  string
	OutputRoot string
	// ReuseGrid loads the grid record already in the output root instead of
	// deriving a new grid.
	ReuseGrid bool
	// Publish hands the outputs to the Publisher once every file is done.
	Publish bool
}

// Runner executes alignment runs. Zero-valued collaborators fall back to the
// file-backed implementations; Ledger, Metrics and Publisher are optional.
type Runner struct {
	Config    *config.Config
	Store     align.RasterStore
	Warper    align.Warper
	Vectors   align.VectorStore
	Ledger    *ledger.Store
	Metrics   *metrics.Recorder
	Publisher publish.Publisher
	Logger    *slog.Logger
}

// NewRunner wires the default collaborators for cfg.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	store := raster.FileStore{}
	return &Runner{
		Config:  cfg,
		Store:   store,
		Warper:  warp.NewFileWarper(store),
		Vectors: vector.ShapefileStore{},
		Logger:  logger,
	}
}

// run carries the state of a single invocation.
type run struct {
	*Runner
	opts    Options
	target  geo.CRS
	summary *Summary
	// logger carries no context fields; stages add them per call.
	logger *slog.Logger
	dir    *staging.RunDir
}

// Run executes one batch. The returned summary is non-nil whenever the run
// got far enough to be assigned an ID, including on error. Errors are
// batch-level: a missing grid, a held lock, cancellation or an unusable
// output root. File-level failures are reported only in the summary.
func (r *Runner) Run(ctx context.Context, opts Options) (summary *Summary, err error) {
	if r.Config == nil {
		return nil, errors.New("pipeline requires a config")
	}
	opts, err = resolveRoots(opts)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}

	lock := flock.New(filepath.Join(opts.OutputRoot, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, opts.OutputRoot)
	}
	defer lock.Unlock()

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	base := r.Logger
	if base == nil {
		base = logging.NewNop()
	}

	runLogPath := ""
	if r.Config.Paths.LogDir != "" {
		runLogPath = logs.RunLogPath(r.Config.Paths.LogDir, runID)
		teed, closeLog, logErr := logging.OpenRunLog(base, runLogPath)
		if logErr != nil {
			logging.WarnWithContext(base, "run log unavailable", "run_log_unavailable",
				logging.Error(logErr),
				logging.String(logging.FieldErrorHint, "check log_dir permissions"),
				logging.String(logging.FieldImpact, "debug detail for this run is not kept"),
			)
			runLogPath = ""
		} else {
			base = teed
			defer closeLog()
		}
	}
	component := logging.NewComponentLogger(base, "pipeline")
	logger := logging.WithContext(ctx, component)

	summary = &Summary{
		RunID:      runID,
		InputRoot:  opts.InputRoot,
		OutputRoot: opts.OutputRoot,
		RunLogPath: runLogPath,
		StartedAt:  time.Now(),
	}
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("input_root", opts.InputRoot),
		logging.String("output_root", opts.OutputRoot),
		logging.Bool("reuse_grid", opts.ReuseGrid),
	)

	staging.CleanStale(ctx, r.Config.Paths.StagingDir, r.Config.StaleAfter(), logger)
	dir, err := staging.NewRunDir(r.Config.Paths.StagingDir, runID)
	if err != nil {
		summary.FinishedAt = time.Now()
		return summary, err
	}
	defer func() {
		if rmErr := dir.Remove(); rmErr != nil {
			logging.WarnWithContext(logger, "failed to remove run staging directory", "staging_cleanup_failed",
				logging.String("path", dir.Path()),
				logging.Error(rmErr),
				logging.String(logging.FieldErrorHint, "remove the directory manually or wait for the stale sweep"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
	}()

	r.beginLedger(ctx, logger, summary)
	defer func() {
		summary.FinishedAt = time.Now()
		r.finish(ctx, logger, summary, err)
	}()

	rn := &run{Runner: r, opts: opts, target: r.Config.TargetCRS(), summary: summary, logger: component, dir: dir}
	return summary, rn.execute(ctx)
}

func (rn *run) execute(ctx context.Context) error {
	inputs, err := Discover(rn.opts.InputRoot, rn.opts.OutputRoot, rn.Config)
	if err != nil {
		return err
	}
	logging.WithContext(ctx, rn.logger).Info("inputs discovered",
		logging.String(logging.FieldEventType, "discovery"),
		logging.Int("rasters", len(inputs.Rasters)),
		logging.Int("vectors", len(inputs.Vectors)),
	)
	inputs = rn.claimOutputs(ctx, inputs)

	staged, err := rn.normalizeCRS(ctx, inputs.Rasters)
	if err != nil {
		return err
	}

	grid, err := rn.resolveGrid(ctx, staged)
	if err != nil {
		return err
	}
	rn.summary.Grid = grid
	rn.recordGrid(ctx, grid)

	if err := rn.alignRasters(ctx, staged, grid); err != nil {
		return err
	}
	if err := rn.rasterizeVectors(ctx, inputs.Vectors, grid); err != nil {
		return err
	}
	if rn.opts.Publish {
		rn.publish(ctx)
	}
	return nil
}

// claimOutputs gives every output path to the first input that maps onto
// it, rasters before vectors, each in lexical order. Later claimants fail
// with ErrOutputConflict and are dropped from the batch.
func (rn *run) claimOutputs(ctx context.Context, inputs Inputs) Inputs {
	claimed := make(map[string]string, inputs.Total())
	keep := func(list []Input) []Input {
		kept := list[:0:0]
		for _, in := range list {
			out := OutputPath("", in, rn.Config.Grid.OutputSuffix)
			if owner, ok := claimed[out]; ok {
				rn.fail(logging.WithFile(ctx, in.Rel), in,
					fmt.Errorf("%w: %s is written by %s", ErrOutputConflict, out, owner))
				continue
			}
			claimed[out] = in.Rel
			kept = append(kept, in)
		}
		return kept
	}
	inputs.Rasters = keep(inputs.Rasters)
	inputs.Vectors = keep(inputs.Vectors)
	return inputs
}

// stagedRaster is a raster input after CRS normalization.
type stagedRaster struct {
	Input
	Staged string
}

func (rn *run) normalizeCRS(ctx context.Context, rasters []Input) ([]stagedRaster, error) {
	ctx = logging.WithStage(ctx, "crs")
	normalizer := &align.CRSNormalizer{Store: rn.Store, Warper: rn.Warper}
	staged := make([]stagedRaster, 0, len(rasters))
	for _, in := range rasters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileCtx := logging.WithFile(ctx, in.Rel)
		normalizer.Logger = logging.WithContext(fileCtx, rn.logger)

		// Staged copies mirror the claimed output name, so they cannot collide.
		dst, err := rn.dir.File(OutputPath("", in, rn.Config.Grid.OutputSuffix))
		if err == nil {
			dst, err = normalizer.Normalize(fileCtx, in.Path, rn.target, dst)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			rn.fail(fileCtx, in, err)
			continue
		}
		staged = append(staged, stagedRaster{Input: in, Staged: dst})
	}
	return staged, nil
}

func (rn *run) resolveGrid(ctx context.Context, staged []stagedRaster) (align.ReferenceGrid, error) {
	ctx = logging.WithStage(ctx, "grid")
	logger := logging.WithContext(ctx, rn.logger)
	sidecar := filepath.Join(rn.opts.OutputRoot, rn.Config.Grid.SidecarName)
	rn.summary.SidecarPath = sidecar

	if rn.opts.ReuseGrid {
		grid, err := align.ReadGridRecord(sidecar, rn.target)
		if err != nil {
			return align.ReferenceGrid{}, fmt.Errorf("reuse grid: %w", err)
		}
		if !grid.CRS.Equal(rn.target) {
			return align.ReferenceGrid{}, fmt.Errorf("reuse grid: record is in %s, target is %s", grid.CRS, rn.target)
		}
		rn.summary.GridReused = true
		rn.summary.GridSource = sidecar
		logger.Info("reference grid reused",
			logging.String(logging.FieldEventType, "grid_reused"),
			logging.Extent("extent", grid.Extent.Array()),
			logging.Float64("resolution", grid.Resolution),
		)
		return grid, nil
	}

	grid, sel, err := rn.deriveGrid(ctx, staged)
	rn.summary.Selection = sel
	if err != nil {
		return align.ReferenceGrid{}, err
	}
	rn.summary.GridSource = sel.Source

	if err := align.WriteGridRecord(sidecar, grid); err != nil {
		return align.ReferenceGrid{}, fmt.Errorf("persist grid: %w", err)
	}
	cols, rows := grid.Dims()
	logger.Info("reference grid selected",
		append(logging.Args(logging.DecisionAttrs("reference_extent", sel.Source, "smallest valid extent")...),
			logging.String(logging.FieldEventType, "grid_selected"),
			logging.Extent("extent", grid.Extent.Array()),
			logging.Float64("resolution", grid.Resolution),
			logging.Int("cols", cols),
			logging.Int("rows", rows),
			logging.Int("candidates", len(sel.Candidates)),
			logging.String("sidecar", sidecar),
		)...,
	)
	return grid, nil
}

// deriveGrid builds the reference grid from the staged rasters. Rasters that
// cannot be opened are recorded as failures and take no part in the choice.
func (rn *run) deriveGrid(ctx context.Context, staged []stagedRaster) (align.ReferenceGrid, align.ReferenceSelection, error) {
	logger := logging.WithContext(ctx, rn.logger)
	rasters := make([]*raster.Raster, 0, len(staged))
	for _, s := range staged {
		r, err := rn.Store.Open(s.Staged)
		if err != nil {
			rn.fail(logging.WithFile(ctx, s.Rel), s.Input, align.Wrap(align.ErrResampleFailed, "open", s.Staged, err))
			continue
		}
		r.Path = s.Rel
		rasters = append(rasters, r)
	}

	grid, sel, err := align.BuildReferenceGrid(rasters, rn.target)
	for _, skipped := range sel.Skipped {
		logger.Debug("raster skipped for reference extent",
			logging.String(logging.FieldFile, skipped.Path),
			logging.Error(skipped.Err),
		)
	}
	if err != nil {
		logging.ErrorWithContext(logger, "reference grid unavailable", "grid_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "at least one input raster needs valid pixels and a usable geotransform"),
			logging.String(logging.FieldImpact, "no files aligned"),
		)
		return align.ReferenceGrid{}, sel, err
	}
	return grid, sel, nil
}

func (rn *run) alignRasters(ctx context.Context, staged []stagedRaster, grid align.ReferenceGrid) error {
	ctx = logging.WithStage(ctx, "normalize")
	normalizer := &align.GridNormalizer{
		Store:     rn.Store,
		Warper:    rn.Warper,
		Tolerance: rn.Config.Grid.DownsampleTolerance,
	}
	for _, s := range staged {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rn.failed(s.Rel) {
			continue
		}
		fileCtx := logging.WithFile(ctx, s.Rel)
		fileLogger := logging.WithContext(fileCtx, rn.logger)
		normalizer.Logger = fileLogger

		dst := OutputPath(rn.opts.OutputRoot, s.Input, rn.Config.Grid.OutputSuffix)
		plan, err := normalizer.Normalize(fileCtx, s.Staged, dst, grid)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			rn.fail(fileCtx, s.Input, err)
			continue
		}
		rn.succeed(fileCtx, FileOutcome{
			Path: s.Path, Rel: s.Rel, Kind: KindRaster, Status: StatusAligned, Output: dst, Plan: &plan,
		})
		fileLogger.Info("raster aligned",
			logging.String(logging.FieldEventType, "file_aligned"),
			logging.String("output", dst),
			logging.String("algorithm", string(plan.Algorithm)),
			logging.Bool("cropped_to_reference", plan.CroppedToReference),
		)
	}
	return nil
}

func (rn *run) rasterizeVectors(ctx context.Context, vectors []Input, grid align.ReferenceGrid) error {
	ctx = logging.WithStage(ctx, "rasterize")
	rasterizer := &align.Rasterizer{Vectors: rn.Vectors, Store: rn.Store, BurnValue: rn.Config.Grid.BurnValue}
	for _, in := range vectors {
		if err := ctx.Err(); err != nil {
			return err
		}
		fileCtx := logging.WithFile(ctx, in.Rel)
		dst := OutputPath(rn.opts.OutputRoot, in, rn.Config.Grid.OutputSuffix)
		if err := rasterizer.RasterizeFile(fileCtx, in.Path, dst, grid); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			rn.fail(fileCtx, in, err)
			continue
		}
		rn.succeed(fileCtx, FileOutcome{Path: in.Path, Rel: in.Rel, Kind: KindVector, Status: StatusRasterized, Output: dst})
		logging.WithContext(fileCtx, rn.logger).Info("vector rasterized",
			logging.String(logging.FieldEventType, "file_rasterized"),
			logging.String("output", dst),
		)
	}
	return nil
}

func (rn *run) publish(ctx context.Context) {
	ctx = logging.WithStage(ctx, "publish")
	logger := logging.WithContext(ctx, rn.logger)
	if rn.Publisher == nil {
		logging.WarnWithContext(logger, "publish requested but no publisher is configured", "publish_skipped",
			logging.String(logging.FieldErrorHint, "enable [publish] in the config"),
			logging.String(logging.FieldImpact, "outputs stay local"),
		)
		return
	}
	files := rn.summary.Outputs()
	if rn.summary.SidecarPath != "" {
		if _, err := os.Stat(rn.summary.SidecarPath); err == nil {
			files = append(files, rn.summary.SidecarPath)
		}
	}
	res, err := rn.Publisher.Publish(ctx, rn.opts.OutputRoot, files)
	rn.summary.Published = &res
	if err != nil {
		logging.WarnWithContext(logger, "publish failed", "publish_failed",
			logging.Error(err),
			logging.Int("written", len(res.Written)),
			logging.String(logging.FieldErrorHint, "check publish credentials and destination"),
			logging.String(logging.FieldImpact, "outputs only partially published"),
		)
		return
	}
	logger.Info("outputs published",
		logging.String(logging.FieldEventType, "published"),
		logging.String("destination", res.Destination),
		logging.Int("files", len(res.Written)),
	)
}

func (rn *run) fail(ctx context.Context, in Input, err error) {
	outcome := FileOutcome{Path: in.Path, Rel: in.Rel, Kind: in.Kind, Status: StatusFailed, Err: err}
	rn.summary.Outcomes = append(rn.summary.Outcomes, outcome)
	hint := "check the file's georeferencing and nodata value"
	switch {
	case errors.Is(err, align.ErrRasterizeFailed):
		hint = "check the shapefile and its .prj sidecar"
	case errors.Is(err, ErrOutputConflict):
		hint = "rename one of the inputs that share a stem"
	}
	logging.WarnWithContext(logging.WithContext(ctx, rn.logger), "file failed", "file_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, "file skipped; batch continues"),
	)
	rn.recordFile(ctx, outcome)
}

func (rn *run) succeed(ctx context.Context, outcome FileOutcome) {
	rn.summary.Outcomes = append(rn.summary.Outcomes, outcome)
	rn.recordFile(ctx, outcome)
}

func (rn *run) failed(rel string) bool {
	for _, o := range rn.summary.Outcomes {
		if o.Rel == rel && o.Failed() {
			return true
		}
	}
	return false
}

func resolveRoots(opts Options) (Options, error) {
	if strings.TrimSpace(opts.InputRoot) == "" || strings.TrimSpace(opts.OutputRoot) == "" {
		return opts, errors.New("input and output directories are required")
	}
	var err error
	if opts.InputRoot, err = filepath.Abs(opts.InputRoot); err != nil {
		return opts, fmt.Errorf("resolve input root: %w", err)
	}
	if opts.OutputRoot, err = filepath.Abs(opts.OutputRoot); err != nil {
		return opts, fmt.Errorf("resolve output root: %w", err)
	}
	info, err := os.Stat(opts.InputRoot)
	if err != nil {
		return opts, fmt.Errorf("input root: %w", err)
	}
	if !info.IsDir() {
		return opts, fmt.Errorf("input root %s is not a directory", opts.InputRoot)
	}
	return opts, nil
}
