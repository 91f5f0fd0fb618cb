package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"rasteralign/internal/align"
	"rasteralign/internal/logging"
	"rasteralign/internal/staging"
)

// GridReport is what Inspect learned about a batch.
type GridReport struct {
	InputRoot string
	Inputs    Inputs
	Grid      align.ReferenceGrid
	Selection align.ReferenceSelection
	// Failures lists rasters that could not be reprojected or opened.
	Failures []FileOutcome
}

// Inspect derives the reference grid for the batch under inputRoot without
// writing outputs, a grid record or ledger rows. Reprojection still happens
// in a throwaway staging directory so the choice matches what Run would make.
func (r *Runner) Inspect(ctx context.Context, inputRoot string) (*GridReport, error) {
	if r.Config == nil {
		return nil, errors.New("pipeline requires a config")
	}
	root, err := filepath.Abs(inputRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve input root: %w", err)
	}
	if info, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("input root: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("input root %s is not a directory", root)
	}

	base := r.Logger
	if base == nil {
		base = logging.NewNop()
	}
	dir, err := staging.NewRunDir(r.Config.Paths.StagingDir, "inspect-"+uuid.NewString())
	if err != nil {
		return nil, err
	}
	defer dir.Remove()

	quiet := *r
	quiet.Ledger, quiet.Metrics = nil, nil
	summary := &Summary{InputRoot: root}
	rn := &run{
		Runner:  &quiet,
		opts:    Options{InputRoot: root},
		target:  r.Config.TargetCRS(),
		summary: summary,
		logger:  logging.NewComponentLogger(base, "pipeline"),
		dir:     dir,
	}

	inputs, err := Discover(root, "", r.Config)
	if err != nil {
		return nil, err
	}
	inputs = rn.claimOutputs(ctx, inputs)
	staged, err := rn.normalizeCRS(ctx, inputs.Rasters)
	if err != nil {
		return nil, err
	}
	grid, sel, err := rn.deriveGrid(logging.WithStage(ctx, "grid"), staged)
	report := &GridReport{
		InputRoot: root,
		Inputs:    inputs,
		Grid:      grid,
		Selection: sel,
		Failures:  summary.Failures(),
	}
	return report, err
}
