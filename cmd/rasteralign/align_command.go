package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rasteralign/internal/align"
	"rasteralign/internal/ledger"
	"rasteralign/internal/metrics"
	"rasteralign/internal/pipeline"
	"rasteralign/internal/preflight"
	"rasteralign/internal/publish"
)

// errFilesFailed is returned under --strict when any file failed.
var errFilesFailed = errors.New("one or more files failed")

func newAlignCommand(ctx *commandContext) *cobra.Command {
	var reuseGrid bool
	var publishFlag bool
	var strict bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "align <input-dir> <output-dir>",
		Short: "Align every raster and vector under a directory onto one grid",
		Long: `Align every raster and vector under input-dir onto a common reference grid.

The grid uses the smallest valid extent among the rasters and the finest
native resolution. Rasters are written as <name>_norm.asc (the suffix is
configurable), vectors are burned into <name>.asc, and the grid is recorded
in the output directory so later batches can reuse it with --reuse-grid.

A file that fails is reported and skipped; the rest of the batch continues.
Use --strict to exit with status 2 when any file failed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			input, err := expandArg(args[0])
			if err != nil {
				return err
			}
			output, err := expandArg(args[1])
			if err != nil {
				return err
			}
			publishRun := publishFlag || cfg.Publish.Enabled

			if !skipPreflight {
				checkCfg := *cfg
				checkCfg.Publish.Enabled = publishRun
				failed := preflight.Failed(preflight.RunAll(cmd.Context(), &checkCfg, preflight.Roots{Input: input, Output: output}))
				if len(failed) > 0 {
					msgs := make([]string, 0, len(failed))
					for _, f := range failed {
						msgs = append(msgs, fmt.Sprintf("%s: %s", f.Name, f.Detail))
					}
					return fmt.Errorf("preflight failed: %s", strings.Join(msgs, "; "))
				}
			}

			runner := pipeline.NewRunner(cfg, logger)
			if cfg.Metrics.Enabled {
				runner.Metrics = metrics.New()
			}
			if publishRun {
				pub, err := publish.New(cmd.Context(), cfg.Publish, cfg.Formats.CompanionExtensions)
				if err != nil {
					return fmt.Errorf("configure publishing: %w", err)
				}
				runner.Publisher = pub
			}

			var summary *pipeline.Summary
			runErr := ctx.withLedger(func(store *ledger.Store) error {
				runner.Ledger = store
				var err error
				summary, err = runner.Run(cmd.Context(), pipeline.Options{
					InputRoot:  input,
					OutputRoot: output,
					ReuseGrid:  reuseGrid,
					Publish:    publishRun,
				})
				return err
			})
			if summary != nil {
				if err := writeRunSummary(cmd, ctx.JSONMode(), summary, runErr); err != nil {
					return err
				}
			}
			if align.IsBatchFatal(runErr) {
				return &exitError{code: exitFailure, err: fmt.Errorf("%w (no input raster has valid pixels and a usable geotransform)", runErr)}
			}
			if runErr != nil {
				return runErr
			}
			if strict && summary.Counts().Failed > 0 {
				return &exitError{code: exitFilesFailed, err: fmt.Errorf("%w: %d of %d", errFilesFailed, summary.Counts().Failed, len(summary.Outcomes))}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reuseGrid, "reuse-grid", false, "Reuse the grid recorded in the output directory")
	cmd.Flags().BoolVar(&publishFlag, "publish", false, "Publish outputs when the run finishes")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with status 2 when any file failed")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip directory and configuration checks")
	return cmd
}

func writeRunSummary(cmd *cobra.Command, jsonMode bool, s *pipeline.Summary, runErr error) error {
	counts := s.Counts()
	if jsonMode {
		payload := runJSON{
			RunID:      s.RunID,
			InputRoot:  s.InputRoot,
			OutputRoot: s.OutputRoot,
			Grid:       newGridJSON(s.Grid),
			GridSource: s.GridSource,
			GridReused: s.GridReused,
			Sidecar:    s.SidecarPath,
			RunLog:     s.RunLogPath,
			Files:      make([]fileJSON, 0, len(s.Outcomes)),
			Aligned:    counts.Aligned,
			Rasterized: counts.Rasterized,
			Failed:     counts.Failed,
			Duration:   durationString(s.Duration()),
		}
		for _, o := range s.Outcomes {
			payload.Files = append(payload.Files, newFileJSON(o))
		}
		if s.Published != nil {
			payload.Published = s.Published.Written
		}
		if runErr != nil {
			payload.Error = runErr.Error()
		}
		return writeJSON(cmd, payload)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", s.RunID)
	if s.Grid.Resolution > 0 {
		source := s.GridSource
		if s.GridReused {
			source += " (reused)"
		}
		fmt.Fprintf(out, "Grid: %s\n", formatGrid(s.Grid))
		fmt.Fprintf(out, "Grid source: %s\n", source)
	}
	if len(s.Outcomes) > 0 {
		rows := make([][]string, 0, len(s.Outcomes))
		for _, o := range s.Outcomes {
			rows = append(rows, outcomeRow(s.OutputRoot, o))
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, renderTable(
			[]string{"File", "Kind", "Status", "Algorithm", "Output / Error"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
		))
	}
	fmt.Fprintf(out, "\nAligned %d, rasterized %d, failed %d in %s\n", counts.Aligned, counts.Rasterized, counts.Failed, durationString(s.Duration()))
	if s.Published != nil {
		fmt.Fprintf(out, "Published %d files to %s\n", len(s.Published.Written), s.Published.Destination)
	}
	if s.RunLogPath != "" {
		fmt.Fprintf(out, "Run log: %s\n", s.RunLogPath)
	}
	return nil
}

func newFileJSON(o pipeline.FileOutcome) fileJSON {
	f := fileJSON{
		Path:   filepath.ToSlash(o.Rel),
		Kind:   string(o.Kind),
		Status: string(o.Status),
		Output: o.Output,
	}
	if o.Plan != nil {
		f.Algorithm = string(o.Plan.Algorithm)
		f.Cropped = o.Plan.CroppedToReference
	}
	if o.Err != nil {
		f.Error = o.Err.Error()
	}
	return f
}

func outcomeRow(outputRoot string, o pipeline.FileOutcome) []string {
	algorithm := "-"
	if o.Plan != nil {
		algorithm = string(o.Plan.Algorithm)
	}
	detail := o.Output
	if rel, err := filepath.Rel(outputRoot, o.Output); err == nil && o.Output != "" {
		detail = rel
	}
	if o.Err != nil {
		detail = o.Err.Error()
	}
	return []string{filepath.ToSlash(o.Rel), label(string(o.Kind)), label(string(o.Status)), algorithm, detail}
}
