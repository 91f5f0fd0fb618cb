package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rasteralign/internal/align"
	"rasteralign/internal/pipeline"
)

func newGridCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "grid <input-dir>",
		Short: "Show the reference grid a batch would be aligned onto",
		Long: `Derive the reference grid for the rasters under input-dir without aligning
anything. With --output the grid record is written into that directory, where
a later "align --reuse-grid" run picks it up.`,
		Args:  cobra.ExactArgs(1),
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

			report, err := pipeline.NewRunner(cfg, logger).Inspect(cmd.Context(), input)
			if err != nil {
				return err
			}
			sidecar := ""
			if outputDir != "" {
				dir, err := expandArg(outputDir)
				if err != nil {
					return err
				}
				sidecar = sidecarFor(cfg, dir)
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
				if err := align.WriteGridRecord(sidecar, report.Grid); err != nil {
					return err
				}
			}

			if ctx.JSONMode() {
				candidates := make([]map[string]any, 0, len(report.Selection.Candidates))
				for _, c := range report.Selection.Candidates {
					candidates = append(candidates, map[string]any{
						"path":   filepath.ToSlash(c.Path),
						"extent": c.Extent.Array(),
						"area":   c.Area,
					})
				}
				skipped := make([]map[string]string, 0, len(report.Selection.Skipped))
				for _, s := range report.Selection.Skipped {
					skipped = append(skipped, map[string]string{"path": filepath.ToSlash(s.Path), "reason": s.Err.Error()})
				}
				return writeJSON(cmd, map[string]any{
					"grid":       newGridJSON(report.Grid),
					"source":     report.Selection.Source,
					"candidates": candidates,
					"skipped":    skipped,
					"rasters":    len(report.Inputs.Rasters),
					"vectors":    len(report.Inputs.Vectors),
					"sidecar":    sidecar,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Grid: %s\n", formatGrid(report.Grid))
			fmt.Fprintf(out, "Source: %s\n", report.Selection.Source)
			fmt.Fprintf(out, "Inputs: %d rasters, %d vectors\n\n", len(report.Inputs.Rasters), len(report.Inputs.Vectors))

			rows := make([][]string, 0, len(report.Selection.Candidates)+len(report.Selection.Skipped))
			for _, c := range report.Selection.Candidates {
				chosen := ""
				if c.Path == report.Selection.Source {
					chosen = "*"
				}
				rows = append(rows, []string{chosen, filepath.ToSlash(c.Path), formatExtent(c.Extent.Array()), fmt.Sprintf("%g", c.Area)})
			}
			for _, s := range report.Selection.Skipped {
				rows = append(rows, []string{"", filepath.ToSlash(s.Path), "skipped: " + s.Err.Error(), ""})
			}
			fmt.Fprint(out, renderTable(
				[]string{"", "Raster", "Extent", "Area"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			if sidecar != "" {
				fmt.Fprintf(out, "\nWrote grid record to %s\n", sidecar)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Write the grid record into this output directory")
	return cmd
}
