package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rasteralign/internal/align"
	"rasteralign/internal/logging"
	"rasteralign/internal/preview"
	"rasteralign/internal/raster"
	"rasteralign/internal/series"
	"rasteralign/internal/vector"
)

func newRasterizeCommand(ctx *commandContext) *cobra.Command {
	var gridPath string
	var burn float64

	cmd := &cobra.Command{
		Use:   "rasterize <vector.shp> <output.asc>",
		Short: "Burn a vector layer onto a recorded grid",
		Long: `Burn a vector layer onto the grid recorded by a previous align run.

--grid accepts the grid record itself or the output directory that holds it.
Cells touched by a geometry get the burn value; every other cell is 0.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			src, err := expandArg(args[0])
			if err != nil {
				return err
			}
			dst, err := expandArg(args[1])
			if err != nil {
				return err
			}
			if strings.TrimSpace(gridPath) == "" {
				return fmt.Errorf("--grid is required")
			}
			gridFile, err := expandArg(gridPath)
			if err != nil {
				return err
			}
			grid, err := readGrid(cfg, gridFile)
			if err != nil {
				return err
			}

			value := cfg.Grid.BurnValue
			if cmd.Flags().Changed("burn") {
				value = burn
			}
			if !align.ValidBurnValue(value) {
				return fmt.Errorf("--burn %g must be finite and differ from the nodata value %g", value, align.OutputNoData)
			}
			z := &align.Rasterizer{Vectors: vector.ShapefileStore{}, Store: raster.FileStore{}, BurnValue: value}
			if err := z.RasterizeFile(cmd.Context(), src, dst, grid); err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"input":  src,
					"output": dst,
					"grid":   newGridJSON(grid),
					"burn":   value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rasterized %s onto %s\nWrote %s\n", filepath.Base(src), formatGrid(grid), dst)
			return nil
		},
	}

	cmd.Flags().StringVarP(&gridPath, "grid", "g", "", "Grid record or the directory holding it")
	cmd.Flags().Float64Var(&burn, "burn", 0, "Burn value (defaults to grid.burn_value)")
	return cmd
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "preview <raster> [image]",
		Short: "Render a raster as a heat map and print its statistics",
		Long: `Render a raster as a heat map and print its statistics.

The image format follows the extension of image (.png by default, .svg and
.pdf also work). Without image the picture is written next to the raster.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			src, err := expandArg(args[0])
			if err != nil {
				return err
			}
			r, err := (raster.FileStore{}).Open(src)
			if err != nil {
				return err
			}

			target := strings.TrimSuffix(src, filepath.Ext(src)) + ".png"
			if len(args) > 1 {
				if target, err = expandArg(args[1]); err != nil {
					return err
				}
			}
			stats := preview.Summarize(r)
			err = preview.Render(r, target, preview.Options{
				Title:         title,
				WidthInches:   cfg.Preview.WidthInches,
				HeightInches:  cfg.Preview.HeightInches,
				PaletteColors: cfg.Preview.PaletteColors,
			})
			if err != nil {
				return err
			}

			rows, cols := r.Dims()
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"input":   src,
					"output":  target,
					"rows":    rows,
					"cols":    cols,
					"extent":  r.Footprint().Array(),
					"crs":     r.CRS.String(),
					"valid":   stats.Valid,
					"total":   stats.Total,
					"min":     stats.Min,
					"max":     stats.Max,
					"mean":    stats.Mean,
					"std_dev": stats.StdDev,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderTable(
				[]string{"Property", "Value"},
				[][]string{
					{"Size", fmt.Sprintf("%d x %d", cols, rows)},
					{"Extent", formatExtent(r.Footprint().Array())},
					{"CRS", r.CRS.String()},
					{"Valid cells", fmt.Sprintf("%d / %d", stats.Valid, stats.Total)},
					{"Min", fmt.Sprintf("%g", stats.Min)},
					{"Max", fmt.Sprintf("%g", stats.Max)},
					{"Mean", fmt.Sprintf("%.4g", stats.Mean)},
					{"Std dev", fmt.Sprintf("%.4g", stats.StdDev)},
				},
				[]columnAlignment{alignLeft, alignRight},
			))
			fmt.Fprintf(out, "Wrote %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Plot title (defaults to the file name)")
	return cmd
}

func newDiffCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <dir> [out-dir]",
		Short: "Difference consecutive rasters of an aligned time series",
		Long: `Order the rasters directly inside dir by the year in their names and write
the absolute difference of each consecutive pair as <later>_diff.asc into
out-dir (dir itself by default).

Run this on the output of align so every raster shares one grid.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			dir, err := expandArg(args[0])
			if err != nil {
				return err
			}
			target := dir
			if len(args) > 1 {
				if target, err = expandArg(args[1]); err != nil {
					return err
				}
			}

			differ := &series.Differ{
				Store:      raster.FileStore{},
				Extensions: cfg.Formats.RasterExtensions,
				Logger:     logging.NewComponentLogger(logger, "series"),
			}
			pairs, err := differ.Run(cmd.Context(), dir, target)
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				items := make([]map[string]any, 0, len(pairs))
				for _, p := range pairs {
					items = append(items, map[string]any{
						"earlier": filepath.Base(p.Earlier),
						"later":   filepath.Base(p.Later),
						"output":  p.Output,
						"rows":    p.Rows,
						"cols":    p.Cols,
					})
				}
				return writeJSON(cmd, map[string]any{"pairs": items})
			}
			out := cmd.OutOrStdout()
			if len(pairs) == 0 {
				fmt.Fprintln(out, "Fewer than two rasters found; nothing to difference")
				return nil
			}
			rows := make([][]string, 0, len(pairs))
			for _, p := range pairs {
				rows = append(rows, []string{filepath.Base(p.Earlier), filepath.Base(p.Later), filepath.Base(p.Output), fmt.Sprintf("%dx%d", p.Cols, p.Rows)})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Earlier", "Later", "Output", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}
