package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rasteralign/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Manage run staging directories",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staging directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stagingDir := strings.TrimSpace(cfg.Paths.StagingDir)
			dirs, err := staging.ListDirectories(stagingDir)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}

			if ctx.JSONMode() {
				if dirs == nil {
					dirs = []staging.DirInfo{}
				}
				var totalSize int64
				for _, dir := range dirs {
					totalSize += dir.Size
				}
				return writeJSON(cmd, map[string]any{
					"staging_dir":      stagingDir,
					"directories":      dirs,
					"total_size_bytes": totalSize,
				})
			}

			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No staging directories found")
				return nil
			}
			fmt.Fprintf(out, "Staging directory: %s\n\n", stagingDir)

			var totalSize int64
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				age := time.Since(dir.ModTime).Truncate(time.Second)
				totalSize += dir.Size
				rows = append(rows, []string{dir.Name, formatDuration(age), formatBytes(dir.Size)})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Directory", "Age", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), formatBytes(totalSize))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var cleanAll bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale staging directories",
		Long: `Remove run staging directories left behind by interrupted runs.

By default only directories older than staging.stale_after_hours are removed.
Use --all to remove every run directory. Do not use --all while a run is in
progress.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			maxAge := cfg.StaleAfter()
			if cleanAll {
				maxAge = 0
			}
			result := staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, maxAge, logger)

			if ctx.JSONMode() {
				errs := make([]string, 0, len(result.Errors))
				for _, e := range result.Errors {
					errs = append(errs, fmt.Sprintf("%s: %v", e.Path, e.Error))
				}
				return writeJSON(cmd, map[string]any{
					"removed": len(result.Removed),
					"errors":  errs,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d staging directories\n", len(result.Removed))
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  failed: %s: %v\n", e.Path, e.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove all run directories regardless of age")
	return cmd
}
