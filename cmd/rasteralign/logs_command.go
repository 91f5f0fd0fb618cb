package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rasteralign/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		runID  string
		lines  int
		follow bool
		level  string
		stage  string
		file   string
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the debug log of a run",
		Long: `Show the debug log of a run.

Without --run the most recent run log is shown. Filters apply to decoded JSON
records; --raw prints lines exactly as written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var path string
			if runID != "" {
				path, err = logs.FindRunLog(cfg.Paths.LogDir, runID)
			} else {
				path, err = logs.Latest(cfg.Paths.LogDir)
			}
			if err != nil {
				if errors.Is(err, logs.ErrNoRunLogs) {
					fmt.Fprintln(cmd.OutOrStdout(), "No run logs found")
					return nil
				}
				return err
			}

			filter := logs.Filter{MinLevel: level, Stage: stage, File: file}
			emit := func(batch []string) {
				out := cmd.OutOrStdout()
				for _, line := range batch {
					if raw {
						fmt.Fprintln(out, line)
						continue
					}
					rec, ok := logs.ParseRecord(line)
					if !ok {
						fmt.Fprintln(out, line)
						continue
					}
					if filter.Match(rec) {
						fmt.Fprintln(out, rec.Format())
					}
				}
			}

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			emit(result.Lines)
			if !follow {
				return nil
			}

			offset := result.Offset
			for {
				next, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				emit(next.Lines)
				offset = next.Offset
			}
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run ID or unique prefix (default: latest run)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 200, "Number of trailing lines to read")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level to show (debug, info, warn, error)")
	cmd.Flags().StringVar(&stage, "stage", "", "Only show records from this stage")
	cmd.Flags().StringVar(&file, "file", "", "Only show records whose file contains this text")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw JSON lines")
	return cmd
}
