package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rasteralign/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the ledger",
		Long: `List recent runs from the ledger, newest first.

With --run, show one run (a unique prefix of its ID is enough) together with
the outcome of every file it processed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				if store == nil {
					return fmt.Errorf("run history is disabled (paths.ledger_path is empty)")
				}
				if runID != "" {
					return showRun(cmd, ctx.JSONMode(), store, runID)
				}
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					items := make([]map[string]any, 0, len(runs))
					for _, run := range runs {
						items = append(items, runToJSON(run))
					}
					return writeJSON(cmd, map[string]any{"runs": items})
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						run.StartedAt.Local().Format("2006-01-02 15:04"),
						label(string(run.Status)),
						fmt.Sprintf("%d", run.Aligned),
						fmt.Sprintf("%d", run.Rasterized),
						fmt.Sprintf("%d", run.Failed),
						runDuration(run),
						run.OutputRoot,
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Run", "Started", "Status", "Aligned", "Rasterized", "Failed", "Took", "Output"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show one run and its files")
	return cmd
}

func showRun(cmd *cobra.Command, jsonMode bool, store *ledger.Store, id string) error {
	run, err := resolveRun(cmd, store, id)
	if err != nil {
		return err
	}
	files, err := store.RunFiles(cmd.Context(), run.ID)
	if err != nil {
		return err
	}

	if jsonMode {
		payload := runToJSON(run)
		items := make([]map[string]any, 0, len(files))
		for _, f := range files {
			items = append(items, map[string]any{
				"path":                 f.RelPath,
				"kind":                 f.Kind,
				"status":               string(f.Status),
				"output":               f.OutputPath,
				"algorithm":            f.Algorithm,
				"native_size":          f.NativeSize,
				"cropped_to_reference": f.CroppedToReference,
				"error":                f.Error,
			})
		}
		payload["files"] = items
		return writeJSON(cmd, payload)
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Status", runStatusKind(run.Status), label(string(run.Status)), colorize))
	fmt.Fprintln(out, renderStatusLine("Input", statusInfo, run.InputRoot, colorize))
	fmt.Fprintln(out, renderStatusLine("Output", statusInfo, run.OutputRoot, colorize))
	fmt.Fprintln(out, renderStatusLine("Started", statusInfo, run.StartedAt.Local().Format(time.RFC3339), colorize))
	fmt.Fprintln(out, renderStatusLine("Took", statusInfo, runDuration(run), colorize))
	if run.Grid != nil {
		fmt.Fprintln(out, renderStatusLine("Grid", statusInfo,
			fmt.Sprintf("%s @ %g %s", formatExtent(run.Grid.Extent), run.Grid.Resolution, run.Grid.CRS), colorize))
	}
	if run.Error != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, run.Error, colorize))
	}
	if len(files) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		detail := f.OutputPath
		if f.Error != "" {
			detail = f.Error
		}
		algorithm := f.Algorithm
		if algorithm == "" {
			algorithm = "-"
		}
		rows = append(rows, []string{f.RelPath, label(f.Kind), label(string(f.Status)), algorithm, yesNo(f.CroppedToReference), detail})
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, renderTable(
		[]string{"File", "Kind", "Status", "Algorithm", "Cropped", "Output / Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	))
	return nil
}

// resolveRun accepts a full run ID or a unique prefix of one.
func resolveRun(cmd *cobra.Command, store *ledger.Store, id string) (*ledger.Run, error) {
	run, err := store.GetRun(cmd.Context(), id)
	if err == nil {
		return run, nil
	}
	runs, listErr := store.ListRuns(cmd.Context(), 0)
	if listErr != nil {
		return nil, listErr
	}
	var match *ledger.Run
	for _, r := range runs {
		if len(id) >= 4 && len(r.ID) >= len(id) && r.ID[:len(id)] == id {
			if match != nil {
				return nil, fmt.Errorf("run prefix %q is ambiguous", id)
			}
			match = r
		}
	}
	if match == nil {
		return nil, err
	}
	return match, nil
}

func runToJSON(run *ledger.Run) map[string]any {
	payload := map[string]any{
		"id":          run.ID,
		"input_root":  run.InputRoot,
		"output_root": run.OutputRoot,
		"status":      string(run.Status),
		"started_at":  run.StartedAt,
		"aligned":     run.Aligned,
		"rasterized":  run.Rasterized,
		"failed":      run.Failed,
	}
	if !run.FinishedAt.IsZero() {
		payload["finished_at"] = run.FinishedAt
		payload["duration"] = durationString(run.Duration())
	}
	if run.Grid != nil {
		payload["grid"] = map[string]any{
			"extent":     run.Grid.Extent,
			"resolution": run.Grid.Resolution,
			"crs":        run.Grid.CRS,
		}
	}
	if run.Error != "" {
		payload["error"] = run.Error
	}
	return payload
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runDuration(run *ledger.Run) string {
	if run.FinishedAt.IsZero() {
		return "-"
	}
	return durationString(run.Duration())
}

func runStatusKind(status ledger.RunStatus) statusKind {
	switch status {
	case ledger.RunCompleted:
		return statusOK
	case ledger.RunFailed, ledger.RunAbandoned:
		return statusError
	case ledger.RunCancelled:
		return statusWarn
	default:
		return statusInfo
	}
}
