package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rasteralign/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight [input-dir] [output-dir]",
		Short: "Check directories, target CRS and publishing settings",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var roots preflight.Roots
			if len(args) > 0 {
				if roots.Input, err = expandArg(args[0]); err != nil {
					return err
				}
			}
			if len(args) > 1 {
				if roots.Output, err = expandArg(args[1]); err != nil {
					return err
				}
			}

			results := preflight.RunAll(cmd.Context(), cfg, roots)
			failed := preflight.Failed(results)

			if ctx.JSONMode() {
				items := make([]map[string]any, 0, len(results))
				for _, r := range results {
					items = append(items, map[string]any{"name": r.Name, "passed": r.Passed, "detail": r.Detail})
				}
				if err := writeJSON(cmd, map[string]any{"checks": items, "failed": len(failed)}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Preflight", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}
}
