package preflight

import (
	"context"
	"path/filepath"

	"rasteralign/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Roots are the directories of one run. Empty fields are not checked.
type Roots struct {
	Input  string
	Output string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config, roots Roots) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if roots.Input != "" {
		results = append(results, CheckReadableDirectory("Input directory", roots.Input))
	}
	if roots.Output != "" {
		results = append(results, CheckCreatable("Output directory", roots.Output))
	}

	// Staging and log directories (always checked)
	results = append(results, CheckCreatable("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckCreatable("Log directory", cfg.Paths.LogDir))

	if cfg.Paths.LedgerPath != "" {
		results = append(results, CheckCreatable("Ledger directory", filepath.Dir(cfg.Paths.LedgerPath)))
	}
	if cfg.Metrics.Enabled {
		results = append(results, CheckCreatable("Metrics directory", filepath.Dir(cfg.Metrics.TextfilePath)))
	}
	if cfg.Publish.Enabled {
		results = append(results, CheckPublish(cfg.Publish))
	}

	results = append(results, CheckTargetCRS(cfg))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
