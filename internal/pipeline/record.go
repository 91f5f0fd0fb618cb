package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"rasteralign/internal/align"
	"rasteralign/internal/ledger"
	"rasteralign/internal/logging"
)

// beginLedger opens the run's ledger row after sweeping rows left running by
// a crashed process. Ledger failures never stop a run.
func (r *Runner) beginLedger(ctx context.Context, logger *slog.Logger, summary *Summary) {
	if r.Ledger == nil {
		return
	}
	abandoned, err := r.Ledger.MarkAbandoned(ctx)
	if err != nil {
		r.ledgerWarn(logger, "mark abandoned runs", err)
	} else if abandoned > 0 {
		logger.Info("abandoned runs marked",
			logging.String(logging.FieldEventType, "runs_abandoned"),
			logging.Int64("count", abandoned),
		)
	}
	if _, err := r.Ledger.BeginRun(ctx, summary.RunID, summary.InputRoot, summary.OutputRoot); err != nil {
		r.ledgerWarn(logger, "begin run", err)
	}
}

// finish closes the ledger row, records run metrics and logs the summary.
func (r *Runner) finish(ctx context.Context, logger *slog.Logger, summary *Summary, runErr error) {
	status := ledger.RunCompleted
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		status = ledger.RunCancelled
	default:
		status = ledger.RunFailed
	}

	// The caller's context may already be cancelled; the final row must
	// still be written.
	finishCtx := context.WithoutCancel(ctx)
	if r.Ledger != nil {
		if err := r.Ledger.FinishRun(finishCtx, summary.RunID, status, runErr); err != nil {
			r.ledgerWarn(logger, "finish run", err)
		}
	}

	if r.Metrics != nil {
		r.Metrics.ObserveRun(string(status), summary.Duration(), summary.FinishedAt)
		if r.Config.Metrics.Enabled && r.Config.Metrics.TextfilePath != "" {
			if err := r.Metrics.WriteTextfile(r.Config.Metrics.TextfilePath); err != nil {
				logging.WarnWithContext(logger, "metrics textfile not written", "metrics_write_failed",
					logging.Error(err),
					logging.String("path", r.Config.Metrics.TextfilePath),
					logging.String(logging.FieldErrorHint, "check metrics.textfile_path permissions"),
					logging.String(logging.FieldImpact, "node exporter keeps the previous values"),
				)
			}
		}
	}

	counts := summary.Counts()
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("status", string(status)),
		logging.Int("aligned", counts.Aligned),
		logging.Int("rasterized", counts.Rasterized),
		logging.Int("failed", counts.Failed),
		logging.Duration("duration", summary.Duration()),
	}
	if runErr != nil {
		logging.ErrorWithContext(logger, "run failed", "run_failed", append(attrs,
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, "see the run log for the failing stage"),
			logging.String(logging.FieldImpact, "outputs may be incomplete"),
		)...)
		return
	}
	logger.Info("run complete", logging.Args(attrs...)...)
}

func (rn *run) recordGrid(ctx context.Context, grid align.ReferenceGrid) {
	if rn.Metrics != nil {
		cols, rows := grid.Dims()
		rn.Metrics.ObserveGrid(grid.Resolution, cols, rows)
	}
	if rn.Ledger == nil {
		return
	}
	err := rn.Ledger.RecordGrid(ctx, rn.summary.RunID, ledger.Grid{
		Extent:     grid.Extent.Array(),
		Resolution: grid.Resolution,
		CRS:        grid.CRS.String(),
	})
	if err != nil {
		rn.ledgerWarn(logging.WithContext(ctx, rn.logger), "record grid", err)
	}
}

func (rn *run) recordFile(ctx context.Context, outcome FileOutcome) {
	algorithm := ""
	if outcome.Plan != nil {
		algorithm = string(outcome.Plan.Algorithm)
	}
	if rn.Metrics != nil {
		rn.Metrics.ObserveFile(string(outcome.Kind), string(outcome.Status), algorithm)
	}
	if rn.Ledger == nil {
		return
	}
	rec := ledger.FileRecord{
		RunID:      rn.summary.RunID,
		RelPath:    outcome.Rel,
		Kind:       string(outcome.Kind),
		Status:     fileStatus(outcome.Status),
		OutputPath: outcome.Output,
		Algorithm:  algorithm,
	}
	if outcome.Plan != nil {
		rec.NativeSize = outcome.Plan.NativeSize
		rec.CroppedToReference = outcome.Plan.CroppedToReference
	}
	if outcome.Err != nil {
		rec.Error = outcome.Err.Error()
	}
	if err := rn.Ledger.RecordFile(ctx, rec); err != nil {
		rn.ledgerWarn(logging.WithContext(ctx, rn.logger), "record file", err)
	}
}

func (r *Runner) ledgerWarn(logger *slog.Logger, op string, err error) {
	logging.WarnWithContext(logger, "ledger write failed", "ledger_write_failed",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check paths.ledger_path"),
		logging.String(logging.FieldImpact, "run history incomplete"),
	)
}

func fileStatus(s Status) ledger.FileStatus {
	switch s {
	case StatusAligned:
		return ledger.FileAligned
	case StatusRasterized:
		return ledger.FileRasterized
	default:
		return ledger.FileFailed
	}
}
