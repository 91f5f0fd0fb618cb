package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for pipeline run identifiers.
	FieldRunID = "run_id"
	// FieldFile is the standardized structured logging key for the input file being processed,
	// relative to the input root.
	FieldFile = "file"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldEventType classifies a log line for filtering (e.g. file_skipped).
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names the kind of choice being logged.
	FieldDecisionType = "decision_type"
)

type contextKey string

const (
	runIDKey contextKey = "run_id"
	fileKey  contextKey = "file"
	stageKey contextKey = "stage"
)

// WithRunID annotates ctx with the pipeline run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, runIDKey)
}

// WithFile annotates ctx with the file being processed.
func WithFile(ctx context.Context, file string) context.Context {
	if file == "" {
		return ctx
	}
	return context.WithValue(ctx, fileKey, file)
}

// FileFromContext extracts the file being processed if present.
func FileFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, fileKey)
}

// WithStage annotates ctx with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, stageKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if file, ok := FileFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFile, file))
	}
	if stage, ok := StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
