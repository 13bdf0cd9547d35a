package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. "poster_cached").
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRunID identifies one enrichment run.
	FieldRunID = "run_id"
	// FieldEntityID identifies the catalog entity being enriched.
	FieldEntityID = "entity_id"
	// FieldProgressPercent carries run progress (0-100).
	FieldProgressPercent = "progress_percent"
)

type contextKey int

const (
	runIDKey contextKey = iota
	entityIDKey
)

// WithRunID attaches an enrichment run identifier to ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithEntityID attaches a catalog entity identifier to ctx.
func WithEntityID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, entityIDKey, id)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := ctx.Value(runIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if id, ok := ctx.Value(entityIDKey).(int); ok {
		fields = append(fields, slog.Int(FieldEntityID, id))
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
	return logger.With(Args(fields...)...)
}
