package logging

import (
	"context"
	"log/slog"

	"corral/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldPassID is the standardized structured logging key for detection pass identifiers.
	FieldPassID = "pass_id"
	// FieldGroupID is the standardized structured logging key for duplicate group identifiers.
	FieldGroupID = "group_id"
	// FieldRecord is the standardized structured logging key for record references (source/external).
	FieldRecord = "record"
	// FieldSignal is the standardized structured logging key for matching signal names.
	FieldSignal = "signal"
	// FieldEventType is the standardized structured logging key for machine-readable event labels.
	FieldEventType = "event_type"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.PassIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPassID, id))
	}
	if ref, ok := services.RecordFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRecord, ref))
	}
	if id, ok := services.GroupIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldGroupID, id))
	}
	return fields
}

// WithContext returns a logger pre-populated with the standardized fields
// derived from ctx.
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
