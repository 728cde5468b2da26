package logging

import (
	"context"
	"log/slog"

	"fabworks/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldWorkOrderID is the standardized structured logging key for work order identifiers.
	FieldWorkOrderID = "work_order_id"
	// FieldStepID is the standardized structured logging key for service step identifiers.
	FieldStepID = "step_id"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.WorkOrderIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldWorkOrderID, id))
	}
	if id, ok := services.StepIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldStepID, id))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
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
