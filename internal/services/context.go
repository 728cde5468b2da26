package services

import "context"

type contextKey string

const (
	workOrderIDKey contextKey = "work_order_id"
	stepIDKey      contextKey = "step_id"
	requestIDKey   contextKey = "request_id"
)

// WithWorkOrderID annotates context with the owning work order identifier.
func WithWorkOrderID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, workOrderIDKey, id)
}

// WorkOrderIDFromContext extracts the work order identifier if present.
func WorkOrderIDFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(workOrderIDKey).(int64)
	return v, ok
}

// WithStepID annotates context with the service step identifier.
func WithStepID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, stepIDKey, id)
}

// StepIDFromContext extracts the service step identifier if present.
func StepIDFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(stepIDKey).(int64)
	return v, ok
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
