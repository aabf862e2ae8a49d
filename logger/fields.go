package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across joulebench.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldBatchID   = "batch_id"
	FieldRequestID = "request_id"

	// Components
	FieldComponent = "component"

	// Operations
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldAction    = "action"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError     = "error"
	FieldErrorKind = "error_kind"

	// Counts and sizes
	FieldCount   = "count"
	FieldWritten = "written"
	FieldIndex   = "index"

	// Files and storage
	FieldFile    = "file"
	FieldDir     = "dir"
	FieldDriver  = "driver"
	FieldAddress = "address"

	// Benchmark domain
	FieldAlgorithm = "algorithm"
	FieldDataSize  = "data_size"
	FieldMethodTag = "measurement_method"
	FieldTimestamp = "benchmark_timestamp"
)

// Context keys for propagating logging context
type contextKey string

const (
	batchIDKey   contextKey = "logger_batch_id"
	requestIDKey contextKey = "logger_request_id"
	componentKey contextKey = "logger_component"
)

// WithBatchID adds an import batch ID to the context for logging
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, batchIDKey, batchID)
}

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if batchID, ok := ctx.Value(batchIDKey).(string); ok && batchID != "" {
		fields = append(fields, FieldBatchID, batchID)
	}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// FromContext returns base with the fields carried by ctx attached.
// A nil base falls back to the global Logger.
func FromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	importer := ix.NewImporter(store, ix.Options{
//	    Logger: logger.ComponentLogger("ix"),
//	})
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
