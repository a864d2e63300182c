package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// ExperimentKey is the context key for the experiment being applied.
	ExperimentKey contextKey = "experiment"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithExperiment adds an experiment id to the context.
func WithExperiment(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ExperimentKey, id)
}

// GetExperiment retrieves the experiment id from the context.
func GetExperiment(ctx context.Context) string {
	if id, ok := ctx.Value(ExperimentKey).(string); ok {
		return id
	}
	return ""
}

// contextHandler adds context fields to each record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetRequestID(ctx); id != "" {
		r.AddAttrs(slog.String(string(RequestIDKey), id))
	}
	if id := GetExperiment(ctx); id != "" {
		r.AddAttrs(slog.String(string(ExperimentKey), id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
