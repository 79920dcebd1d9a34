// Package ctxlog provides a context key for safely passing a slog.Logger
// instance through context.Context, the same mechanism the teacher
// (burstgridgo) threads its logger through construction/run/worker calls.
package ctxlog

import (
	"context"
	"log/slog"
)

type key struct{}

var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the slog.Logger from a context. If none was
// attached, it returns slog.Default() rather than panicking, since the
// graph/executor core is a library and must tolerate callers who never
// call WithLogger.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
