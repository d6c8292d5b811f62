package observability

import (
	"context"

	"go.uber.org/zap"
)

// WithContext adds the trace and span ids of ctx to logger, if any.
func WithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	tc := ExtractTrace(ctx)
	if tc == nil {
		return logger
	}

	return logger.With(
		zap.String("trace_id", tc.TraceID),
		zap.String("span_id", tc.SpanID),
	)
}
