package observability

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"calculator-service/internal/handlers"
)

// ErrorReport describes a failed request for RecordError.
type ErrorReport struct {
	Operation string // e.g. "add", "chain"
	Reason    string // low-cardinality metric label, e.g. "out_of_range"
	Message   string // client-facing message
	Err       error
	Status    int
}

// RecordError handles a failure uniformly across domains: the span gets the
// error and an Error status, counter is incremented by operation and reason,
// the error is logged with the request ID, and a JSON error is written to w.
func RecordError(ctx context.Context, span trace.Span, logger *zap.Logger, counter metric.Int64Counter, rep ErrorReport, w http.ResponseWriter) {
	span.RecordError(rep.Err)
	span.SetStatus(codes.Error, rep.Message)

	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", rep.Operation),
		attribute.String("reason", rep.Reason),
	))

	logger.Error(rep.Message,
		zap.String("operation", rep.Operation),
		zap.String("reason", rep.Reason),
		zap.Int("status", rep.Status),
		zap.Error(rep.Err),
		zap.String("request_id", RequestIDFromContext(ctx)),
	)

	handlers.WriteError(w, rep.Status, rep.Message)
}
