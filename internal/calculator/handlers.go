package calculator

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"calculator-service/internal/arith"
	"calculator-service/internal/handlers"
	"calculator-service/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; a chain of a few thousand steps fits comfortably.
const maxBodyBytes = 1 << 20

// tracerName names the calculator's dedicated OpenTelemetry tracer.
const tracerName = "calculator"

// Handler serves the calculator HTTP API on top of an arith.Calculator.
type Handler struct {
	calc    arith.Calculator
	metrics *Metrics
	tracer  trace.Tracer
}

// NewHandler builds a Handler. A nil tp uses the global tracer provider.
func NewHandler(calc arith.Calculator, metrics *Metrics, tp trace.TracerProvider) *Handler {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Handler{calc: calc, metrics: metrics, tracer: tp.Tracer(tracerName)}
}

// ---------------------------------------------------------------------------
// Handlers — binary operations
// ---------------------------------------------------------------------------

// Add handles POST /calculator/add
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	h.handleBinaryOp(w, r, arith.OpAdd)
}

// Subtract handles POST /calculator/subtract
func (h *Handler) Subtract(w http.ResponseWriter, r *http.Request) {
	h.handleBinaryOp(w, r, arith.OpSubtract)
}

// Multiply handles POST /calculator/multiply
func (h *Handler) Multiply(w http.ResponseWriter, r *http.Request) {
	h.handleBinaryOp(w, r, arith.OpMultiply)
}

// Divide handles POST /calculator/divide
func (h *Handler) Divide(w http.ResponseWriter, r *http.Request) {
	h.handleBinaryOp(w, r, arith.OpDivide)
}

// Modulus handles POST /calculator/modulus
func (h *Handler) Modulus(w http.ResponseWriter, r *http.Request) {
	h.handleBinaryOp(w, r, arith.OpModulus)
}

// Operations handles GET /calculator/operations
func (h *Handler) Operations(w http.ResponseWriter, r *http.Request) {
	ops := arith.Operations()
	names := make([]string, 0, len(ops))
	for _, op := range ops {
		names = append(names, op.String())
	}
	handlers.WriteJSON(w, http.StatusOK, OperationsResponse{Operations: names})
}

// errMissingOperand marks a request that omitted a required number.
var errMissingOperand = errors.New("missing operand")

// classify maps a calculator error to an HTTP status and a metric reason.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errMissingOperand):
		return http.StatusBadRequest, "missing_operand"
	case errors.Is(err, arith.ErrOutOfRange):
		return http.StatusUnprocessableEntity, "out_of_range"
	case errors.Is(err, arith.ErrUnknownOperation):
		return http.StatusBadRequest, "unknown_operation"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (h *Handler) handleBinaryOp(w http.ResponseWriter, r *http.Request, op arith.Operation) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	opName := op.String()

	ctx, span := h.tracer.Start(ctx, fmt.Sprintf("calculator.%s", opName),
		trace.WithAttributes(
			attribute.String("calculator.operation", opName),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req CalcRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, h.metrics.errors, observability.ErrorReport{
			Operation: opName, Reason: "invalid_body", Message: "invalid request body",
			Err: err, Status: http.StatusBadRequest,
		}, w)
		return
	}

	if req.A == nil || req.B == nil {
		observability.RecordError(ctx, span, logger, h.metrics.errors, observability.ErrorReport{
			Operation: opName, Reason: "missing_operand", Message: "missing operand: a and b are required",
			Err: fmt.Errorf("a present=%t b present=%t", req.A != nil, req.B != nil), Status: http.StatusBadRequest,
		}, w)
		return
	}
	a, b := *req.A, *req.B

	if !finite(a) || !finite(b) {
		observability.RecordError(ctx, span, logger, h.metrics.errors, observability.ErrorReport{
			Operation: opName, Reason: "invalid_number", Message: "invalid numeric input",
			Err: fmt.Errorf("a=%g b=%g", a, b), Status: http.StatusBadRequest,
		}, w)
		return
	}

	span.SetAttributes(
		attribute.Float64("calculator.operand.a", a),
		attribute.Float64("calculator.operand.b", b),
	)

	start := time.Now()
	result, err := arith.Apply(h.calc, op, a, b)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms

	if err != nil {
		status, reason := classify(err)
		observability.RecordError(ctx, span, logger, h.metrics.errors, observability.ErrorReport{
			Operation: opName, Reason: reason, Message: err.Error(),
			Err: err, Status: status,
		}, w)
		return
	}

	attrs := metric.WithAttributes(attribute.String("operation", opName))
	h.metrics.ops.Add(ctx, 1, attrs)
	h.metrics.duration.Record(ctx, elapsed, attrs)
	h.metrics.result.Record(ctx, result, attrs)

	span.AddEvent("computation.complete", trace.WithAttributes(
		attribute.Float64("result", result),
		attribute.Float64("duration_ms", elapsed),
	))
	span.SetAttributes(attribute.Float64("calculator.result", result))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator operation completed",
		zap.String("operation", opName),
		zap.Float64("a", a),
		zap.Float64("b", b),
		zap.Float64("result", result),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	handlers.WriteJSON(w, http.StatusOK, CalcResponse{
		Operation: opName,
		A:         a,
		B:         b,
		Result:    result,
	})
}

// ---------------------------------------------------------------------------
// Handler — chained operations
// ---------------------------------------------------------------------------

// Chain handles POST /calculator/chain. Each step computes op(running, value)
// through the calculator, so the running total must itself stay in range.
// Every step gets its own child span.
func (h *Handler) Chain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := h.tracer.Start(ctx, "calculator.chain",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req ChainRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, h.metrics.errors, observability.ErrorReport{
			Operation: "chain", Reason: "invalid_body", Message: "invalid request body",
			Err: err, Status: http.StatusBadRequest,
		}, w)
		return
	}

	if len(req.Steps) == 0 {
		observability.RecordError(ctx, span, logger, h.metrics.errors, observability.ErrorReport{
			Operation: "chain", Reason: "no_steps", Message: "no steps provided",
			Err: errors.New("steps array is empty"), Status: http.StatusBadRequest,
		}, w)
		return
	}

	if req.Initial == nil {
		observability.RecordError(ctx, span, logger, h.metrics.errors, observability.ErrorReport{
			Operation: "chain", Reason: "missing_operand", Message: "missing operand: initial is required",
			Err: errors.New("initial is absent"), Status: http.StatusBadRequest,
		}, w)
		return
	}
	initial := *req.Initial

	span.SetAttributes(
		attribute.Float64("chain.initial", initial),
		attribute.Int("chain.steps_count", len(req.Steps)),
	)

	logger.Info("starting chained calculation",
		zap.Float64("initial", initial),
		zap.Int("steps", len(req.Steps)),
		zap.String("request_id", requestID),
	)

	running := initial
	results := make([]ChainResult, 0, len(req.Steps))

	for i, step := range req.Steps {
		// Span name and operation attribute stay fixed until the op name is
		// known to be valid; step.Op is client input.
		_, stepSpan := h.tracer.Start(ctx, "calculator.chain.step",
			trace.WithAttributes(
				attribute.Int("chain.step.index", i),
				attribute.Float64("chain.step.input", running),
			),
		)

		stepStart := time.Now()
		prev := running

		var (
			op  arith.Operation
			err error
		)
		switch {
		case step.Value == nil:
			err = fmt.Errorf("%w: value is required", errMissingOperand)
		default:
			stepSpan.SetAttributes(attribute.Float64("chain.step.value", *step.Value))
			op, err = arith.ParseOperation(step.Op)
		}
		if err == nil {
			stepSpan.SetAttributes(attribute.String("chain.step.operation", op.String()))
			running, err = arith.Apply(h.calc, op, running, *step.Value)
		}

		stepElapsed := float64(time.Since(stepStart).Microseconds()) / 1000.0

		if err != nil {
			stepErr := fmt.Errorf("step %d: %w", i, err)

			stepSpan.RecordError(stepErr)
			stepSpan.SetStatus(codes.Error, stepErr.Error())
			stepSpan.End()

			status, reason := classify(err)
			stepLogger := logger.With(zap.Int("step", i), zap.Float64("input", prev))
			observability.RecordError(ctx, span, stepLogger, h.metrics.errors, observability.ErrorReport{
				Operation: "chain", Reason: reason, Message: stepErr.Error(),
				Err: stepErr, Status: status,
			}, w)
			return
		}

		attrs := metric.WithAttributes(attribute.String("operation", op.String()))
		h.metrics.ops.Add(ctx, 1, attrs)
		h.metrics.duration.Record(ctx, stepElapsed, attrs)

		stepSpan.AddEvent("step.complete", trace.WithAttributes(
			attribute.Float64("input", prev),
			attribute.Float64("result", running),
		))
		stepSpan.SetAttributes(attribute.Float64("chain.step.result", running))
		stepSpan.SetStatus(codes.Ok, "")
		stepSpan.End()

		logger.Debug("chain step completed",
			zap.Int("step", i),
			zap.String("operation", op.String()),
			zap.Float64("input", prev),
			zap.Float64("value", *step.Value),
			zap.Float64("result", running),
			zap.Float64("duration_ms", stepElapsed),
		)

		results = append(results, ChainResult{
			Op:     op.String(),
			Value:  *step.Value,
			Result: running,
		})
	}

	h.metrics.result.Record(ctx, running, metric.WithAttributes(attribute.String("operation", "chain")))

	span.AddEvent("chain.complete", trace.WithAttributes(
		attribute.Float64("final_result", running),
		attribute.Int("total_steps", len(req.Steps)),
	))
	span.SetAttributes(attribute.Float64("chain.result", running))
	span.SetStatus(codes.Ok, "")

	logger.Info("chained calculation completed",
		zap.Float64("initial", initial),
		zap.Float64("result", running),
		zap.Int("steps", len(req.Steps)),
		zap.String("request_id", requestID),
	)

	handlers.WriteJSON(w, http.StatusOK, ChainResponse{
		Initial: initial,
		Steps:   results,
		Result:  running,
	})
}
