package calculator

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the calculator's OTel instruments.
type Metrics struct {
	ops      metric.Int64Counter
	duration metric.Float64Histogram
	errors   metric.Int64Counter
	result   metric.Float64Gauge
}

// NewMetrics registers the calculator instruments on meter. Call it after
// observability.InitMetrics so the instruments use the SDK provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	m.ops, err = meter.Int64Counter("calculator.operations.total",
		metric.WithDescription("Total number of calculator operations performed"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ops counter: %w", err)
	}

	m.duration, err = meter.Float64Histogram("calculator.operation.duration",
		metric.WithDescription("Duration of calculator operations in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ops histogram: %w", err)
	}

	m.errors, err = meter.Int64Counter("calculator.errors.total",
		metric.WithDescription("Total number of calculator errors, by operation and reason"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error counter: %w", err)
	}

	m.result, err = meter.Float64Gauge("calculator.last_result",
		metric.WithDescription("The result of the last calculator operation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating result gauge: %w", err)
	}

	return &m, nil
}
