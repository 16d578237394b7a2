package main

import (
	"context"
	"errors"

	"calculator-service/internal/config"
	"calculator-service/internal/observability"
)

// initTelemetry starts the OTLP pipelines enabled in cfg. The returned
// shutdown flushes them in reverse order of start-up.
func initTelemetry(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	var shutdowns []func(context.Context) error

	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	steps := []struct {
		enabled bool
		start   func(context.Context, string) (func(context.Context) error, error)
	}{
		{cfg.Telemetry.Traces, observability.InitTracing},
		{cfg.Telemetry.Metrics, observability.InitMetrics},
		{cfg.Telemetry.Logs, observability.InitLogging},
	}

	for _, step := range steps {
		if !step.enabled {
			continue
		}
		fn, err := step.start(ctx, cfg.ServiceName)
		if err != nil {
			return nil, errors.Join(err, shutdown(ctx))
		}
		shutdowns = append(shutdowns, fn)
	}

	return shutdown, nil
}
