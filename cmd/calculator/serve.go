package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"calculator-service/internal/arith"
	"calculator-service/internal/arithrpc"
	"calculator-service/internal/calculator"
	"calculator-service/internal/config"
	"calculator-service/internal/observability"
	"calculator-service/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator over HTTP and, optionally, net/rpc",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().AddFlagSet(config.Flags())

	return cmd
}

// runServe runs until ctx is cancelled or a listener fails, then shuts the
// HTTP server down within cfg.ShutdownTimeout.
func runServe(ctx context.Context, cfg config.Config) error {
	if err := observability.InitLogger(cfg.LogLevel); err != nil {
		return err
	}
	defer observability.SyncLogger()

	telemetryShutdown, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := telemetryShutdown(flushCtx); err != nil {
			observability.Logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	metrics, err := calculator.NewMetrics(otel.Meter("calculator"))
	if err != nil {
		return err
	}

	calc := arith.New()
	logger := observability.Logger

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 2)

	if cfg.RPCAddr != "" {
		rpcSrv, err := arithrpc.NewServer(calc, logger)
		if err != nil {
			return err
		}
		lis, err := net.Listen("tcp", cfg.RPCAddr)
		if err != nil {
			return fmt.Errorf("rpc listen: %w", err)
		}

		go func() {
			logger.Info("rpc server started", zap.String("addr", lis.Addr().String()))

			if err := arithrpc.Serve(ctx, lis, rpcSrv); err != nil {
				errc <- fmt.Errorf("rpc server: %w", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewRouter(calculator.NewHandler(calc, metrics, otel.GetTracerProvider())),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.String("addr", cfg.HTTPAddr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errc:
		logger.Error("server failed", zap.Error(runErr))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("http shutdown: %w", err))
	}
	return runErr
}
