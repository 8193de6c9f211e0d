package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	workeradapter "github.com/kirillkom/kyc-compliance/internal/adapters/worker"
	"github.com/kirillkom/kyc-compliance/internal/bootstrap"
	"github.com/kirillkom/kyc-compliance/internal/config"
	"github.com/kirillkom/kyc-compliance/internal/observability/logging"
	"github.com/kirillkom/kyc-compliance/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("kyc-worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("kyc-worker")
	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := app.Health(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()

	worker, err := workeradapter.New(app.Validate, workeradapter.Options{
		Concurrency: cfg.WorkerConcurrency,
		Metrics:     workerMetrics,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("worker_init_failed", "error", err)
		os.Exit(1)
	}

	logger.Info("worker_started", "backends", app.Backends, "metrics_port", cfg.WorkerMetricsPort)
	if err := worker.Run(ctx, app.Events); err != nil {
		logger.Error("worker_failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	logger.Info("worker_stopped")
}
