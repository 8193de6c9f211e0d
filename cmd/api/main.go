package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/kirillkom/kyc-compliance/internal/adapters/http"
	workeradapter "github.com/kirillkom/kyc-compliance/internal/adapters/worker"
	"github.com/kirillkom/kyc-compliance/internal/bootstrap"
	"github.com/kirillkom/kyc-compliance/internal/config"
	"github.com/kirillkom/kyc-compliance/internal/observability/logging"
	"github.com/kirillkom/kyc-compliance/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("kyc-api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	async := cfg.PipelineMode == "async"
	workerDone := make(chan struct{})
	if async && app.EventBackend == "memory" {
		// No external worker can see in-process events.
		worker, err := workeradapter.New(app.Validate, workeradapter.Options{
			Concurrency: cfg.WorkerConcurrency,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("worker_init_failed", "error", err)
			os.Exit(1)
		}
		go func() {
			defer close(workerDone)
			if err := worker.Run(ctx, app.Events); err != nil {
				logger.Error("in_process_worker_failed", "error", err)
			}
		}()
	} else {
		close(workerDone)
	}

	router, err := httpadapter.NewRouter(httpadapter.Deps{
		Pipeline:   app.Pipeline,
		Ingestor:   app.Ingest,
		Validator:  app.Validate,
		Summarizer: app.Summary,
		Reader:     app.Store,
		Analyzer:   app.Analyze,
		Metrics:    metrics.NewHTTPServerMetrics("kyc-api"),
		Logger:     logger,
		Health:     app.Health,
	}, httpadapter.Options{
		AsyncValidation: async,
		MaxUploadBytes:  cfg.MaxFileSizeBytes,
		RateLimitRPS:    cfg.APIRateLimitRPS,
		RateLimitBurst:  cfg.APIRateLimitBurst,
		MaxInFlight:     cfg.APIMaxConnections,
	})
	if err != nil {
		logger.Error("router_init_failed", "error", err)
		os.Exit(1)
	}

	ln, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		logger.Error("listen_failed", "port", cfg.APIPort, "error", err)
		os.Exit(1)
	}
	if cfg.APIMaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.APIMaxConnections)
	}

	server := &http.Server{
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort, "backends", app.Backends, "pipeline_mode", cfg.PipelineMode)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", fmt.Errorf("shutdown: %w", err))
	}
	<-workerDone
	logger.Info("api_stopped")
}
