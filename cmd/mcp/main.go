package main

import (
	"context"
	"os"

	mcpadapter "github.com/kirillkom/kyc-compliance/internal/adapters/mcp"
	"github.com/kirillkom/kyc-compliance/internal/bootstrap"
	"github.com/kirillkom/kyc-compliance/internal/config"
	"github.com/kirillkom/kyc-compliance/internal/observability/logging"
)

var version = "dev"

func main() {
	cfg := config.Load()
	// stdout carries the MCP protocol.
	logger := logging.NewJSONLoggerTo(os.Stderr, "kyc-mcp", cfg.LogLevel)

	ctx := context.Background()
	var (
		app *bootstrap.App
		err error
	)
	if cfg.MCPLocal {
		app, err = bootstrap.NewLocal(ctx, cfg, logger)
	} else {
		app, err = bootstrap.New(ctx, cfg, logger)
	}
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := mcpadapter.NewServer("kyc-compliance", version, mcpadapter.Deps{
		Analyzer:   app.Analyze,
		Validator:  app.Validate,
		Summarizer: app.Summary,
		Logger:     logger,
	})
	logger.Info("mcp_server_started", "backends", app.Backends)
	if err := srv.ServeStdio(); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
