// Package main provides the entry point for the board MCP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/boardroom/internal/app"
	"github.com/raphaelgruber/boardroom/internal/config"
	"github.com/raphaelgruber/boardroom/internal/server"
	"github.com/raphaelgruber/boardroom/internal/tools"
)

const version = "0.1.0"

func main() {
	cfg := config.Load()

	// Stdout carries the MCP protocol; logs go to stderr and the log file.
	logger, cleanup := config.SetupLogger(cfg, "mcp")
	defer func() { _ = cleanup() }()

	logger.Info("boardroom-mcp starting",
		"version", version,
		"surrealdb_url", cfg.SurrealDBURL,
		"provider", cfg.LLMProvider,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize board", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing database connection")
		_ = application.Close(context.Background())
	}()

	deps := &tools.Dependencies{
		Board:  application.Board(),
		Logger: logger,
	}
	srv := server.New(version, deps, logger)

	logger.Info("server ready, awaiting connections")

	// Run server (blocks until disconnect or context cancelled)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
