// Package app wires the board's dependencies together.
// It serves as dependency injection for the server binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/boardroom/internal/config"
	"github.com/raphaelgruber/boardroom/internal/db"
	"github.com/raphaelgruber/boardroom/internal/llm"
	"github.com/raphaelgruber/boardroom/internal/metrics"
	"github.com/raphaelgruber/boardroom/internal/service"
)

// App holds the long-lived components of a running board.
type App struct {
	db      *db.Client
	board   *service.BoardService
	metrics *metrics.Collector
	logger  *slog.Logger
}

// New connects to the database, builds the model backends and seeds the
// persona registry.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Create metrics collector for runtime statistics
	mc := metrics.NewCollector()

	dbClient, err := db.NewClient(ctx, DBConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	dbClient.SetMetrics(mc)

	if err := dbClient.InitSchema(ctx); err != nil {
		_ = dbClient.Close(ctx)
		return nil, fmt.Errorf("init schema: %w", err)
	}

	backends, err := llm.NewBackends(ctx, cfg)
	if err != nil {
		_ = dbClient.Close(ctx)
		return nil, fmt.Errorf("init models: %w", err)
	}
	completer := llm.NewCompleter(backends, CompleterOptions(cfg, mc, logger))

	board := service.NewBoardService(dbClient, completer, BoardOptions(cfg), mc, logger)

	if err := board.Registry().Initialize(ctx); err != nil {
		_ = dbClient.Close(ctx)
		return nil, fmt.Errorf("seed personas: %w", err)
	}

	logger.Info("board ready",
		"provider", cfg.LLMProvider,
		"model_high", cfg.ModelHigh,
		"model_standard", cfg.ModelStandard,
		"platform", cfg.Platform,
	)

	return &App{db: dbClient, board: board, metrics: mc, logger: logger}, nil
}

// DBConfig maps the environment configuration to database settings.
func DBConfig(cfg config.Config) db.Config {
	return db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}
}

// CompleterOptions maps the environment configuration to completer settings.
func CompleterOptions(cfg config.Config, mc *metrics.Collector, logger *slog.Logger) llm.Options {
	return llm.Options{
		Timeout:    cfg.LLMTimeout,
		RateLimit:  cfg.LLMRateLimit,
		RateWindow: cfg.LLMRateWindow,
		Metrics:    mc,
		Logger:     logger,
	}
}

// BoardOptions maps the environment configuration to orchestration settings.
func BoardOptions(cfg config.Config) service.Options {
	return service.Options{
		Platform:            cfg.Platform,
		HistoryWindow:       cfg.HistoryWindow,
		DispatchConcurrency: cfg.DispatchConcurrency,
		MaxReplyTokens:      cfg.MaxReplyTokens,
		SummaryMaxTokens:    cfg.SummaryMaxTokens,
	}
}

// Board returns the orchestrator.
func (a *App) Board() *service.BoardService {
	return a.board
}

// Metrics returns the runtime statistics collector.
func (a *App) Metrics() *metrics.Collector {
	return a.metrics
}

// Close closes all connections.
func (a *App) Close(ctx context.Context) error {
	if a.db != nil {
		return a.db.Close(ctx)
	}
	return nil
}

// WipeData deletes all data from the database. Use for testing only.
func (a *App) WipeData(ctx context.Context) error {
	if err := a.db.WipeData(ctx); err != nil {
		return err
	}
	// Personas live in the database too.
	return a.board.Registry().Initialize(ctx)
}
