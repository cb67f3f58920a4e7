// Command server loads configuration from the environment, wires every
// collaborator through grapher.NewApp, and serves the §6 HTTP surface
// until it receives SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/siherrmann/ragcore"
	"github.com/siherrmann/ragcore/config"
	"github.com/siherrmann/ragcore/core/budget"
	"github.com/siherrmann/ragcore/core/embedder"
	"github.com/siherrmann/ragcore/core/llm"
	"github.com/siherrmann/ragcore/helper"
	"github.com/siherrmann/ragcore/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := helper.NewLogger(cfg.Log.Format, cfg.Log.Level)

	embedClient, err := embedder.New(embedder.Config{
		Provider: cfg.Embedder.Provider,
		BaseURL:  cfg.Embedder.BaseURL,
		Model:    cfg.Embedder.Model,
		APIKey:   cfg.Embedder.APIKey,
	})
	if err != nil {
		logger.Error("create embedder client", slog.Any("error", err))
		os.Exit(1)
	}

	llmClient, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		logger.Error("create llm client", slog.Any("error", err))
		os.Exit(1)
	}

	tracker := budget.NewTracker(budget.Config{
		DailyLimit:  cfg.Budget.DailyTokenLimit,
		WarnAt:      cfg.Budget.WarnAt,
		MaxInflight: cfg.LLM.MaxInflight,
	}, func(used, limit int) {
		logger.Warn("daily LLM token budget approaching limit", slog.Int("used", used), slog.Int("limit", limit))
	}, func(used, limit int) {
		logger.Error("daily LLM token budget exceeded", slog.Int("used", used), slog.Int("limit", limit))
	})

	embeddingDim := embeddingDimension(cfg.Embedder.Model)

	app, err := grapher.NewApp(&cfg.Database, embeddingDim, embedClient, llmClient, cfg.Pipeline, tracker, logger)
	if err != nil {
		logger.Error("build application", slog.Any("error", err))
		os.Exit(1)
	}
	defer app.Close()

	trackedLLM := budget.Wrap(llmClient, tracker)

	srv := server.New(app.Orchestrator, app.Threader, app.Memory, app.Feedback, app.Threads, trackedLLM, cfg.Server, logger)
	if err := srv.Start(); err != nil {
		logger.Error("start http server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		os.Exit(1)
	}
}

// embeddingDimension maps a known embedding model name to its output
// dimension; unrecognized models default to the common 1536 used by
// OpenAI's text-embedding-3-small.
func embeddingDimension(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "nomic-embed-text":
		return 768
	default:
		return 1536
	}
}
