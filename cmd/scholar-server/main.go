// Command scholar-server serves the research assistant over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiaot623/scholar/internal/adapter/arxiv"
	"github.com/xiaot623/scholar/internal/adapter/llm"
	"github.com/xiaot623/scholar/internal/config"
	"github.com/xiaot623/scholar/internal/hub"
	"github.com/xiaot623/scholar/internal/policy"
	"github.com/xiaot623/scholar/internal/repository"
	"github.com/xiaot623/scholar/internal/service"
	transporthttp "github.com/xiaot623/scholar/internal/transport/http"
	"github.com/xiaot623/scholar/internal/transport/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "scholar-server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.LogLevel)

	logger.Info("starting scholar-server",
		"port", cfg.HTTPPort,
		"database", cfg.DatabaseURL,
		"llm_base_url", cfg.LLMBaseURL,
		"model", cfg.LLMModel,
		"arxiv_base_url", cfg.ArxivBaseURL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer db.Close()

	llmClient := llm.NewLLMClient(cfg.Mode, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout, logger)
	arxivClient := arxiv.NewArxivClient(cfg.Mode, cfg.ArxivBaseURL, cfg.ArxivTimeout, cfg.ArxivStorageDir, logger)

	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		return fmt.Errorf("initialize policy engine: %w", err)
	}

	// The hub outlives ctx so watchers can unregister during shutdown.
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	watchers := hub.NewHub(logger)
	go watchers.Run(hubCtx)

	svc := service.New(db, llmClient, arxivClient, policyEngine, watchers, cfg, logger)
	go svc.RunStaleRunMonitor(ctx)

	wsServer := ws.NewServer(ws.Options{
		WriteWait:      cfg.WSWriteWait,
		PongWait:       cfg.WSPongWait,
		PingPeriod:     cfg.WSPingPeriod,
		MaxMessageSize: cfg.WSMaxMessageSize,
	}, watchers, logger)

	e := transporthttp.NewServer(svc, wsServer, logger)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("api started", "port", cfg.HTTPPort)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("start server: %w", err)
	}

	logger.Info("shutting down scholar-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown server gracefully", "error", err)
	}
	stopHub()

	logger.Info("scholar-server stopped")
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
