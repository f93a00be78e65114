package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ratrace/internal/api"
	"ratrace/internal/config"
	"ratrace/internal/game"
	"ratrace/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := cfg.Engine.Logger()

	saves, closeStore, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("open store failed", "store", cfg.Store.Kind, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	engine := game.NewEngine(saves, logger, game.Options{
		Seed:     cfg.Engine.Seed,
		Tunables: cfg.Engine.Tunables,
	})
	engine.Load(ctx)

	server := api.New(cfg, logger, engine)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	if cfg.Token == "" {
		logger.Warn("RATRACE_API_TOKEN is empty, API is unauthenticated")
	}
	logger.Info("ratrace api listening", "addr", cfg.Addr, "volatility", cfg.Engine.Tunables.Volatility)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
