package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/meetverse/eventcal/feed"
	"github.com/meetverse/eventcal/internal/config"
	"github.com/meetverse/eventcal/recurrence"
	"github.com/meetverse/eventcal/server"
	"github.com/meetverse/eventcal/storage"
	"github.com/meetverse/eventcal/storage/memory"
	"github.com/meetverse/eventcal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	listen := flag.String("listen", "", "listen address, overrides config")
	flag.Parse()

	// Local .env files are optional.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	logger := newLogger(cfg.Logging.Level)
	logger.Info("eventcald starting", "listen", cfg.Listen)

	store, cleanup, err := openStorage(cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	engine := recurrence.NewEngine(logger)
	feeds := feed.NewGenerator(store, engine, logger,
		cfg.Feed.Name, cfg.BaseURL, cfg.Feed.HorizonDays)
	api := server.New(store, feeds, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The public feed file, when configured, is regenerated on a schedule
	// so feed readers hit static content instead of the API.
	scheduler := cron.New()
	if cfg.Feed.Path != "" {
		_, err := scheduler.AddFunc(cfg.Feed.RefreshCron, func() {
			if err := feeds.RefreshFile(ctx, cfg.Feed.Path); err != nil {
				logger.Error("feed refresh failed", "error", err)
			}
		})
		if err != nil {
			logger.Error("invalid feed refresh schedule",
				"cron", cfg.Feed.RefreshCron, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		defer scheduler.Stop()

		if err := feeds.RefreshFile(ctx, cfg.Feed.Path); err != nil {
			logger.Error("initial feed refresh failed", "error", err)
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("signal received, shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
		cancel()
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("eventcald exiting")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func openStorage(cfg config.Config, logger *slog.Logger) (storage.Storage, func(), error) {
	if cfg.Database.DSN == "" {
		logger.Info("no database configured, using in-memory storage")
		return memory.New(), func() {}, nil
	}

	store, err := postgres.Open(cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	logger.Info("connected to database")
	return store, func() { _ = store.Close() }, nil
}
