package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"mnemos.app/archive/common/id"
	"mnemos.app/archive/common/logger"
	"mnemos.app/archive/common/otel"
	"mnemos.app/archive/core/config"
	"mnemos.app/archive/core/db"
	"mnemos.app/archive/internal/queue"
	"mnemos.app/archive/internal/search"
	"mnemos.app/archive/internal/service"
	"mnemos.app/archive/internal/watcher"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWatcher)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "archive watcher starting", "env", cfg.Env, "watch_dirs", cfg.Watcher.WatchDirs)
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to ensure schema", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "database connected")

	var producer queue.Producer
	if cfg.Stats.Enabled() {
		redisOpts, err := redis.ParseURL(cfg.Stats.RedisURL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		producer = queue.NewRedisProducer(redisClient, cfg.Stats.RedisStream, slog.Default())
		defer producer.Close()
		slog.InfoContext(ctx, "redis connected", "stream", cfg.Stats.RedisStream)
	} else {
		slog.InfoContext(ctx, "stats publishing disabled (no redis configured)")
	}

	var searcher search.Searcher
	if cfg.Typesense.Enabled() {
		searcher, err = search.NewTypesense(ctx, cfg.Typesense)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to typesense", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "typesense connected", "collection", cfg.Typesense.Collection)
	}

	ingestor := watcher.NewIngestor(
		service.NewTxRunner(database),
		producer,
		searcher,
		cfg.Watcher,
		slog.Default(),
	)
	w := watcher.New(ingestor, cfg.Watcher, slog.Default())

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "watcher stopped with error", "error", err)
	}

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}
