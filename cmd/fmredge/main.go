// cmd/fmredge/main.go
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Anthony4834/fmr-edge/internal/activity"
	"github.com/Anthony4834/fmr-edge/internal/api"
	"github.com/Anthony4834/fmr-edge/internal/config"
	"github.com/Anthony4834/fmr-edge/internal/gateway"
	"github.com/Anthony4834/fmr-edge/internal/ratelimit"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Session.Secret == "" {
		logger.Warn("SESSION_SECRET not set; sessions and bearer tokens will not verify")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := ratelimit.NewRedisStore(client, ratelimit.WithTimeout(cfg.Redis.Timeout))
	limiter := ratelimit.NewLimiter(store, logger)

	// The activity sink is optional; without it the gateway still runs,
	// it just records nothing.
	var tracker *activity.Tracker
	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			logger.Error("open database, continuing without activity tracking", zap.Error(err))
		} else {
			tracker = activity.NewTracker(db, logger)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := tracker.InitializeSchema(ctx); err != nil {
				logger.Warn("activity schema init failed", zap.Error(err))
			}
			cancel()
		}
	}

	gw := gateway.New(gateway.Config{
		Secret:          cfg.Session.Secret,
		CanonicalOrigin: cfg.CORS.CanonicalOrigin,
		ExtraOrigins:    cfg.CORS.ExtraOrigins,
	}, limiter, tracker, logger)

	server := api.NewServer(cfg, logger, gw)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	if err := server.Start(); err != nil {
		logger.Info("server stopped", zap.Error(err))
	}
}
