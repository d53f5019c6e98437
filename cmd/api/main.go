package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-manager/configs"
	v1 "task-manager/internal/api/v1"
	"task-manager/internal/config"
	"task-manager/internal/repository"
	"task-manager/pkg/database"
	"task-manager/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg := configs.LoadConfig()

	// Inisialisasi logger
	if err := logger.InitLoggers(cfg.LogDir); err != nil {
		log.Fatalf("Failed to initialize loggers: %v", err)
	}
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectDB(ctx, cfg)
	if err != nil {
		logger.ErrorLogger.Fatal("Database connection failed", zap.Error(err))
	}
	logger.SystemLogger.Info("Database Connected")

	if err := repository.CreateTableIfNotExists(ctx, db); err != nil {
		logger.ErrorLogger.Fatal("Schema setup failed", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb, err = database.ConnectRedis(ctx, cfg)
		if err != nil {
			logger.ErrorLogger.Fatal("Redis connection failed", zap.Error(err))
		}
		logger.SystemLogger.Info("Redis Connected")
	}

	deps := config.NewDependencies(cfg, db, rdb)
	defer deps.Close()

	opts := v1.Options{
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
	}
	if rdb != nil {
		opts.LimiterStorage = database.NewRedisStorage(rdb, "limiter:")
	}
	app := v1.NewApp(opts, deps.Tasks, deps.Users)

	go func() {
		<-ctx.Done()
		logger.SystemLogger.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.ErrorLogger.Error("Shutdown failed", zap.Error(err))
		}
	}()

	logger.SystemLogger.Info("Application ready", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
	}
}
