// Package main runs the background reminder worker: scanning for due
// reminders and delivering them to user notification channels.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chronoplan/backend/config"
	"github.com/chronoplan/backend/internal/events"
	"github.com/chronoplan/backend/internal/realtime"
	"github.com/chronoplan/backend/internal/worker"
	"github.com/chronoplan/backend/pkg/database"
	"github.com/chronoplan/backend/pkg/queue"
	"github.com/chronoplan/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	eventRepo := events.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Publish-only hub: notifications go to Redis, server instances deliver
	// them to connected clients.
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, nil)

	scanner := worker.NewScanner(eventRepo, jobQueue,
		time.Duration(cfg.Reminder.PollIntervalSec)*time.Second,
		time.Duration(cfg.Reminder.LookaheadSec)*time.Second,
		logger)
	processor := worker.NewProcessor(jobQueue, hub, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go scanner.Run(workerCtx)
	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
