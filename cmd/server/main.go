// Package main runs the ChronoPlan calendar HTTP server with WebSocket
// notifications and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chronoplan/backend/config"
	"github.com/chronoplan/backend/internal/auth"
	"github.com/chronoplan/backend/internal/categories"
	"github.com/chronoplan/backend/internal/events"
	"github.com/chronoplan/backend/internal/middleware"
	"github.com/chronoplan/backend/internal/permissions"
	"github.com/chronoplan/backend/internal/realtime"
	"github.com/chronoplan/backend/internal/shares"
	"github.com/chronoplan/backend/pkg/database"
	"github.com/chronoplan/backend/pkg/redis"
	"github.com/chronoplan/backend/pkg/response"
	"github.com/chronoplan/backend/pkg/storage"
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

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			AttachmentsBucket:    cfg.AWS.AttachmentsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Repositories
	authRepo := auth.NewRepository(pool)
	eventRepo := events.NewRepository(pool)
	shareRepo := shares.NewRepository(pool)
	categoryRepo := categories.NewRepository(pool)

	resolver := permissions.NewResolver(eventRepo, shareRepo, categoryRepo)

	// Services
	eventSvc := events.NewService(eventRepo, resolver, hub, logger)
	shareSvc := shares.NewService(shareRepo, authRepo, resolver, hub, cfg.Limits.MaxSharesPerEvent, logger)
	categorySvc := categories.NewService(categoryRepo, resolver, cfg.Limits.MaxCategoriesPerUser, logger)

	// Account deletion purges calendar data before removing the user row.
	purge := func(ctx context.Context, userID uuid.UUID) error {
		if err := eventSvc.PurgeOwner(ctx, userID); err != nil {
			return err
		}
		if err := shareSvc.PurgeRecipient(ctx, userID); err != nil {
			return err
		}
		return categorySvc.PurgeOwner(ctx, userID)
	}

	// Handlers
	authHandler := auth.NewHandler(authRepo, jwtService, purge, logger)
	eventHandler := events.NewHandler(eventSvc)
	shareHandler := shares.NewHandler(shareSvc)
	categoryHandler := categories.NewHandler(categorySvc)
	attachmentHandler := events.NewAttachmentHandler(resolver, s3Client, logger)

	jwtValidate := func(token string) (uuid.UUID, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, err
		}
		return claims.UserID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)
		api.DELETE("/users/:id", middleware.RequireRole("admin"), authHandler.Delete)

		// Events
		api.POST("/events", eventHandler.Create)
		api.GET("/events", eventHandler.List)
		api.GET("/events/shared", eventHandler.ListShared)
		api.GET("/events/month", eventHandler.ListMonth)
		api.GET("/events/week", eventHandler.ListWeek)
		api.GET("/events/day", eventHandler.ListDay)
		api.GET("/events/overlaps", eventHandler.Overlaps)
		api.GET("/events/:id", eventHandler.Get)
		api.PUT("/events/:id", eventHandler.Update)
		api.DELETE("/events/:id", eventHandler.Delete)
		api.PATCH("/events/:id/status", eventHandler.UpdateStatus)

		// Shares
		api.POST("/events/:id/shares", shareHandler.Create)
		api.GET("/events/:id/shares", shareHandler.ListForEvent)
		api.GET("/events/:id/shares/:user_id", shareHandler.Get)
		api.PUT("/events/:id/shares/:user_id", shareHandler.UpdatePermission)
		api.DELETE("/events/:id/shares/:user_id", shareHandler.Delete)
		api.GET("/shares/received", shareHandler.ListReceived)
		api.GET("/shares/given", shareHandler.ListGiven)

		// Attachments (S3-backed; disabled when S3 is not configured)
		if s3Client != nil {
			api.POST("/events/:id/attachments/upload-url", attachmentHandler.UploadURL)
			api.GET("/events/:id/attachments", attachmentHandler.List)
			api.GET("/events/:id/attachments/download-url", attachmentHandler.DownloadURL)
			api.DELETE("/events/:id/attachments", attachmentHandler.Delete)
		}

		// Categories
		api.POST("/categories", categoryHandler.Create)
		api.GET("/categories", categoryHandler.List)
		api.GET("/categories/:id", categoryHandler.Get)
		api.PUT("/categories/:id", categoryHandler.Update)
		api.DELETE("/categories/:id", categoryHandler.Delete)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
