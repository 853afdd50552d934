package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"sushibar/waitline/internal/config"
	"sushibar/waitline/internal/handler"
	"sushibar/waitline/internal/model"
	"sushibar/waitline/internal/repository"
	"sushibar/waitline/internal/service"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	var logger *zap.Logger
	if cfg.Log.Format == "json" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	// 3. Open the party store
	db, err := config.NewDB(cfg.Database)
	if err != nil {
		logger.Fatal("failed to open party store", zap.Error(err))
	}
	logger.Info("party store opened", zap.String("backend", cfg.Database.Backend))

	// 4. Auto-migrate if enabled
	autoMigrate := cfg.Database.Backend == "sqlite" && cfg.Database.SQLite.AutoMigrate ||
		cfg.Database.Backend == "postgres" && cfg.Database.Postgres.AutoMigrate
	if autoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			logger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		logger.Info("database migration completed")
	}

	// 5. Initialize rate limiter store (Redis or in-memory)
	var limiterStore repository.LimiterStore
	if cfg.RateLimit.Enabled {
		switch cfg.RateLimit.Backend {
		case "redis":
			redisClient, err := config.NewRedisClient(cfg.Database.Redis)
			if err != nil {
				logger.Fatal("failed to connect to redis", zap.Error(err))
			}
			limiterStore = repository.NewRedisLimiterStore(redisClient)
			logger.Info("using Redis rate limiter")
		case "memory":
			limiterStore = repository.NewMemoryLimiterStore()
			logger.Info("using in-memory rate limiter")
		default:
			logger.Fatal("unknown rate limiter backend", zap.String("backend", cfg.RateLimit.Backend))
		}
	}

	// 6. Initialize repository and service
	partyRepo := repository.NewGormPartyRepository(db)
	queueService := service.NewQueueService(partyRepo, cfg.Queue.TicketURLBase, cfg.Queue.SingleCallSlot)

	// 7. Initialize handlers
	queueHandler := handler.NewQueueHandler(queueService, logger)
	adminHandler := handler.NewAdminHandler(queueService, logger)

	// 8. Setup router
	router := handler.SetupRouter(cfg, logger, limiterStore, queueHandler, adminHandler)

	// 9. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 10. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}
