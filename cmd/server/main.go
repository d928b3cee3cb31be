// Package main provides the API server entry point for the portfolio tracker.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/stock-portfolio/internal/api"
	"github.com/stock-portfolio/internal/config"
	"github.com/stock-portfolio/internal/logging"
	"github.com/stock-portfolio/internal/service"
	"github.com/stock-portfolio/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Initialize database connections
	logger.Info("Connecting to databases...")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Initialize repositories
	accountRepo := storage.NewAccountRepository(postgres)
	collectionRepo := storage.NewCollectionRepository(postgres)
	holdingRepo := storage.NewHoldingRepository(postgres)
	transactionRepo := storage.NewTransactionRepository(postgres)
	priceRepo := storage.NewPriceRepository(postgres)
	statCacheRepo := storage.NewStatCacheRepository(postgres)
	relationshipRepo := storage.NewRelationshipRepository(postgres)
	reviewRepo := storage.NewReviewRepository(postgres)

	// Read-side cache for holdings responses
	responseCache := storage.NewResponseCache(redis, cfg.Cache.TTL)

	// Initialize services
	logger.Info("Initializing services...")

	accountService := service.NewAccountService(postgres, accountRepo, collectionRepo)
	ledgerService := service.NewLedgerService(
		postgres,
		collectionRepo,
		holdingRepo,
		transactionRepo,
		priceRepo,
		responseCache,
	)
	collectionService := service.NewCollectionService(
		postgres,
		collectionRepo,
		holdingRepo,
		relationshipRepo,
		responseCache,
	)
	statisticsService := service.NewStatisticsService(priceRepo, statCacheRepo, service.NewStatisticsEngine())
	socialService := service.NewSocialService(relationshipRepo, accountRepo)
	reviewService := service.NewReviewService(reviewRepo, collectionRepo, relationshipRepo)

	logger.Info("Services initialized")

	// Create server configuration
	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimitRPS:    cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:  cfg.RateLimit.Burst,
	}

	server := api.NewServer(
		serverConfig,
		accountService,
		ledgerService,
		collectionService,
		statisticsService,
		socialService,
		reviewService,
	)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
