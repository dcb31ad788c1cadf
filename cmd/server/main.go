// Package main provides the API server entry point for the mint booth service.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mint-booth/internal/adapter"
	"github.com/mint-booth/internal/api"
	"github.com/mint-booth/internal/auth"
	"github.com/mint-booth/internal/config"
	"github.com/mint-booth/internal/logging"
	"github.com/mint-booth/internal/service"
	"github.com/mint-booth/internal/storage"
	"github.com/mint-booth/migrations"
)

func main() {
	fmt.Println("Mint Booth API Server")
	log.Println("Server starting...")

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

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	ctx := context.Background()

	logger.Info("Connecting to databases...")

	postgres, err := storage.NewPostgresDB(ctx, &cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	if cfg.Database.Postgres.AutoMigrate {
		if err := storage.RunMigrations(cfg.Database.Postgres.URL(), cfg.Database.Postgres.MigrationsPath); err != nil {
			logger.WithError(err).Fatal("Failed to run Postgres migrations")
		}
		logger.Info("Postgres migrations applied")
	}

	datastores := map[string]api.Pinger{"postgres": postgres}

	// Redis only caches confirmed claims; the service runs without it
	var claimCache service.ClaimCache
	if cfg.Database.Redis.Enabled {
		redisCache, err := storage.NewRedisCache(ctx, &cfg.Database.Redis)
		if err != nil {
			logger.WithError(err).Warn("Failed to connect to Redis, continuing without claim cache")
		} else {
			defer func() { _ = redisCache.Close() }() // nolint:errcheck // cleanup in defer
			claimCache = storage.NewClaimCache(redisCache, cfg.Cache.ClaimedTTL)
			datastores["redis"] = redisCache
		}
	}

	// ClickHouse holds the sponsor payment audit log
	var sponsorAudit service.SponsorAuditRepository
	if cfg.Database.ClickHouse.Enabled {
		clickhouse, err := storage.NewClickHouseDB(ctx, &cfg.Database.ClickHouse)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to ClickHouse")
		}
		defer func() { _ = clickhouse.Close() }() // nolint:errcheck // cleanup in defer

		if err := storage.RunClickHouseMigrations(ctx, clickhouse, migrations.ClickHouse, "clickhouse"); err != nil {
			logger.WithError(err).Fatal("Failed to run ClickHouse migrations")
		}
		sponsorAudit = storage.NewSponsorAuditRepository(clickhouse)
		datastores["clickhouse"] = clickhouse
	}

	logger.Info("Database connections established")

	// Algorand clients
	algodClient, err := adapter.NewAlgodClient(&cfg.Algorand)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create algod client")
	}
	indexerClient, err := adapter.NewIndexerClient(&cfg.Algorand)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create indexer client")
	}
	signer, err := adapter.NewFeePoolSigner(cfg.Algorand.FeePoolMnemonic)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load fee pool account")
	}
	logger.WithField("sponsor_address", signer.Address()).Info("Fee pool account loaded")

	// Repositories
	settingsRepo := storage.NewSettingsRepository(postgres)
	printRequestRepo := storage.NewPrintRequestRepository(postgres)
	claimRepo := storage.NewFreeMintClaimRepository(postgres)

	// Services
	settingsService := service.NewSettingsService(settingsRepo, printRequestRepo, cfg.Booth.DefaultMaxPrintRequests)
	printRequestService := service.NewPrintRequestService(printRequestRepo, settingsService)
	freeMintService := service.NewFreeMintService(service.FreeMintDeps{
		Claims:             claimRepo,
		Cache:              claimCache,
		Audit:              sponsorAudit,
		Chain:              algodClient,
		Indexer:            indexerClient,
		Signer:             signer,
		ConfirmationRounds: cfg.Algorand.ConfirmationRounds,
	})
	authService := service.NewAuthService(
		service.AdminCredentials{Username: cfg.Admin.Username, Password: cfg.Admin.Password},
		auth.NewTokenManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL),
	)

	serverConfig := &api.ServerConfig{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		AllowedOrigin:     cfg.Server.FrontendURL,
		SecureCookies:     cfg.Server.IsProduction(),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		SubmitTimeout:     cfg.Algorand.SubmitTimeout(),
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}

	server := api.NewServer(serverConfig, api.Services{
		Settings:      settingsService,
		PrintRequests: printRequestService,
		FreeMint:      freeMintService,
		Auth:          authService,
	}, datastores)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server error")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"environment": cfg.Server.Environment,
	}).Info("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}
