// Package main is the entry point for the case opening service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"caseopener/internal/config"
	"caseopener/internal/draw"
	"caseopener/internal/pkg/db"
	"caseopener/internal/pkg/lock"
	"caseopener/internal/repository"
	"caseopener/internal/server"
	"caseopener/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := repository.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}
	log.Info().Msg("Migrations completed")

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	itemRepo := repository.NewItemRepository(dbPool.Pool)
	inventoryRepo := repository.NewInventoryRepository(dbPool.Pool)
	drawRepo := repository.NewDrawRecordRepository(dbPool.Pool)
	settleRepo := repository.NewSettlementRepository(dbPool.Pool)

	// Seed the item catalog and demo account, building the case registry
	seeder := service.NewSeeder(userRepo, itemRepo)
	registry, err := seeder.Run(ctx, &cfg.Seed)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed")
	}

	// Initialize services
	userLock := lock.NewUserLock()
	engine := draw.Default()
	settlementService := service.NewSettlementService(registry, engine, settleRepo, userLock)
	accountService := service.NewAccountService(userRepo, inventoryRepo, drawRepo, cfg.History.Limit)

	// Wire up HTTP
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	handler := server.NewHandler(registry, settlementService, accountService, dbPool)
	handler.RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr()).Msg("HTTP server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("Server stopped gracefully")
}
