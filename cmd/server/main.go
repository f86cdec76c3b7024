// Package main is the entry point for the palpiteiro server.
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

	"palpiteiro/internal/config"
	"palpiteiro/internal/generator"
	"palpiteiro/internal/handler"
	"palpiteiro/internal/pkg/db"
	"palpiteiro/internal/repository"
	"palpiteiro/internal/results"
	"palpiteiro/internal/scheduler"
	"palpiteiro/internal/service"
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

	// Create context for graceful shutdown
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

	// Initialize repositories
	setRepo := repository.NewSavedSetRepository(dbPool.Pool)
	drawRepo := repository.NewDrawRepository(dbPool.Pool)

	// Initialize Caixa results client and cache-first lookup
	caixaClient := results.NewClient(cfg.Caixa.BaseURL, cfg.Caixa.Timeout)
	lookup := service.NewCachedLookup(drawRepo, caixaClient)

	// Initialize the combination generator. Without an API key the local
	// frequency generator serves suggestions on its own.
	var gen generator.Generator = generator.NewFrequencyGenerator(nil)
	if cfg.Generator.APIKey != "" {
		gemini, err := generator.NewGeminiGenerator(ctx, cfg.Generator.APIKey, cfg.Generator.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini generator")
		}
		gen = gemini
		log.Info().Str("model", cfg.Generator.Model).Msg("Gemini generator enabled")
	}

	// Initialize services
	conferenceService := service.NewConferenceService(setRepo, lookup)
	suggestionService := service.NewSuggestionService(
		gen,
		caixaClient,
		drawRepo,
		lookup,
		cfg.Generator.HistoryWindow,
		cfg.Generator.MaxCount,
	)

	// Start the auto-check schedule
	autoCheck, err := scheduler.New(conferenceService, cfg.Conference.CronSpec)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auto-check scheduler")
	}
	autoCheck.Start(cfg.Conference.RunOnStart)
	log.Info().Str("cron_spec", cfg.Conference.CronSpec).Msg("Auto-check scheduled")

	// Initialize HTTP server
	router := gin.New()
	router.Use(handler.Recovery(), handler.RequestLogger())
	handler.NewAPI(conferenceService, suggestionService).RegisterRoutes(router)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Server is starting...")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown: stop the schedule first so no pass starts while
	// the server drains.
	autoCheck.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	log.Info().Msg("Server stopped gracefully")
}
