package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pipeit/factora/internal/clients/llm"
	"github.com/pipeit/factora/internal/clients/requestnetwork"
	"github.com/pipeit/factora/internal/clients/tokenmetrics"
	"github.com/pipeit/factora/internal/config"
	"github.com/pipeit/factora/internal/database"
	"github.com/pipeit/factora/internal/events"
	"github.com/pipeit/factora/internal/modules/factoring"
	"github.com/pipeit/factora/internal/modules/rates"
	"github.com/pipeit/factora/internal/modules/scoring"
	"github.com/pipeit/factora/internal/modules/trading"
	"github.com/pipeit/factora/internal/scheduler"
	"github.com/pipeit/factora/internal/server"
	"github.com/pipeit/factora/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info", Pretty: true})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Factora")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := factoring.InitSchema(db.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize offers schema")
	}
	if err := trading.InitPlansSchema(db.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize plans schema")
	}
	if err := trading.InitPositionsSchema(db.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize positions schema")
	}

	eventManager := events.NewManager(log)

	// Upstream clients
	marketFeed := tokenmetrics.NewClient(tokenmetrics.Config{
		BaseURL: cfg.TokenMetricsAPIURL,
		APIKey:  cfg.TokenMetricsAPIKey,
	}, log)

	invoiceClient := requestnetwork.NewClient(requestnetwork.Config{
		BaseURL: cfg.RequestNetworkAPIURL,
		APIKey:  cfg.RequestNetworkAPIKey,
	}, log)

	// Rates
	ratesService := rates.NewService(marketFeed, log)
	ratesHandler := rates.NewHandler(ratesService, log)

	// Factoring
	offerRepo := factoring.NewRepository(db.Conn(), log)
	factoringService := factoring.NewService(offerRepo, invoiceClient, ratesService, eventManager, log)
	factoringHandler := factoring.NewHandler(factoringService, invoiceClient, log)

	// Scoring strategy, selectable via config
	var strategy scoring.Strategy
	switch cfg.ScoringStrategy {
	case "technical":
		strategy = scoring.NewTechnicalStrategy()
	default:
		strategy = scoring.NewSentimentStrategy(scoring.SentimentWeights{
			TraderGrade: cfg.WeightTraderGrade,
			TAGrade:     cfg.WeightTAGrade,
			Signal:      cfg.WeightSignal,
			BullBear:    cfg.WeightBullBear,
		})
	}
	scorer := scoring.NewScorer(strategy, log)

	// Plan drafting is optional; a nil client disables it
	var advisor trading.Advisor
	if llmClient := llm.NewClient(llm.Config{
		Endpoint: cfg.LLMAPIURL,
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModel,
	}, log); llmClient != nil {
		advisor = trading.NewPlanAdvisor(llmClient, log)
	}

	// Trading
	planRepo := trading.NewPlanRepository(db.Conn(), log)
	positionRepo := trading.NewPositionRepository(db.Conn(), log)
	tradingService := trading.NewService(
		planRepo,
		positionRepo,
		marketFeed,
		scorer,
		trading.NewAllocator(cfg.AllocationTopN),
		trading.NewSimulatedBackend(),
		advisor,
		eventManager,
		trading.ServiceConfig{
			CandidateSymbols: cfg.CandidateSymbols,
			WalletAddress:    cfg.WalletAddress,
			ChainNetwork:     cfg.ChainNetwork,
		},
		log,
	)
	tradingHandler := trading.NewHandler(tradingService, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	// Active positions re-mark every 5 minutes
	refreshJob := scheduler.NewPositionRefreshJob(tradingService, log)
	if err := sched.AddJob("0 */5 * * * *", refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register position refresh job")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		DB:        db,
		Config:    cfg,
		DevMode:   cfg.DevMode,
		Rates:     ratesHandler,
		Factoring: factoringHandler,
		Trading:   tradingHandler,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
