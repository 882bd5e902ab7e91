package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/cache"
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/config"
	httpHandler "github.com/EAGLE605/nfl-betting-system-sub001/internal/handler/http"
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/messaging"
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/metrics"
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/service"
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/storage"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/backtest"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/edge"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/kelly"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/significance"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("starting nfl-backtest-service")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create Redis cache
	redisCache := cache.NewRedisCache(
		cache.RedisCacheConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		},
		logger,
	)
	defer redisCache.Close()

	// Test Redis connection
	if err := redisCache.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")

	// Create result store
	store, err := storage.NewSQLStore(storage.Config{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open result store")
	}
	defer store.Close()
	logger.Info().Str("driver", cfg.Storage.Driver).Msg("result store ready")

	// Load edge rules and strategies
	registry, err := edge.LoadRegistry(cfg.Filter.RulesFile)
	if err != nil {
		logger.Fatal().Err(err).Str("rules_file", cfg.Filter.RulesFile).Msg("failed to load edge rules")
	}
	runner, err := backtest.NewRunner(registry, logger, cfg.StrategyParams()...)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create backtest runner")
	}
	logger.Info().
		Int("rules", registry.Len()).
		Strs("strategies", runner.Strategies()).
		Msg("backtest runner initialized")

	// Create backtest service layer
	recorder := metrics.New()
	backtestService := service.NewBacktestService(runner, redisCache, store, recorder, logger)

	// Create Kafka consumer
	if cfg.Kafka.Enabled {
		consumer := messaging.NewKafkaConsumer(
			messaging.KafkaConsumerConfig{
				Brokers:         cfg.Kafka.Brokers,
				Topic:           cfg.Kafka.Topic,
				GroupID:         cfg.Kafka.GroupID,
				ResultsTopic:    cfg.Kafka.ResultsTopic,
				DefaultStrategy: config.DefaultStrategy,
			},
			backtestService,
			logger,
		)
		defer consumer.Close()

		// Start Kafka consumer in goroutine
		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("Kafka consumer failed")
			}
		}()
	}

	// Initialize HTTP handler
	base := cfg.BaseStrategy()
	handler := httpHandler.NewBacktestHandler(
		backtestService,
		significance.NewTester(base.Significance),
		kelly.NewStaker(base.Staking),
		edge.NewFilter(base.Filter, registry, logger),
		edge.NewGroupCorrelation(edge.NFLDivisions()),
		logger,
	)
	router := httpHandler.NewRouter(handler, httpHandler.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.WriteTimeout,
		Metrics:        recorder.Handler(),
	})
	logger.Info().Msg("API routes registered")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server in goroutine
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down gracefully...")

	// Cancel context to stop consumer
	cancel()

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	logger.Info().Msg("shutdown complete")
}

// setupLogger configures the logger based on config
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set format
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return log.Logger.With().Str("service", "nfl-backtest").Logger()
}
