package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

// BacktestService orchestrates backtest runs with caching and persistence
type BacktestService struct {
	runner   Runner
	cache    Cache
	store    Store
	recorder Recorder
	logger   zerolog.Logger
}

// NewBacktestService creates a new backtest service. store and recorder may be nil.
func NewBacktestService(
	runner Runner,
	cache Cache,
	store Store,
	recorder Recorder,
	logger zerolog.Logger,
) *BacktestService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &BacktestService{
		runner:   runner,
		cache:    cache,
		store:    store,
		recorder: recorder,
		logger:   logger.With().Str("component", "backtest_service").Logger(),
	}
}

// RunBacktest runs a strategy over the games, then caches and persists the result
func (s *BacktestService) RunBacktest(ctx context.Context, strategy string, games []models.Game) (*models.BacktestResult, error) {
	start := time.Now()

	result, err := s.runner.Run(ctx, strategy, games)
	if err != nil {
		s.recorder.RunFailed(strategy)
		return nil, fmt.Errorf("backtest failed: %w", err)
	}
	s.recorder.ObserveRun(result, time.Since(start))

	// Don't fail the request on cache or store errors
	if err := s.cache.Set(ctx, result); err != nil {
		s.logger.Warn().
			Err(err).
			Str("run_id", result.RunID.String()).
			Msg("failed to cache backtest result")
	}
	if s.store != nil {
		if err := s.store.SaveResult(ctx, result); err != nil {
			s.logger.Warn().
				Err(err).
				Str("run_id", result.RunID.String()).
				Msg("failed to persist backtest result")
		}
	}

	s.logger.Info().
		Str("run_id", result.RunID.String()).
		Str("strategy", result.Strategy).
		Int("games", result.GameCount).
		Int("bets", result.Report.TotalBets).
		Str("final_bankroll", result.Report.FinalBankroll.StringFixed(2)).
		Str("verdict", result.Report.Verdict).
		Msg("backtest complete")

	return result, nil
}

// GetResult retrieves a run with cache-first strategy, falling back to the store
func (s *BacktestService) GetResult(ctx context.Context, runID uuid.UUID) (*models.BacktestResult, error) {
	cached, err := s.cache.Get(ctx, runID)
	if err == nil && cached != nil {
		s.logger.Debug().Str("run_id", runID.String()).Msg("cache hit for backtest result")
		return cached, nil
	}
	if err != nil && !errors.Is(err, ErrRunNotFound) {
		s.logger.Warn().Err(err).Str("run_id", runID.String()).Msg("cache error, falling back to store")
	}

	if s.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return s.store.GetRun(ctx, runID)
}

// GetBets returns a run's placed bets in chronological order
func (s *BacktestService) GetBets(ctx context.Context, runID uuid.UUID) ([]models.Bet, error) {
	cached, err := s.cache.Get(ctx, runID)
	if err == nil && cached != nil && cached.Ledger != nil {
		return cached.Ledger.Bets(), nil
	}

	if s.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return s.store.ListBets(ctx, runID)
}

// ListRuns returns the cached run ids of a strategy
func (s *BacktestService) ListRuns(ctx context.Context, strategy string) ([]uuid.UUID, error) {
	ids, err := s.cache.ListByStrategy(ctx, strategy)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return ids, nil
}

// Strategies returns the configured strategy names
func (s *BacktestService) Strategies() []string {
	return s.runner.Strategies()
}

// Ready checks the cache and the store
func (s *BacktestService) Ready(ctx context.Context) error {
	if err := s.cache.Ping(ctx); err != nil {
		return fmt.Errorf("redis unavailable: %w", err)
	}
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			return fmt.Errorf("store unavailable: %w", err)
		}
	}
	return nil
}
