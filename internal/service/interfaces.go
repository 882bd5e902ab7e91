package service

//go:generate mockgen -source=interfaces.go -destination=../mocks/mock_service.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

var ErrRunNotFound = errors.New("backtest run not found")

// Runner backtests named strategies
type Runner interface {
	Run(ctx context.Context, strategy string, games []models.Game) (*models.BacktestResult, error)
	Strategies() []string
}

// Store persists completed runs and their bet ledgers
type Store interface {
	SaveResult(ctx context.Context, result *models.BacktestResult) error
	// GetRun returns the run summary without its ledger, or an error wrapping ErrRunNotFound
	GetRun(ctx context.Context, runID uuid.UUID) (*models.BacktestResult, error)
	ListBets(ctx context.Context, runID uuid.UUID) ([]models.Bet, error)
	Ping(ctx context.Context) error
	Close() error
}

// Recorder observes run outcomes for monitoring
type Recorder interface {
	ObserveRun(result *models.BacktestResult, duration time.Duration)
	RunFailed(strategy string)
}

// Backtester runs backtests on behalf of transports
type Backtester interface {
	RunBacktest(ctx context.Context, strategy string, games []models.Game) (*models.BacktestResult, error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRun(*models.BacktestResult, time.Duration) {}
func (nopRecorder) RunFailed(string)                                 {}
