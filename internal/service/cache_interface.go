package service

//go:generate mockgen -source=cache_interface.go -destination=../mocks/mock_cache.go -package=mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

// Cache is an interface that abstracts cache operations
// This allows for easier testing and mocking
type Cache interface {
	Set(ctx context.Context, result *models.BacktestResult) error
	// Get returns an error wrapping ErrRunNotFound on a miss
	Get(ctx context.Context, runID uuid.UUID) (*models.BacktestResult, error)
	ListByStrategy(ctx context.Context, strategy string) ([]uuid.UUID, error)
	Ping(ctx context.Context) error
	Close() error
}
