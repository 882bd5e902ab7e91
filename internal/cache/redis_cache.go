package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/service"
)

// RedisCache caches backtest results in Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// RedisCacheConfig holds Redis cache configuration
type RedisCacheConfig struct {
	Addr     string // e.g., "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // e.g., 24 * time.Hour
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(config RedisCacheConfig, logger zerolog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisCache{
		client: client,
		ttl:    config.TTL,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}
}

func resultKey(runID uuid.UUID) string {
	return fmt.Sprintf("backtest:%s", runID)
}

func strategyKey(strategy string) string {
	return fmt.Sprintf("backtest:strategy:%s", strategy)
}

// Set caches a backtest result and indexes it under its strategy
func (c *RedisCache) Set(ctx context.Context, result *models.BacktestResult) error {
	key := resultKey(result.RunID)

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.ZAdd(ctx, strategyKey(result.Strategy), redis.Z{
		Score:  float64(result.CompletedAt.UnixMilli()),
		Member: result.RunID.String(),
	})
	pipe.Expire(ctx, strategyKey(result.Strategy), c.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set in Redis: %w", err)
	}

	c.logger.Debug().
		Str("key", key).
		Dur("ttl", c.ttl).
		Msg("cached backtest result")

	return nil
}

// Get retrieves a cached backtest result
func (c *RedisCache) Get(ctx context.Context, runID uuid.UUID) (*models.BacktestResult, error) {
	data, err := c.client.Get(ctx, resultKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s not in cache", service.ErrRunNotFound, runID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get from Redis: %w", err)
	}

	var result models.BacktestResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

// ListByStrategy returns the cached run ids of a strategy, newest first.
// Ids whose result has expired are dropped from the index.
func (c *RedisCache) ListByStrategy(ctx context.Context, strategy string) ([]uuid.UUID, error) {
	members, err := c.client.ZRevRange(ctx, strategyKey(strategy), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read strategy index: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	var stale []any
	for _, member := range members {
		id, err := uuid.Parse(member)
		if err != nil {
			c.logger.Warn().Err(err).Str("member", member).Msg("invalid run id in strategy index")
			stale = append(stale, member)
			continue
		}

		exists, err := c.client.Exists(ctx, resultKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check run %s: %w", id, err)
		}
		if exists == 0 {
			stale = append(stale, member)
			continue
		}
		ids = append(ids, id)
	}

	if len(stale) > 0 {
		if err := c.client.ZRem(ctx, strategyKey(strategy), stale...).Err(); err != nil {
			c.logger.Warn().Err(err).Str("strategy", strategy).Msg("failed to prune strategy index")
		}
	}

	return ids, nil
}

// Ping checks Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
