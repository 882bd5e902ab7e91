package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/service"
)

// testRedisCacheSetup is a helper struct to hold test dependencies
type testRedisCacheSetup struct {
	cache     *RedisCache
	miniRedis *miniredis.Miniredis
	ctx       context.Context
}

// setupTestRedisCache creates a test cache with miniredis
func setupTestRedisCache(t *testing.T) *testRedisCacheSetup {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	config := RedisCacheConfig{
		Addr: mr.Addr(),
		TTL:  15 * time.Minute,
	}

	return &testRedisCacheSetup{
		cache:     NewRedisCache(config, zerolog.Nop()),
		miniRedis: mr,
		ctx:       context.Background(),
	}
}

// cleanup cleans up test resources
func (s *testRedisCacheSetup) cleanup() {
	s.cache.Close()
	s.miniRedis.Close()
}

func testResult(strategy string, completed time.Time) *models.BacktestResult {
	bet := &models.Bet{
		ID:             uuid.New(),
		GameID:         "2023_01_DET_KC",
		Side:           models.SideHome,
		Team:           "KC",
		Tier:           models.TierC,
		WinProbability: 0.60,
		DecimalOdds:    1.91,
		Stake:          decimal.NewFromInt(200),
		Won:            true,
		Profit:         decimal.NewFromInt(182),
		BankrollBefore: decimal.NewFromInt(10000),
		BankrollAfter:  decimal.NewFromInt(10182),
	}

	return &models.BacktestResult{
		RunID:       uuid.New(),
		Strategy:    strategy,
		GameCount:   1,
		StartedAt:   completed.Add(-time.Second),
		CompletedAt: completed,
		Ledger: &models.Ledger{
			State:           models.StateComplete,
			InitialBankroll: decimal.NewFromInt(10000),
			FinalBankroll:   decimal.NewFromInt(10182),
			Entries: []models.LedgerEntry{
				{Sequence: 1, GameID: bet.GameID, Status: models.EntryBet, Bet: bet, Bankroll: bet.BankrollAfter},
			},
			Wins: 1,
		},
		Report: &models.PerformanceReport{
			TotalBets:     1,
			Wins:          1,
			WinRate:       1,
			FinalBankroll: decimal.NewFromInt(10182),
			SharpeRatio:   models.Undefined(),
			Verdict:       models.VerdictNoGo,
		},
	}
}

// TestNewRedisCache tests cache creation
func TestNewRedisCache(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	assert.NotNil(t, setup.cache)
	assert.NotNil(t, setup.cache.client)
	assert.Equal(t, 15*time.Minute, setup.cache.ttl)
}

// TestSetGet_RoundTrip tests caching and reading back a result
func TestSetGet_RoundTrip(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	result := testResult("default", time.Now().UTC())

	err := setup.cache.Set(setup.ctx, result)
	require.NoError(t, err)

	key := "backtest:" + result.RunID.String()
	assert.True(t, setup.miniRedis.Exists(key))
	assert.Equal(t, 15*time.Minute, setup.miniRedis.TTL(key))

	got, err := setup.cache.Get(setup.ctx, result.RunID)
	require.NoError(t, err)

	assert.Equal(t, result.RunID, got.RunID)
	assert.Equal(t, result.Strategy, got.Strategy)
	assert.True(t, result.Ledger.FinalBankroll.Equal(got.Ledger.FinalBankroll))
	require.Len(t, got.Ledger.Bets(), 1)
	assert.True(t, got.Ledger.Bets()[0].Stake.Equal(decimal.NewFromInt(200)))
	assert.False(t, got.Report.SharpeRatio.IsDefined())
	assert.Equal(t, models.VerdictNoGo, got.Report.Verdict)
}

// TestGet_NotFound tests cache miss
func TestGet_NotFound(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	got, err := setup.cache.Get(setup.ctx, uuid.New())

	assert.Nil(t, got)
	assert.True(t, errors.Is(err, service.ErrRunNotFound))
}

// TestGet_ExpiredKey tests TTL expiry
func TestGet_ExpiredKey(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	result := testResult("default", time.Now().UTC())
	require.NoError(t, setup.cache.Set(setup.ctx, result))

	setup.miniRedis.FastForward(20 * time.Minute)

	_, err := setup.cache.Get(setup.ctx, result.RunID)
	assert.True(t, errors.Is(err, service.ErrRunNotFound))
}

// TestGet_CorruptValue tests a value that is not a result
func TestGet_CorruptValue(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	runID := uuid.New()
	require.NoError(t, setup.miniRedis.Set("backtest:"+runID.String(), "invalid json data"))

	_, err := setup.cache.Get(setup.ctx, runID)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, service.ErrRunNotFound))
}

// TestListByStrategy tests the per-strategy index
func TestListByStrategy(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	now := time.Now().UTC()
	older := testResult("sharp", now.Add(-time.Hour))
	newer := testResult("sharp", now)
	other := testResult("default", now)

	for _, r := range []*models.BacktestResult{older, newer, other} {
		require.NoError(t, setup.cache.Set(setup.ctx, r))
	}

	ids, err := setup.cache.ListByStrategy(setup.ctx, "sharp")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{newer.RunID, older.RunID}, ids)

	// expired results drop out of the index
	setup.miniRedis.Del("backtest:" + older.RunID.String())
	ids, err = setup.cache.ListByStrategy(setup.ctx, "sharp")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{newer.RunID}, ids)

	members, err := setup.miniRedis.ZMembers("backtest:strategy:sharp")
	require.NoError(t, err)
	assert.Equal(t, []string{newer.RunID.String()}, members)

	ids, err = setup.cache.ListByStrategy(setup.ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

// TestPing_Success tests ping
func TestPing_Success(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	assert.NoError(t, setup.cache.Ping(setup.ctx))
}

// TestPing_RedisDown tests ping with Redis unavailable
func TestPing_RedisDown(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cache.Close()

	setup.miniRedis.Close()

	assert.Error(t, setup.cache.Ping(setup.ctx))
}
