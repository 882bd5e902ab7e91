package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/mocks"
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

// testServiceSetup is a helper struct to hold test dependencies
type testServiceSetup struct {
	service      *BacktestService
	mockRunner   *mocks.MockRunner
	mockCache    *mocks.MockCache
	mockStore    *mocks.MockStore
	mockRecorder *mocks.MockRecorder
	ctx          context.Context
}

func setupTestService(t *testing.T) *testServiceSetup {
	ctrl := gomock.NewController(t)

	setup := &testServiceSetup{
		mockRunner:   mocks.NewMockRunner(ctrl),
		mockCache:    mocks.NewMockCache(ctrl),
		mockStore:    mocks.NewMockStore(ctrl),
		mockRecorder: mocks.NewMockRecorder(ctrl),
		ctx:          context.Background(),
	}
	setup.service = NewBacktestService(setup.mockRunner, setup.mockCache, setup.mockStore, setup.mockRecorder, zerolog.Nop())

	return setup
}

func testResult() *models.BacktestResult {
	bet := &models.Bet{ID: uuid.New(), GameID: "g1", Stake: decimal.NewFromInt(200), Won: true, Profit: decimal.NewFromInt(182)}
	return &models.BacktestResult{
		RunID:     uuid.New(),
		Strategy:  "default",
		GameCount: 1,
		Ledger: &models.Ledger{
			State:   models.StateComplete,
			Entries: []models.LedgerEntry{{Sequence: 1, GameID: "g1", Status: models.EntryBet, Bet: bet}},
			Wins:    1,
		},
		Report: &models.PerformanceReport{
			TotalBets:     1,
			FinalBankroll: decimal.NewFromInt(10182),
			Verdict:       models.VerdictNoGo,
		},
	}
}

func TestRunBacktest_Success(t *testing.T) {
	setup := setupTestService(t)
	result := testResult()
	games := []models.Game{{ID: "g1"}}

	setup.mockRunner.EXPECT().Run(setup.ctx, "default", games).Return(result, nil)
	setup.mockRecorder.EXPECT().ObserveRun(result, gomock.Any())
	setup.mockCache.EXPECT().Set(setup.ctx, result).Return(nil)
	setup.mockStore.EXPECT().SaveResult(setup.ctx, result).Return(nil)

	got, err := setup.service.RunBacktest(setup.ctx, "default", games)

	require.NoError(t, err)
	assert.Equal(t, result, got)
}

func TestRunBacktest_AdapterErrorsDoNotFail(t *testing.T) {
	setup := setupTestService(t)
	result := testResult()

	setup.mockRunner.EXPECT().Run(setup.ctx, "default", gomock.Any()).Return(result, nil)
	setup.mockRecorder.EXPECT().ObserveRun(result, gomock.Any())
	setup.mockCache.EXPECT().Set(setup.ctx, result).Return(errors.New("redis down"))
	setup.mockStore.EXPECT().SaveResult(setup.ctx, result).Return(errors.New("disk full"))

	got, err := setup.service.RunBacktest(setup.ctx, "default", nil)

	require.NoError(t, err)
	assert.Equal(t, result.RunID, got.RunID)
}

func TestRunBacktest_RunnerError(t *testing.T) {
	setup := setupTestService(t)
	runErr := errors.New("invalid game g2 at index 1: duplicate game id")

	setup.mockRunner.EXPECT().Run(setup.ctx, "default", gomock.Any()).Return(nil, runErr)
	setup.mockRecorder.EXPECT().RunFailed("default")

	got, err := setup.service.RunBacktest(setup.ctx, "default", nil)

	assert.Nil(t, got)
	assert.True(t, errors.Is(err, runErr))
}

func TestGetResult_CacheHit(t *testing.T) {
	setup := setupTestService(t)
	result := testResult()

	setup.mockCache.EXPECT().Get(setup.ctx, result.RunID).Return(result, nil)

	got, err := setup.service.GetResult(setup.ctx, result.RunID)

	require.NoError(t, err)
	assert.Equal(t, result, got)
}

func TestGetResult_FallsBackToStore(t *testing.T) {
	setup := setupTestService(t)
	result := testResult()
	result.Ledger = nil

	setup.mockCache.EXPECT().Get(setup.ctx, result.RunID).Return(nil, fmt.Errorf("%w: %s", ErrRunNotFound, result.RunID))
	setup.mockStore.EXPECT().GetRun(setup.ctx, result.RunID).Return(result, nil)

	got, err := setup.service.GetResult(setup.ctx, result.RunID)

	require.NoError(t, err)
	assert.Equal(t, result, got)
}

func TestGetResult_NotFound(t *testing.T) {
	setup := setupTestService(t)
	runID := uuid.New()

	setup.mockCache.EXPECT().Get(setup.ctx, runID).Return(nil, errors.New("connection refused"))
	setup.mockStore.EXPECT().GetRun(setup.ctx, runID).Return(nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID))

	_, err := setup.service.GetResult(setup.ctx, runID)

	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestGetBets(t *testing.T) {
	setup := setupTestService(t)
	result := testResult()

	setup.mockCache.EXPECT().Get(setup.ctx, result.RunID).Return(result, nil)

	bets, err := setup.service.GetBets(setup.ctx, result.RunID)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, "g1", bets[0].GameID)

	other := uuid.New()
	stored := []models.Bet{{GameID: "g7"}, {GameID: "g9"}}
	setup.mockCache.EXPECT().Get(setup.ctx, other).Return(nil, ErrRunNotFound)
	setup.mockStore.EXPECT().ListBets(setup.ctx, other).Return(stored, nil)

	bets, err = setup.service.GetBets(setup.ctx, other)
	require.NoError(t, err)
	assert.Equal(t, stored, bets)
}

func TestListRunsAndStrategies(t *testing.T) {
	setup := setupTestService(t)
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	setup.mockCache.EXPECT().ListByStrategy(setup.ctx, "default").Return(ids, nil)
	setup.mockRunner.EXPECT().Strategies().Return([]string{"default", "sharp"})

	got, err := setup.service.ListRuns(setup.ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, ids, got)
	assert.Equal(t, []string{"default", "sharp"}, setup.service.Strategies())
}

func TestReady(t *testing.T) {
	setup := setupTestService(t)

	setup.mockCache.EXPECT().Ping(setup.ctx).Return(nil)
	setup.mockStore.EXPECT().Ping(setup.ctx).Return(nil)
	assert.NoError(t, setup.service.Ready(setup.ctx))

	setup.mockCache.EXPECT().Ping(setup.ctx).Return(errors.New("redis down"))
	assert.Error(t, setup.service.Ready(setup.ctx))
}

func TestNewBacktestService_OptionalDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	cache := mocks.NewMockCache(ctrl)
	svc := NewBacktestService(runner, cache, nil, nil, zerolog.Nop())

	result := testResult()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	runner.EXPECT().Run(ctx, "default", gomock.Any()).Return(result, nil)
	cache.EXPECT().Set(ctx, result).Return(nil)

	_, err := svc.RunBacktest(ctx, "default", nil)
	require.NoError(t, err)

	cache.EXPECT().Get(ctx, result.RunID).Return(nil, ErrRunNotFound)
	_, err = svc.GetResult(ctx, result.RunID)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}
