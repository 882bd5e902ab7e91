package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
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
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/service"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/backtest"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/edge"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/kelly"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/significance"
)

// testHandlerSetup is a helper struct to hold test dependencies
type testHandlerSetup struct {
	router     http.Handler
	mockRunner *mocks.MockRunner
	mockCache  *mocks.MockCache
}

func setupTestHandler(t *testing.T) *testHandlerSetup {
	ctrl := gomock.NewController(t)
	mockRunner := mocks.NewMockRunner(ctrl)
	mockCache := mocks.NewMockCache(ctrl)

	svc := service.NewBacktestService(mockRunner, mockCache, nil, nil, zerolog.Nop())
	staker := kelly.NewStaker(models.StakingPolicy{KellyFraction: 0.25, MaxBetFraction: 0.02})
	tester := significance.NewTester(significance.DefaultParams())
	registry, err := edge.NewRegistry()
	require.NoError(t, err)
	filter := edge.NewFilter(models.FilterParams{MinEdge: 0.02, MinProbability: 0.55}, registry, zerolog.Nop())
	handler := NewBacktestHandler(svc, tester, staker, filter, edge.NewGroupCorrelation(edge.NFLDivisions()), zerolog.Nop())

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# metrics"))
	})

	return &testHandlerSetup{
		router:     NewRouter(handler, RouterConfig{RequestTimeout: 5 * time.Second, Metrics: metrics}),
		mockRunner: mockRunner,
		mockCache:  mockCache,
	}
}

func (s *testHandlerSetup) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func handlerResult() *models.BacktestResult {
	bet := &models.Bet{ID: uuid.New(), GameID: "2023_01_DET_KC", Stake: decimal.NewFromInt(200), Won: true, Profit: decimal.NewFromInt(182)}
	return &models.BacktestResult{
		RunID:     uuid.New(),
		Strategy:  "default",
		GameCount: 1,
		Ledger: &models.Ledger{
			State:   models.StateComplete,
			Entries: []models.LedgerEntry{{Sequence: 1, GameID: bet.GameID, Status: models.EntryBet, Bet: bet}},
			Wins:    1,
		},
		Report: &models.PerformanceReport{
			TotalBets:     1,
			Wins:          1,
			FinalBankroll: decimal.NewFromInt(10182),
			SharpeRatio:   models.Undefined(),
			Verdict:       models.VerdictNoGo,
		},
	}
}

func backtestBody() BacktestRequest {
	return BacktestRequest{
		Games: []models.Game{{
			ID:                   "2023_01_DET_KC",
			ScheduledAt:          time.Date(2023, 9, 7, 20, 20, 0, 0, time.UTC),
			HomeTeam:             "KC",
			AwayTeam:             "DET",
			Side:                 models.SideHome,
			DecimalOdds:          1.91,
			PredictedProbability: 0.6,
			HomeWin:              true,
		}},
	}
}

func TestRunBacktest_Created(t *testing.T) {
	setup := setupTestHandler(t)
	result := handlerResult()

	setup.mockRunner.EXPECT().Run(gomock.Any(), "default", gomock.Len(1)).Return(result, nil)
	setup.mockCache.EXPECT().Set(gomock.Any(), result).Return(nil)

	rec := setup.do(t, http.MethodPost, "/api/v1/backtests", backtestBody())

	require.Equal(t, http.StatusCreated, rec.Code)
	var got models.BacktestResult
	decodeBody(t, rec, &got)
	assert.Equal(t, result.RunID, got.RunID)
	assert.Nil(t, got.Ledger)
	assert.Equal(t, models.VerdictNoGo, got.Report.Verdict)
	assert.False(t, got.Report.SharpeRatio.IsDefined())
	assert.NotNil(t, result.Ledger, "the cached result keeps its ledger")
}

func TestRunBacktest_IncludeLedger(t *testing.T) {
	setup := setupTestHandler(t)
	result := handlerResult()

	setup.mockRunner.EXPECT().Run(gomock.Any(), "sharp", gomock.Any()).Return(result, nil)
	setup.mockCache.EXPECT().Set(gomock.Any(), result).Return(nil)

	body := backtestBody()
	body.Strategy = "sharp"
	body.IncludeLedger = true
	rec := setup.do(t, http.MethodPost, "/api/v1/backtests", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got models.BacktestResult
	decodeBody(t, rec, &got)
	require.NotNil(t, got.Ledger)
	assert.Len(t, got.Ledger.Bets(), 1)
}

func TestRunBacktest_BadRequests(t *testing.T) {
	setup := setupTestHandler(t)

	rec := setup.do(t, http.MethodPost, "/api/v1/backtests", "invalid json data")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = setup.do(t, http.MethodPost, "/api/v1/backtests", BacktestRequest{Strategy: "default"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunBacktest_RunErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "validation error",
			err:        &backtest.ValidationError{Index: 1, GameID: "g2", Reason: "scheduled before previous game"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown strategy",
			err:        fmt.Errorf("%w: %q", backtest.ErrUnknownStrategy, "default"),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invariant violation",
			err:        &backtest.InvariantViolation{Kind: backtest.ViolationStakeExceedsBankroll, GameID: "g1"},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "canceled",
			err:        fmt.Errorf("backtest aborted: %w", context.Canceled),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup := setupTestHandler(t)
			setup.mockRunner.EXPECT().Run(gomock.Any(), "default", gomock.Any()).Return(nil, tt.err)

			rec := setup.do(t, http.MethodPost, "/api/v1/backtests", backtestBody())

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]string
			decodeBody(t, rec, &body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetBacktest(t *testing.T) {
	setup := setupTestHandler(t)
	result := handlerResult()

	setup.mockCache.EXPECT().Get(gomock.Any(), result.RunID).Return(result, nil)

	rec := setup.do(t, http.MethodGet, "/api/v1/backtests/"+result.RunID.String(), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.BacktestResult
	decodeBody(t, rec, &got)
	assert.Equal(t, result.RunID, got.RunID)
}

func TestGetBacktest_NotFound(t *testing.T) {
	setup := setupTestHandler(t)
	runID := uuid.New()

	setup.mockCache.EXPECT().Get(gomock.Any(), runID).Return(nil, fmt.Errorf("%w: %s", service.ErrRunNotFound, runID))

	rec := setup.do(t, http.MethodGet, "/api/v1/backtests/"+runID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBacktest_InvalidRunID(t *testing.T) {
	setup := setupTestHandler(t)

	rec := setup.do(t, http.MethodGet, "/api/v1/backtests/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBets(t *testing.T) {
	setup := setupTestHandler(t)
	result := handlerResult()

	setup.mockCache.EXPECT().Get(gomock.Any(), result.RunID).Return(result, nil)

	rec := setup.do(t, http.MethodGet, "/api/v1/backtests/"+result.RunID.String()+"/bets", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count int          `json:"count"`
		Bets  []models.Bet `json:"bets"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "2023_01_DET_KC", body.Bets[0].GameID)
}

func TestListStrategiesAndRuns(t *testing.T) {
	setup := setupTestHandler(t)
	ids := []uuid.UUID{uuid.New()}

	setup.mockRunner.EXPECT().Strategies().Return([]string{"default", "sharp"})
	setup.mockCache.EXPECT().ListByStrategy(gomock.Any(), "sharp").Return(ids, nil)

	rec := setup.do(t, http.MethodGet, "/api/v1/strategies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var strategies struct {
		Strategies []string `json:"strategies"`
	}
	decodeBody(t, rec, &strategies)
	assert.Equal(t, []string{"default", "sharp"}, strategies.Strategies)

	rec = setup.do(t, http.MethodGet, "/api/v1/strategies/sharp/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var runs struct {
		Count  int         `json:"count"`
		RunIDs []uuid.UUID `json:"run_ids"`
	}
	decodeBody(t, rec, &runs)
	assert.Equal(t, ids, runs.RunIDs)
}

func TestListRuns_CacheError(t *testing.T) {
	setup := setupTestHandler(t)
	setup.mockCache.EXPECT().ListByStrategy(gomock.Any(), "sharp").Return(nil, errors.New("redis down"))

	rec := setup.do(t, http.MethodGet, "/api/v1/strategies/sharp/runs", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSignificance(t *testing.T) {
	setup := setupTestHandler(t)

	rec := setup.do(t, http.MethodPost, "/api/v1/significance", SignificanceRequest{Wins: 50, Total: 100, BreakEvenProbability: 0.5})
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.SignificanceResult
	decodeBody(t, rec, &got)
	assert.InDelta(t, 1.0, got.PValue, 1e-9)
	assert.False(t, got.IsSignificant)

	rec = setup.do(t, http.MethodPost, "/api/v1/significance", SignificanceRequest{Wins: 5, Total: 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStake(t *testing.T) {
	setup := setupTestHandler(t)

	rec := setup.do(t, http.MethodPost, "/api/v1/stake", map[string]interface{}{
		"win_probability": 0.6,
		"decimal_odds":    1.91,
		"bankroll":        "10000",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got StakeResponse
	decodeBody(t, rec, &got)
	assert.True(t, got.Stake.Equal(decimal.NewFromInt(200)), "stake %s", got.Stake)
	assert.True(t, got.Capped)
	assert.InDelta(t, 0.1604, got.FullKelly, 1e-4)
	assert.InDelta(t, 0.6-1/1.91, got.Edge, 1e-9)

	// American odds are converted when no decimal price is given
	rec = setup.do(t, http.MethodPost, "/api/v1/stake", map[string]interface{}{
		"win_probability": 0.5,
		"american_odds":   -110,
		"bankroll":        "10000",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &got)
	assert.True(t, got.Stake.IsZero())
	assert.InDelta(t, 1.0+100.0/110.0, got.DecimalOdds, 1e-9)
}

func TestStake_BadRequests(t *testing.T) {
	setup := setupTestHandler(t)

	bodies := []map[string]interface{}{
		{"win_probability": 1.2, "decimal_odds": 1.91, "bankroll": "10000"},
		{"win_probability": 0.6, "decimal_odds": 1.91, "bankroll": "0"},
		{"win_probability": 0.6, "decimal_odds": 0.9, "bankroll": "10000"},
		{"win_probability": 0.6, "bankroll": "10000"},
	}
	for _, body := range bodies {
		rec := setup.do(t, http.MethodPost, "/api/v1/stake", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %v", body)
	}
}

func parlayLeg(id, home, away string, p float64) models.Game {
	return models.Game{
		ID:                   id,
		ScheduledAt:          time.Date(2023, 10, 8, 17, 0, 0, 0, time.UTC),
		HomeTeam:             home,
		AwayTeam:             away,
		Side:                 models.SideHome,
		DecimalOdds:          1.91,
		PredictedProbability: p,
	}
}

func TestParlay(t *testing.T) {
	setup := setupTestHandler(t)

	rec := setup.do(t, http.MethodPost, "/api/v1/parlays", ParlayRequest{Legs: []models.Game{
		parlayLeg("2023_05_DET_KC", "KC", "DET", 0.60),
		parlayLeg("2023_05_DAL_PHI", "PHI", "DAL", 0.60),
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Legs           []models.BetCandidate `json:"legs"`
		DecimalOdds    float64               `json:"decimal_odds"`
		WinProbability float64               `json:"win_probability"`
		Edge           float64               `json:"edge"`
	}
	decodeBody(t, rec, &got)
	assert.Len(t, got.Legs, 2)
	assert.InDelta(t, 1.91*1.91, got.DecimalOdds, 1e-9)
	assert.InDelta(t, 0.36, got.WinProbability, 1e-9)
	assert.InDelta(t, 0.36-1/(1.91*1.91), got.Edge, 1e-9)
}

func TestParlay_Rejected(t *testing.T) {
	setup := setupTestHandler(t)

	tests := []struct {
		name string
		legs []models.Game
	}{
		{"single leg", []models.Game{parlayLeg("g1", "KC", "DET", 0.6)}},
		{"same division same day", []models.Game{
			parlayLeg("g1", "KC", "DET", 0.6),
			parlayLeg("g2", "GB", "CHI", 0.6),
		}},
		{"too many legs", []models.Game{
			parlayLeg("g1", "KC", "DET", 0.6),
			parlayLeg("g2", "PHI", "DAL", 0.6),
			parlayLeg("g3", "BUF", "JAX", 0.6),
			parlayLeg("g4", "SF", "ATL", 0.6),
		}},
		{"leg without edge", []models.Game{
			parlayLeg("g1", "KC", "DET", 0.6),
			parlayLeg("g2", "PHI", "DAL", 0.5),
		}},
		{"malformed odds", []models.Game{
			parlayLeg("g1", "KC", "DET", 0.6),
			{ID: "g2", Side: models.SideHome, DecimalOdds: 0.5, PredictedProbability: 0.6},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := setup.do(t, http.MethodPost, "/api/v1/parlays", ParlayRequest{Legs: tt.legs})
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		})
	}

	rec := setup.do(t, http.MethodPost, "/api/v1/parlays", "{bad json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthReadyMetrics(t *testing.T) {
	setup := setupTestHandler(t)

	rec := setup.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	setup.mockCache.EXPECT().Ping(gomock.Any()).Return(nil)
	rec = setup.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	setup.mockCache.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	rec = setup.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = setup.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}
