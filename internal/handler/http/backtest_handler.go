package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/service"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/backtest"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/edge"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/kelly"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/odds"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/significance"
)

// maxBodyBytes bounds a backtest request; a full season with features fits comfortably
const maxBodyBytes = 50 << 20

// BacktestHandler handles HTTP requests for backtests and standalone sizing tools
type BacktestHandler struct {
	service     *service.BacktestService
	tester      *significance.Tester
	staker      *kelly.Staker
	filter      *edge.Filter
	correlation edge.CorrelationChecker
	logger      zerolog.Logger
}

// NewBacktestHandler creates a new backtest HTTP handler
func NewBacktestHandler(
	service *service.BacktestService,
	tester *significance.Tester,
	staker *kelly.Staker,
	filter *edge.Filter,
	correlation edge.CorrelationChecker,
	logger zerolog.Logger,
) *BacktestHandler {
	return &BacktestHandler{
		service:     service,
		tester:      tester,
		staker:      staker,
		filter:      filter,
		correlation: correlation,
		logger:      logger.With().Str("component", "backtest_handler").Logger(),
	}
}

// RegisterRoutes registers API routes with the provided router
func (h *BacktestHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/backtests", h.handleRunBacktest)
		r.Get("/backtests/{runID}", h.handleGetBacktest)
		r.Get("/backtests/{runID}/bets", h.handleGetBets)
		r.Get("/strategies", h.handleListStrategies)
		r.Get("/strategies/{strategy}/runs", h.handleListRuns)
		r.Post("/significance", h.handleSignificance)
		r.Post("/stake", h.handleStake)
		r.Post("/parlays", h.handleParlay)
	})
}

// BacktestRequest is the body of POST /api/v1/backtests
type BacktestRequest struct {
	Strategy string        `json:"strategy"`
	Games    []models.Game `json:"games"`

	// IncludeLedger returns every ledger entry, not just the report
	IncludeLedger bool `json:"include_ledger"`
}

// handleRunBacktest handles POST /api/v1/backtests
func (h *BacktestHandler) handleRunBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Strategy == "" {
		req.Strategy = "default"
	}
	if len(req.Games) == 0 {
		h.errorResponse(w, http.StatusBadRequest, "games are required")
		return
	}

	result, err := h.service.RunBacktest(r.Context(), req.Strategy, req.Games)
	if err != nil {
		h.runErrorResponse(w, req.Strategy, err)
		return
	}

	if !req.IncludeLedger {
		summary := *result
		summary.Ledger = nil
		result = &summary
	}
	h.jsonResponse(w, http.StatusCreated, result)
}

// runErrorResponse maps a failed run onto a status code
func (h *BacktestHandler) runErrorResponse(w http.ResponseWriter, strategy string, err error) {
	var validation *backtest.ValidationError
	var violation *backtest.InvariantViolation

	switch {
	case errors.As(err, &validation):
		h.errorResponse(w, http.StatusUnprocessableEntity, validation.Error())
	case errors.Is(err, backtest.ErrUnknownStrategy):
		h.errorResponse(w, http.StatusNotFound, "unknown strategy: "+strategy)
	case errors.As(err, &violation):
		h.logger.Error().Err(err).Str("strategy", strategy).Msg("bankroll invariant violated")
		h.errorResponse(w, http.StatusInternalServerError, "bankroll invariant violated")
	default:
		h.logger.Error().Err(err).Str("strategy", strategy).Msg("backtest failed")
		h.errorResponse(w, http.StatusInternalServerError, "backtest failed")
	}
}

// handleGetBacktest handles GET /api/v1/backtests/{runID}
func (h *BacktestHandler) handleGetBacktest(w http.ResponseWriter, r *http.Request) {
	runID, ok := h.runID(w, r)
	if !ok {
		return
	}

	result, err := h.service.GetResult(r.Context(), runID)
	if err != nil {
		h.lookupErrorResponse(w, runID, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, result)
}

// handleGetBets handles GET /api/v1/backtests/{runID}/bets
func (h *BacktestHandler) handleGetBets(w http.ResponseWriter, r *http.Request) {
	runID, ok := h.runID(w, r)
	if !ok {
		return
	}

	bets, err := h.service.GetBets(r.Context(), runID)
	if err != nil {
		h.lookupErrorResponse(w, runID, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"count":  len(bets),
		"bets":   bets,
	})
}

// handleListStrategies handles GET /api/v1/strategies
func (h *BacktestHandler) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"strategies": h.service.Strategies(),
	})
}

// handleListRuns handles GET /api/v1/strategies/{strategy}/runs
func (h *BacktestHandler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	strategy := chi.URLParam(r, "strategy")

	ids, err := h.service.ListRuns(r.Context(), strategy)
	if err != nil {
		h.logger.Error().Err(err).Str("strategy", strategy).Msg("failed to list runs")
		h.errorResponse(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"strategy": strategy,
		"count":    len(ids),
		"run_ids":  ids,
	})
}

// SignificanceRequest is the body of POST /api/v1/significance
type SignificanceRequest struct {
	Wins                 int     `json:"wins"`
	Total                int     `json:"total"`
	BreakEvenProbability float64 `json:"break_even_probability"` // 0 uses the configured value
}

// handleSignificance handles POST /api/v1/significance
func (h *BacktestHandler) handleSignificance(w http.ResponseWriter, r *http.Request) {
	var req SignificanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.tester.Test(req.Wins, req.Total, req.BreakEvenProbability)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h.jsonResponse(w, http.StatusOK, result)
}

// StakeRequest is the body of POST /api/v1/stake. Decimal odds take precedence over American odds.
type StakeRequest struct {
	WinProbability float64         `json:"win_probability"`
	DecimalOdds    float64         `json:"decimal_odds"`
	AmericanOdds   float64         `json:"american_odds"`
	Bankroll       decimal.Decimal `json:"bankroll"`
	KellyFraction  float64         `json:"kelly_fraction"`
	Tier           models.Tier     `json:"tier"`
	RecentWinRate  *float64        `json:"recent_win_rate"`
}

// StakeResponse is the sizing decision returned by POST /api/v1/stake
type StakeResponse struct {
	Stake              decimal.Decimal `json:"stake"`
	DecimalOdds        float64         `json:"decimal_odds"`
	ImpliedProbability float64         `json:"implied_probability"`
	Edge               float64         `json:"edge"`
	FullKelly          float64         `json:"full_kelly"`
	AppliedFraction    float64         `json:"applied_fraction"`
	Multiplier         float64         `json:"multiplier"`
	Capped             bool            `json:"capped"`
}

// handleStake handles POST /api/v1/stake
func (h *BacktestHandler) handleStake(w http.ResponseWriter, r *http.Request) {
	var req StakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WinProbability <= 0 || req.WinProbability >= 1 {
		h.errorResponse(w, http.StatusBadRequest, "win_probability must be in (0,1)")
		return
	}
	if !req.Bankroll.IsPositive() {
		h.errorResponse(w, http.StatusBadRequest, "bankroll must be positive")
		return
	}

	game := models.Game{DecimalOdds: req.DecimalOdds, AmericanOdds: req.AmericanOdds}
	decimalOdds, err := game.MarketDecimalOdds()
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	implied, err := odds.ImpliedProbability(decimalOdds)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	recent := math.NaN()
	if req.RecentWinRate != nil {
		recent = *req.RecentWinRate
	}

	stake := h.staker.ComputeStake(kelly.StakeRequest{
		WinProbability: req.WinProbability,
		DecimalOdds:    decimalOdds,
		Bankroll:       req.Bankroll,
		KellyFraction:  req.KellyFraction,
		Tier:           req.Tier,
		RecentWinRate:  recent,
	})

	h.jsonResponse(w, http.StatusOK, StakeResponse{
		Stake:              stake.Amount,
		DecimalOdds:        decimalOdds,
		ImpliedProbability: implied,
		Edge:               req.WinProbability - implied,
		FullKelly:          stake.FullKelly,
		AppliedFraction:    stake.AppliedFraction,
		Multiplier:         stake.Multiplier,
		Capped:             stake.Capped,
	})
}

// ParlayRequest is the body of POST /api/v1/parlays
type ParlayRequest struct {
	Legs []models.Game `json:"legs"`
}

// ParlayResponse is a priced parlay of uncorrelated, qualifying legs
type ParlayResponse struct {
	*edge.Parlay
	Edge float64 `json:"edge"`
}

// handleParlay handles POST /api/v1/parlays
func (h *BacktestHandler) handleParlay(w http.ResponseWriter, r *http.Request) {
	var req ParlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	candidates := make([]models.BetCandidate, 0, len(req.Legs))
	for i := range req.Legs {
		candidate, err := h.filter.Evaluate(&req.Legs[i])
		if err != nil {
			h.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		candidates = append(candidates, candidate)
	}

	parlay, err := edge.BuildParlay(h.correlation, candidates...)
	if err != nil {
		h.logger.Debug().Err(err).Int("legs", len(candidates)).Msg("parlay rejected")
		h.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.jsonResponse(w, http.StatusOK, ParlayResponse{Parlay: parlay, Edge: parlay.Edge()})
}

// HandleHealth returns 200 if the service is running
func (h *BacktestHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleReady returns 200 if the service is ready to accept traffic
func (h *BacktestHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ready(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("readiness check failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(err.Error()))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}

func (h *BacktestHandler) runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	runID, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid run id")
		return uuid.Nil, false
	}
	return runID, true
}

func (h *BacktestHandler) lookupErrorResponse(w http.ResponseWriter, runID uuid.UUID, err error) {
	if errors.Is(err, service.ErrRunNotFound) {
		h.logger.Debug().Err(err).Str("run_id", runID.String()).Msg("run not found")
		h.errorResponse(w, http.StatusNotFound, "backtest run not found")
		return
	}

	h.logger.Error().Err(err).Str("run_id", runID.String()).Msg("failed to retrieve run")
	h.errorResponse(w, http.StatusInternalServerError, "failed to retrieve run")
}

// jsonResponse writes a JSON response
func (h *BacktestHandler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes a JSON error response
func (h *BacktestHandler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}
