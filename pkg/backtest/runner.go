package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/edge"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/kelly"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/performance"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/significance"
)

// Runner wires filter, staker, simulator and analyzer for named strategies.
// Each call builds a fresh simulator, so a Runner is safe for concurrent use.
type Runner struct {
	strategies map[string]models.StrategyParams
	order      []string
	registry   *edge.Registry
	logger     zerolog.Logger
}

// NewRunner creates a new runner. Strategy names must be unique and non-empty.
func NewRunner(registry *edge.Registry, logger zerolog.Logger, strategies ...models.StrategyParams) (*Runner, error) {
	if registry == nil {
		registry, _ = edge.NewRegistry()
	}

	r := &Runner{
		strategies: make(map[string]models.StrategyParams, len(strategies)),
		registry:   registry,
		logger:     logger.With().Str("component", "backtest_runner").Logger(),
	}
	for _, s := range strategies {
		if s.Name == "" {
			return nil, fmt.Errorf("strategy name is required")
		}
		if _, dup := r.strategies[s.Name]; dup {
			return nil, fmt.Errorf("duplicate strategy %q", s.Name)
		}
		r.strategies[s.Name] = s
		r.order = append(r.order, s.Name)
	}

	return r, nil
}

// Strategies returns the configured strategy names in registration order
func (r *Runner) Strategies() []string {
	return append([]string(nil), r.order...)
}

// Strategy returns the parameters of a named strategy
func (r *Runner) Strategy(name string) (models.StrategyParams, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// Registry returns the edge rule registry shared by all strategies
func (r *Runner) Registry() *edge.Registry {
	return r.registry
}

// Run backtests a configured strategy over the games
func (r *Runner) Run(ctx context.Context, strategy string, games []models.Game) (*models.BacktestResult, error) {
	params, ok := r.strategies[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	return r.RunParams(ctx, params, games)
}

// RunParams backtests an ad-hoc strategy over the games
func (r *Runner) RunParams(ctx context.Context, params models.StrategyParams, games []models.Game) (*models.BacktestResult, error) {
	started := time.Now().UTC()
	logger := r.logger.With().Str("strategy", params.Name).Logger()

	filter := edge.NewFilter(params.Filter, r.registry, logger)
	staker := kelly.NewStaker(params.Staking)

	sim, err := NewSimulator(params.Simulation, filter, staker, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid simulation parameters: %w", err)
	}

	ledger, err := sim.Run(ctx, games)
	if err != nil {
		return nil, err
	}

	analyzer := performance.NewAnalyzer(params.GoNoGo, significance.NewTester(params.Significance), logger)
	report, err := analyzer.Analyze(ledger)
	if err != nil {
		return nil, err
	}

	return &models.BacktestResult{
		RunID:       uuid.New(),
		Strategy:    params.Name,
		GameCount:   len(games),
		StartedAt:   started,
		CompletedAt: time.Now().UTC(),
		Ledger:      ledger,
		Report:      report,
	}, nil
}
