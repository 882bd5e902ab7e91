// Package optimizer sweeps strategy variants over the same game history and ranks them.
package optimizer

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

const defaultConcurrency = 4

// ParamsRunner backtests an ad-hoc strategy
type ParamsRunner interface {
	RunParams(ctx context.Context, params models.StrategyParams, games []models.Game) (*models.BacktestResult, error)
}

// Optimizer runs independent strategy variants concurrently.
// Each variant gets its own simulator; the game slice is shared read-only.
type Optimizer struct {
	runner      ParamsRunner
	concurrency int
	logger      zerolog.Logger
}

// NewOptimizer creates a new strategy optimizer
func NewOptimizer(runner ParamsRunner, concurrency int, logger zerolog.Logger) *Optimizer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Optimizer{
		runner:      runner,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "optimizer").Logger(),
	}
}

// Sweep backtests every variant and returns the results ranked best first.
// The first failing variant cancels the rest and its error is returned.
func (o *Optimizer) Sweep(ctx context.Context, games []models.Game, variants []models.StrategyParams) ([]*models.BacktestResult, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("no strategy variants to sweep")
	}

	results := make([]*models.BacktestResult, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i := range variants {
		i := i
		g.Go(func() error {
			result, err := o.runner.RunParams(gctx, variants[i], games)
			if err != nil {
				return fmt.Errorf("strategy %s: %w", variants[i].Name, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	Rank(results)

	o.logger.Info().
		Int("variants", len(variants)).
		Int("games", len(games)).
		Str("best", results[0].Strategy).
		Msg("strategy sweep complete")

	return results, nil
}

// Rank orders results with GO verdicts first, then by ROI on wagered, then by name
func Rank(results []*models.BacktestResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Report, results[j].Report
		if a.Go != b.Go {
			return a.Go
		}
		if a.ROIOnWagered != b.ROIOnWagered {
			return a.ROIOnWagered > b.ROIOnWagered
		}
		return results[i].Strategy < results[j].Strategy
	})
}

// Grid expands a base strategy over Kelly fractions and minimum edges.
// Empty dimensions keep the base value.
func Grid(base models.StrategyParams, kellyFractions, minEdges []float64) []models.StrategyParams {
	if len(kellyFractions) == 0 {
		kellyFractions = []float64{base.Staking.KellyFraction}
	}
	if len(minEdges) == 0 {
		minEdges = []float64{base.Filter.MinEdge}
	}

	variants := make([]models.StrategyParams, 0, len(kellyFractions)*len(minEdges))
	for _, kf := range kellyFractions {
		for _, edge := range minEdges {
			v := base
			v.Staking.TierMultipliers = copyMultipliers(base.Staking.TierMultipliers)
			v.Staking.KellyFraction = kf
			v.Filter.MinEdge = edge
			v.Name = base.Name + "/kelly=" + strconv.FormatFloat(kf, 'f', -1, 64) +
				"/edge=" + strconv.FormatFloat(edge, 'f', -1, 64)
			variants = append(variants, v)
		}
	}
	return variants
}

func copyMultipliers(m map[models.Tier]float64) map[models.Tier]float64 {
	if m == nil {
		return nil
	}
	out := make(map[models.Tier]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
