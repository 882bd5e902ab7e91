// Package edge decides which games are bet opportunities and grades them.
package edge

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

// No-bet reasons
const (
	ReasonEdgeBelowMinimum        = "edge below minimum"
	ReasonProbabilityBelowMinimum = "probability below minimum"
	ReasonNoMatchingRule          = "no matching rule"
)

// Filter evaluates games against probability/edge thresholds and the rule registry
type Filter struct {
	params   models.FilterParams
	registry *Registry
	logger   zerolog.Logger
}

// NewFilter creates a new edge filter. A nil registry behaves like an empty one.
func NewFilter(params models.FilterParams, registry *Registry, logger zerolog.Logger) *Filter {
	if registry == nil {
		registry, _ = NewRegistry()
	}
	return &Filter{
		params:   params,
		registry: registry,
		logger:   logger.With().Str("component", "edge_filter").Logger(),
	}
}

// Params returns the filter thresholds
func (f *Filter) Params() models.FilterParams {
	return f.params
}

// Evaluate grades one game. A non-qualifying game yields a candidate with TierNoBet;
// an error means the game's market data is malformed.
func (f *Filter) Evaluate(g *models.Game) (models.BetCandidate, error) {
	p := g.PredictedProbability
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return models.BetCandidate{}, fmt.Errorf("game %s: predicted probability %v outside (0,1)", g.ID, p)
	}

	decimalOdds, err := g.MarketDecimalOdds()
	if err != nil {
		return models.BetCandidate{}, fmt.Errorf("game %s: %w", g.ID, err)
	}

	implied := 1.0 / decimalOdds
	candidate := models.BetCandidate{
		GameID:               g.ID,
		ScheduledAt:          g.ScheduledAt,
		Side:                 g.Side,
		Team:                 g.Team(),
		Opponent:             g.Opponent(),
		PredictedProbability: p,
		ImpliedProbability:   implied,
		Edge:                 p - implied,
		DecimalOdds:          decimalOdds,
		Tier:                 models.TierNoBet,
	}

	matched := f.registry.Matching(g)
	for _, rule := range matched {
		candidate.MatchedRules = append(candidate.MatchedRules, rule.Name)
	}

	// Both thresholds must clear
	switch {
	case candidate.Edge < f.params.MinEdge:
		candidate.Reason = ReasonEdgeBelowMinimum
	case p < f.params.MinProbability:
		candidate.Reason = ReasonProbabilityBelowMinimum
	case len(matched) == 0 && f.params.RequireRule:
		candidate.Reason = ReasonNoMatchingRule
	case len(matched) == 0:
		candidate.Tier = models.TierC
	default:
		primary := bestRule(matched)
		candidate.PrimaryRule = primary.Name
		candidate.Tier = primary.Stats.Tier
		if candidate.Tier.Rank() <= models.TierC.Rank() {
			candidate.Tier = models.TierC
		}
	}

	f.logger.Debug().
		Str("game_id", g.ID).
		Float64("edge", candidate.Edge).
		Float64("predicted_probability", p).
		Str("tier", string(candidate.Tier)).
		Strs("rules", candidate.MatchedRules).
		Msg("evaluated game")

	return candidate, nil
}

// bestRule picks the matched rule with the highest historical ROI; ties keep registration order
func bestRule(rules []Rule) Rule {
	best := rules[0]
	for _, r := range rules[1:] {
		if r.Stats.ROI > best.Stats.ROI {
			best = r
		}
	}
	return best
}
