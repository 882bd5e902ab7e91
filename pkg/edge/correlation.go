package edge

import (
	"errors"
	"fmt"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

// MaxParlayLegs is the hard cap on legs in a combined bet
const MaxParlayLegs = 3

var (
	ErrTooManyLegs    = errors.New("too many parlay legs")
	ErrCorrelatedLegs = errors.New("correlated parlay legs")
)

// CorrelationChecker decides whether two candidates may not be combined
type CorrelationChecker interface {
	AreCorrelated(a, b *models.BetCandidate) bool
}

// GroupCorrelation treats two candidates as correlated when they are the same game,
// or when any of their teams share a group (e.g. a division) on the same calendar day.
type GroupCorrelation struct {
	groups map[string]string
}

// NewGroupCorrelation creates a checker from a team -> group mapping
func NewGroupCorrelation(groups map[string]string) *GroupCorrelation {
	return &GroupCorrelation{groups: groups}
}

// AreCorrelated implements CorrelationChecker
func (c *GroupCorrelation) AreCorrelated(a, b *models.BetCandidate) bool {
	if a.GameID == b.GameID {
		return true
	}

	ay, am, ad := a.ScheduledAt.UTC().Date()
	by, bm, bd := b.ScheduledAt.UTC().Date()
	if ay != by || am != bm || ad != bd {
		return false
	}

	for _, ta := range []string{a.Team, a.Opponent} {
		ga, ok := c.groups[ta]
		if !ok {
			continue
		}
		for _, tb := range []string{b.Team, b.Opponent} {
			if gb, ok := c.groups[tb]; ok && ga == gb {
				return true
			}
		}
	}
	return false
}

// Parlay is a multi-leg combination of independent candidates
type Parlay struct {
	Legs           []models.BetCandidate `json:"legs"`
	DecimalOdds    float64               `json:"decimal_odds"`
	WinProbability float64               `json:"win_probability"`
}

// Edge is the parlay's model probability minus its implied probability
func (p *Parlay) Edge() float64 {
	return p.WinProbability - 1/p.DecimalOdds
}

// BuildParlay combines two or three qualifying, pairwise-uncorrelated candidates
func BuildParlay(checker CorrelationChecker, legs ...models.BetCandidate) (*Parlay, error) {
	if len(legs) < 2 {
		return nil, fmt.Errorf("parlay needs at least 2 legs, got %d", len(legs))
	}
	if len(legs) > MaxParlayLegs {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyLegs, len(legs), MaxParlayLegs)
	}

	parlay := &Parlay{DecimalOdds: 1, WinProbability: 1}
	for i := range legs {
		if !legs[i].Qualifies() {
			return nil, fmt.Errorf("leg %s does not qualify: %s", legs[i].GameID, legs[i].Reason)
		}
		for j := i + 1; j < len(legs); j++ {
			if checker.AreCorrelated(&legs[i], &legs[j]) {
				return nil, fmt.Errorf("%w: %s and %s", ErrCorrelatedLegs, legs[i].GameID, legs[j].GameID)
			}
		}
		parlay.DecimalOdds *= legs[i].DecimalOdds
		parlay.WinProbability *= legs[i].PredictedProbability
	}
	parlay.Legs = append([]models.BetCandidate(nil), legs...)

	return parlay, nil
}

// NFLDivisions maps team abbreviations to their division
func NFLDivisions() map[string]string {
	divisions := map[string][]string{
		"AFC East":  {"BUF", "MIA", "NE", "NYJ"},
		"AFC North": {"BAL", "CIN", "CLE", "PIT"},
		"AFC South": {"HOU", "IND", "JAX", "TEN"},
		"AFC West":  {"DEN", "KC", "LV", "LAC"},
		"NFC East":  {"DAL", "NYG", "PHI", "WAS"},
		"NFC North": {"CHI", "DET", "GB", "MIN"},
		"NFC South": {"ATL", "CAR", "NO", "TB"},
		"NFC West":  {"ARI", "LA", "SF", "SEA"},
	}

	out := make(map[string]string, 32)
	for division, teams := range divisions {
		for _, team := range teams {
			out[team] = division
		}
	}
	return out
}
