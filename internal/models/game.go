package models

import (
	"fmt"
	"time"

	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/odds"
)

// Side identifies which team of a game a bet is placed on
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Game is one historical NFL game as delivered by the upstream feature/odds table.
// It is read-only for the duration of a backtest run.
type Game struct {
	ID          string    `json:"id"`
	Season      int       `json:"season,omitempty"`
	Week        int       `json:"week,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`

	// Side is the team the model probability and market odds refer to
	Side                 Side     `json:"side"`
	DecimalOdds          float64  `json:"decimal_odds,omitempty"`
	AmericanOdds         float64  `json:"american_odds,omitempty"`
	ClosingOdds          *float64 `json:"closing_odds,omitempty"` // decimal, optional
	PredictedProbability float64  `json:"predicted_probability"`

	// HomeWin is the realized outcome. Only read when the bet is resolved.
	HomeWin bool `json:"home_win"`

	Features map[string]float64 `json:"features,omitempty"`
	Tags     []string           `json:"tags,omitempty"`
}

// Team returns the team being considered
func (g *Game) Team() string {
	if g.Side == SideAway {
		return g.AwayTeam
	}
	return g.HomeTeam
}

// Opponent returns the other team
func (g *Game) Opponent() string {
	if g.Side == SideAway {
		return g.HomeTeam
	}
	return g.AwayTeam
}

// IsHome reports whether the considered side is the home team
func (g *Game) IsHome() bool {
	return g.Side != SideAway
}

// SideWon reports whether the considered side won the game
func (g *Game) SideWon() bool {
	if g.Side == SideAway {
		return !g.HomeWin
	}
	return g.HomeWin
}

// HasTag reports whether the game carries the given situational tag
func (g *Game) HasTag(tag string) bool {
	for _, t := range g.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MarketDecimalOdds resolves the market price in decimal form.
// Decimal odds take precedence over American odds when both are present.
func (g *Game) MarketDecimalOdds() (float64, error) {
	if g.DecimalOdds != 0 {
		if err := odds.ValidateDecimal(g.DecimalOdds); err != nil {
			return 0, err
		}
		return g.DecimalOdds, nil
	}
	if g.AmericanOdds != 0 {
		return odds.AmericanToDecimal(g.AmericanOdds)
	}
	return 0, fmt.Errorf("game %s has no market odds", g.ID)
}

// Validate checks the fields a game needs before it can be replayed
func (g *Game) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("game id is required")
	}
	if g.ScheduledAt.IsZero() {
		return fmt.Errorf("game %s has no scheduled time", g.ID)
	}
	if g.Side != SideHome && g.Side != SideAway {
		return fmt.Errorf("game %s has invalid side %q", g.ID, g.Side)
	}
	return nil
}
