package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/odds"
)

// Tier is a discrete confidence grade
type Tier string

const (
	TierS            Tier = "S"
	TierA            Tier = "A"
	TierB            Tier = "B"
	TierC            Tier = "C"
	TierInsufficient Tier = "insufficient_evidence"
	TierNoBet        Tier = "no_bet"
)

// Rank orders tiers from strongest (4) to no bet (0)
func (t Tier) Rank() int {
	switch t {
	case TierS:
		return 4
	case TierA:
		return 3
	case TierB:
		return 2
	case TierC, TierInsufficient:
		return 1
	default:
		return 0
	}
}

// BetCandidate is the filter's verdict on one game. A candidate with
// TierNoBet is an ordinary value meaning "do not bet this game".
type BetCandidate struct {
	GameID      string    `json:"game_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Side        Side      `json:"side"`
	Team        string    `json:"team"`
	Opponent    string    `json:"opponent"`

	PredictedProbability float64 `json:"predicted_probability"`
	ImpliedProbability   float64 `json:"implied_probability"`
	Edge                 float64 `json:"edge"`
	DecimalOdds          float64 `json:"decimal_odds"`

	Tier         Tier     `json:"tier"`
	PrimaryRule  string   `json:"primary_rule,omitempty"`
	MatchedRules []string `json:"matched_rules,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// Qualifies reports whether the candidate should be sized
func (c *BetCandidate) Qualifies() bool {
	return c.Tier != TierNoBet && c.Tier != ""
}

// Bet is a placed and resolved wager
type Bet struct {
	ID     uuid.UUID `json:"id"`
	GameID string    `json:"game_id"`
	Side   Side      `json:"side"`
	Team   string    `json:"team"`
	Tier   Tier      `json:"tier"`
	Rules  []string  `json:"rules,omitempty"`

	WinProbability float64  `json:"win_probability"`
	Edge           float64  `json:"edge"`
	DecimalOdds    float64  `json:"decimal_odds"`
	ClosingOdds    *float64 `json:"closing_odds,omitempty"`

	Stake           decimal.Decimal `json:"stake"`
	FullKelly       float64         `json:"full_kelly"`
	AppliedFraction float64         `json:"applied_fraction"`
	Multiplier      float64         `json:"multiplier"`

	Won            bool            `json:"won"`
	Profit         decimal.Decimal `json:"profit"`
	BankrollBefore decimal.Decimal `json:"bankroll_before"`
	BankrollAfter  decimal.Decimal `json:"bankroll_after"`

	PlacedAt   time.Time `json:"placed_at"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Return is the bet's profit relative to the bankroll it was sized from
func (b *Bet) Return() float64 {
	if b.BankrollBefore.IsZero() {
		return 0
	}
	return b.Profit.Div(b.BankrollBefore).InexactFloat64()
}

// CLV returns closing-line value in percent, false when no closing odds were supplied
func (b *Bet) CLV() (float64, bool) {
	if b.ClosingOdds == nil || odds.ValidateDecimal(*b.ClosingOdds) != nil {
		return 0, false
	}
	return (b.DecimalOdds / *b.ClosingOdds - 1) * 100, true
}
