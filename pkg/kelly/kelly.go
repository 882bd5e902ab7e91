// Package kelly sizes bets with a fractional Kelly criterion and hard bankroll caps.
package kelly

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

// edgeEpsilon absorbs float noise when the model probability equals the implied probability
const edgeEpsilon = 1e-12

// StakeRequest holds the inputs of one sizing decision
type StakeRequest struct {
	WinProbability float64
	DecimalOdds    float64
	Bankroll       decimal.Decimal
	KellyFraction  float64 // 0 uses the policy's fraction
	Tier           models.Tier
	RecentWinRate  float64 // NaN when not enough history
}

// Stake is the sizing decision and how it was reached
type Stake struct {
	Amount          decimal.Decimal
	FullKelly       float64 // f* before any scaling
	AppliedFraction float64 // f* * kelly fraction * multiplier, before caps
	Multiplier      float64
	Capped          bool
}

// Staker computes stakes. It holds no mutable state.
type Staker struct {
	policy models.StakingPolicy
}

// NewStaker creates a new staker for the given policy
func NewStaker(policy models.StakingPolicy) *Staker {
	return &Staker{policy: policy}
}

// Policy returns the staking policy
func (s *Staker) Policy() models.StakingPolicy {
	return s.policy
}

// FullKelly returns f* = (p*d - 1) / (d - 1), or 0 for invalid inputs
func FullKelly(winProbability, decimalOdds float64) float64 {
	if !(decimalOdds > 1) || math.IsInf(decimalOdds, 0) || !(winProbability > 0) || winProbability > 1 {
		return 0
	}
	return (winProbability*decimalOdds - 1) / (decimalOdds - 1)
}

// ComputeStake returns the amount to wager, always within [0, min(max_bet_fraction*bankroll, bankroll)]
func (s *Staker) ComputeStake(req StakeRequest) Stake {
	fullKelly := FullKelly(req.WinProbability, req.DecimalOdds)
	result := Stake{Amount: decimal.Zero, FullKelly: fullKelly}

	// Non-positive edge under the model's own estimate
	if !(fullKelly > edgeEpsilon) || !req.Bankroll.IsPositive() {
		return result
	}

	fraction := req.KellyFraction
	if fraction <= 0 {
		fraction = s.policy.KellyFraction
	}

	multiplier := s.Multiplier(req.DecimalOdds, req.Tier, req.RecentWinRate)
	applied := fullKelly * fraction * multiplier
	result.Multiplier = multiplier
	result.AppliedFraction = applied
	if !(applied > 0) || math.IsInf(applied, 0) {
		return result
	}

	amount := req.Bankroll.Mul(decimal.NewFromFloat(applied))

	maxBet := req.Bankroll.Mul(decimal.NewFromFloat(s.policy.MaxBetFraction))
	if maxBet.GreaterThan(req.Bankroll) {
		maxBet = req.Bankroll
	}
	if amount.GreaterThan(maxBet) {
		amount = maxBet
		result.Capped = true
	}

	// Whole cents, rounded toward zero so the cap still holds
	amount = amount.Truncate(2)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	result.Amount = amount

	return result
}

// Multiplier combines tier, heavy favorite and hot streak adjustments, bounded by MaxMultiplier
func (s *Staker) Multiplier(decimalOdds float64, tier models.Tier, recentWinRate float64) float64 {
	multiplier := 1.0

	if m, ok := s.policy.TierMultipliers[tier]; ok && m > 0 {
		multiplier *= m
	}

	if s.policy.HeavyFavoriteMaxOdds > 1 && s.policy.HeavyFavoriteMultiplier > 0 &&
		decimalOdds <= s.policy.HeavyFavoriteMaxOdds {
		multiplier *= s.policy.HeavyFavoriteMultiplier
	}

	if s.policy.HotStreakWinRate > 0 && s.policy.HotStreakMultiplier > 0 &&
		!math.IsNaN(recentWinRate) && recentWinRate >= s.policy.HotStreakWinRate {
		multiplier *= s.policy.HotStreakMultiplier
	}

	if s.policy.MaxMultiplier > 0 && multiplier > s.policy.MaxMultiplier {
		multiplier = s.policy.MaxMultiplier
	}
	return multiplier
}
