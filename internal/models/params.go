package models

import (
	"github.com/shopspring/decimal"
)

// SimulationParams holds bankroll simulation parameters
type SimulationParams struct {
	InitialBankroll  decimal.Decimal // Starting bankroll (e.g., 10000)
	MinBankrollFloor decimal.Decimal // Betting halts once bankroll <= floor
	RecentWindow     int             // Bets used for the rolling win rate (e.g., 10)
}

// StakingPolicy holds Kelly sizing parameters and the bounded multiplier policy
type StakingPolicy struct {
	KellyFraction  float64 // Fractional Kelly multiplier (0.25 = quarter Kelly)
	MaxBetFraction float64 // Hard cap as a fraction of current bankroll

	// Decimal odds at or below this value count as a heavy favorite (0 disables)
	HeavyFavoriteMaxOdds    float64
	HeavyFavoriteMultiplier float64

	// Recent win rate at or above this value counts as a hot streak (0 disables)
	HotStreakWinRate    float64
	HotStreakMultiplier float64

	TierMultipliers map[Tier]float64
	MaxMultiplier   float64 // Upper bound on the combined multiplier (e.g., 2.5)
}

// FilterParams holds edge filter thresholds
type FilterParams struct {
	MinEdge        float64 // predicted - implied probability (0.02 = 2 points)
	MinProbability float64 // Minimum predicted win probability
	RequireRule    bool    // Only bet games matched by a registered rule
}

// Sharpe periods
const (
	SharpePerBet = "bet"
	SharpeWeekly = "week"
)

// GoNoGoThresholds holds the deployment criteria; each is evaluated independently
type GoNoGoThresholds struct {
	MinWinRate          float64 // e.g., 0.55
	MinROI              float64 // profit / wagered, e.g., 0.03
	MaxDrawdown         float64 // worst acceptable drawdown, e.g., -0.20
	MinSharpe           float64 // e.g., 0.5
	MinBets             int     // bet count must exceed this, e.g. 50
	RequireSignificance bool
	SharpePeriod        string // "bet" or "week"
}

// Significance test alternatives
const (
	AlternativeTwoSided = "two_sided"
	AlternativeGreater  = "greater"
)

// SignificanceParams holds binomial test parameters
type SignificanceParams struct {
	Alpha                float64 // e.g., 0.05
	MinSampleSize        int     // e.g., 50
	BreakEvenProbability float64 // 0 derives it from the placed bets' odds
	Alternative          string
}

// StrategyParams is a complete, named backtest configuration
type StrategyParams struct {
	Name         string
	Simulation   SimulationParams
	Staking      StakingPolicy
	Filter       FilterParams
	GoNoGo       GoNoGoThresholds
	Significance SignificanceParams
}
