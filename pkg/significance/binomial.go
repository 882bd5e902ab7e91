// Package significance validates win/loss records against a break-even win rate with an exact binomial test.
package significance

import (
	"errors"
	"fmt"
	"math"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

// relativeTolerance matches outcomes whose probability ties the observed one
const relativeTolerance = 1 + 1e-7

var ErrInvalidSample = errors.New("invalid sample")

// Tier cutoffs
const (
	TierSMaxPValue = 0.001
	TierSMinTotal  = 100
	TierAMaxPValue = 0.01
	TierAMinTotal  = 50
	TierBMaxPValue = 0.05
	TierBMinTotal  = 30
)

// Tester runs binomial tests. It is safe for concurrent use.
type Tester struct {
	params models.SignificanceParams
}

// DefaultParams returns alpha 0.05, 50 sample minimum, -110 break-even and a two-sided test
func DefaultParams() models.SignificanceParams {
	return models.SignificanceParams{
		Alpha:                0.05,
		MinSampleSize:        50,
		BreakEvenProbability: 110.0 / 210.0,
		Alternative:          models.AlternativeTwoSided,
	}
}

// NewTester creates a new tester, filling unset parameters from DefaultParams
func NewTester(params models.SignificanceParams) *Tester {
	defaults := DefaultParams()
	if params.Alpha <= 0 {
		params.Alpha = defaults.Alpha
	}
	if params.MinSampleSize <= 0 {
		params.MinSampleSize = defaults.MinSampleSize
	}
	if params.Alternative == "" {
		params.Alternative = defaults.Alternative
	}
	// BreakEvenProbability may stay 0: callers then pass it per test

	return &Tester{params: params}
}

// Params returns the tester's parameters
func (t *Tester) Params() models.SignificanceParams {
	return t.params
}

// Test compares wins out of total against breakEven. A breakEven of 0 uses the configured value.
//
// is_significant requires a win rate above break-even, p < alpha and total >= the minimum sample size.
func (t *Tester) Test(wins, total int, breakEven float64) (models.SignificanceResult, error) {
	if breakEven == 0 {
		breakEven = t.params.BreakEvenProbability
	}
	if total < 0 || wins < 0 || wins > total {
		return models.SignificanceResult{}, fmt.Errorf("%w: wins=%d total=%d", ErrInvalidSample, wins, total)
	}
	if breakEven <= 0 || breakEven >= 1 || math.IsNaN(breakEven) {
		return models.SignificanceResult{}, fmt.Errorf("%w: break-even probability %v must be in (0,1)", ErrInvalidSample, breakEven)
	}

	result := models.SignificanceResult{
		Wins:                 wins,
		Total:                total,
		BreakEvenProbability: breakEven,
		Alternative:          t.params.Alternative,
		PValue:               1.0,
		Tier:                 models.TierInsufficient,
	}
	if total == 0 {
		return result, nil
	}
	result.WinRate = float64(wins) / float64(total)

	switch t.params.Alternative {
	case models.AlternativeGreater:
		result.PValue = UpperTail(wins, total, breakEven)
	case models.AlternativeTwoSided:
		result.PValue = TwoSidedPValue(wins, total, breakEven)
	default:
		return models.SignificanceResult{}, fmt.Errorf("unknown alternative %q", t.params.Alternative)
	}

	// Only a record above break-even can earn a grade; a significant loser is still a loser
	if result.WinRate <= breakEven {
		return result, nil
	}
	result.IsSignificant = result.PValue < t.params.Alpha && total >= t.params.MinSampleSize
	result.Tier = TierFor(result.PValue, total)

	return result, nil
}

// TierFor maps a p-value and sample size to a confidence tier:
// S needs p < 0.001 and n >= 100, A needs p < 0.01 and n >= 50,
// B needs p < 0.05 and n >= 30, anything else is insufficient evidence.
func TierFor(pValue float64, total int) models.Tier {
	switch {
	case pValue < TierSMaxPValue && total >= TierSMinTotal:
		return models.TierS
	case pValue < TierAMaxPValue && total >= TierAMinTotal:
		return models.TierA
	case pValue < TierBMaxPValue && total >= TierBMinTotal:
		return models.TierB
	default:
		return models.TierInsufficient
	}
}

// LogPMF returns log P(X = k) for X ~ Binomial(n, p)
func LogPMF(k, n int, p float64) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	switch p {
	case 0:
		if k == 0 {
			return 0
		}
		return math.Inf(-1)
	case 1:
		if k == n {
			return 0
		}
		return math.Inf(-1)
	}

	lnN, _ := math.Lgamma(float64(n + 1))
	lnK, _ := math.Lgamma(float64(k + 1))
	lnNK, _ := math.Lgamma(float64(n - k + 1))
	return lnN - lnK - lnNK + float64(k)*math.Log(p) + float64(n-k)*math.Log1p(-p)
}

// PMF returns P(X = k) for X ~ Binomial(n, p)
func PMF(k, n int, p float64) float64 {
	return math.Exp(LogPMF(k, n, p))
}

// UpperTail returns P(X >= k)
func UpperTail(k, n int, p float64) float64 {
	sum := 0.0
	for i := k; i <= n; i++ {
		sum += PMF(i, n, p)
	}
	return clampProbability(sum)
}

// TwoSidedPValue sums the probability of every outcome no more likely than the observed one
func TwoSidedPValue(k, n int, p float64) float64 {
	observed := PMF(k, n, p)
	sum := 0.0
	for i := 0; i <= n; i++ {
		if d := PMF(i, n, p); d <= observed*relativeTolerance {
			sum += d
		}
	}
	return clampProbability(sum)
}

func clampProbability(p float64) float64 {
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}
