// Package odds converts between American odds, decimal odds and implied probability.
package odds

import (
	"fmt"
	"math"
)

// Odds formats
const (
	FormatAmerican = "american"
	FormatDecimal  = "decimal"
)

// StandardVigBreakEven is the win rate needed to break even at -110
const StandardVigBreakEven = 110.0 / 210.0

// InvalidOddsError reports an odds value that cannot be quoted by a sportsbook
type InvalidOddsError struct {
	Value  float64
	Format string
	Reason string
}

func (e *InvalidOddsError) Error() string {
	return fmt.Sprintf("invalid %s odds %v: %s", e.Format, e.Value, e.Reason)
}

// ValidateAmerican rejects 0 and the undefined band between -100 and +100
func ValidateAmerican(american float64) error {
	if math.IsNaN(american) || math.IsInf(american, 0) {
		return &InvalidOddsError{Value: american, Format: FormatAmerican, Reason: "not a number"}
	}
	if american == 0 {
		return &InvalidOddsError{Value: american, Format: FormatAmerican, Reason: "cannot be 0"}
	}
	if math.Abs(american) < 100 {
		return &InvalidOddsError{Value: american, Format: FormatAmerican, Reason: "absolute value must be at least 100"}
	}
	return nil
}

// ValidateDecimal rejects decimal odds that cannot lose (<= 1.0)
func ValidateDecimal(decimal float64) error {
	if math.IsNaN(decimal) || math.IsInf(decimal, 0) {
		return &InvalidOddsError{Value: decimal, Format: FormatDecimal, Reason: "not a number"}
	}
	if decimal <= 1.0 {
		return &InvalidOddsError{Value: decimal, Format: FormatDecimal, Reason: "must be greater than 1.0"}
	}
	return nil
}

// AmericanToDecimal converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -110 → Decimal 1.909
func AmericanToDecimal(american float64) (float64, error) {
	if err := ValidateAmerican(american); err != nil {
		return 0, err
	}

	if american > 0 {
		return american/100.0 + 1.0, nil
	}
	return 100.0/math.Abs(american) + 1.0, nil
}

// DecimalToAmerican converts decimal odds to American odds.
// Even money (2.0) maps to +100, so -100 round-trips to +100.
func DecimalToAmerican(decimal float64) (float64, error) {
	if err := ValidateDecimal(decimal); err != nil {
		return 0, err
	}

	if decimal >= 2.0 {
		return (decimal - 1.0) * 100.0, nil
	}
	return -100.0 / (decimal - 1.0), nil
}

// ImpliedProbability converts decimal odds to the market-implied win probability
func ImpliedProbability(decimal float64) (float64, error) {
	if err := ValidateDecimal(decimal); err != nil {
		return 0, err
	}
	return 1.0 / decimal, nil
}

// AmericanImpliedProbability converts American odds directly to implied probability
// -150 → 0.60, +150 → 0.40
func AmericanImpliedProbability(american float64) (float64, error) {
	if err := ValidateAmerican(american); err != nil {
		return 0, err
	}

	if american > 0 {
		return 100.0 / (american + 100.0), nil
	}
	abs := math.Abs(american)
	return abs / (abs + 100.0), nil
}

// ProbabilityToDecimal returns the fair decimal odds for a probability
func ProbabilityToDecimal(probability float64) (float64, error) {
	if probability <= 0 || probability >= 1 || math.IsNaN(probability) {
		return 0, fmt.Errorf("invalid probability %v: must be between 0 and 1", probability)
	}
	return 1.0 / probability, nil
}
