package edge

import (
	"fmt"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/odds"
)

// Condition operators
const (
	OpGT    = ">"
	OpGTE   = ">="
	OpLT    = "<"
	OpLTE   = "<="
	OpEQ    = "=="
	OpNEQ   = "!="
	OpHas   = "has"
	OpLacks = "lacks"
)

// Built-in features derived from the game's market fields
const (
	FeatureDecimalOdds          = "decimal_odds"
	FeatureAmericanOdds         = "american_odds"
	FeaturePredictedProbability = "predicted_probability"
	FeatureImpliedProbability   = "implied_probability"
	FeatureEdge                 = "edge"
	FeatureIsHome               = "is_home"
)

// Condition compares one feature of a game against a value, or tests a tag
type Condition struct {
	Feature string  `yaml:"feature"`
	Op      string  `yaml:"op"`
	Value   float64 `yaml:"value"`
	Tag     string  `yaml:"tag"`
}

// Compile returns the condition as a predicate. Missing features never match.
func (c Condition) Compile() (Predicate, error) {
	switch c.Op {
	case OpHas, OpLacks:
		tag := c.Tag
		if tag == "" {
			tag = c.Feature
		}
		if tag == "" {
			return nil, fmt.Errorf("%s needs a tag", c.Op)
		}
		want := c.Op == OpHas
		return func(g *models.Game) bool { return g.HasTag(tag) == want }, nil
	}

	if c.Feature == "" {
		return nil, fmt.Errorf("feature is required for %q", c.Op)
	}

	var cmp func(a, b float64) bool
	switch c.Op {
	case OpGT:
		cmp = func(a, b float64) bool { return a > b }
	case OpGTE:
		cmp = func(a, b float64) bool { return a >= b }
	case OpLT:
		cmp = func(a, b float64) bool { return a < b }
	case OpLTE:
		cmp = func(a, b float64) bool { return a <= b }
	case OpEQ:
		cmp = func(a, b float64) bool { return a == b }
	case OpNEQ:
		cmp = func(a, b float64) bool { return a != b }
	default:
		return nil, fmt.Errorf("unknown operator %q", c.Op)
	}

	feature, value := c.Feature, c.Value
	return func(g *models.Game) bool {
		v, ok := FeatureValue(g, feature)
		return ok && cmp(v, value)
	}, nil
}

// FeatureValue looks up a built-in market feature or a named feature from the game's feature vector
func FeatureValue(g *models.Game, name string) (float64, bool) {
	switch name {
	case FeatureDecimalOdds:
		d, err := g.MarketDecimalOdds()
		return d, err == nil
	case FeatureAmericanOdds:
		if g.AmericanOdds != 0 {
			return g.AmericanOdds, true
		}
		d, err := g.MarketDecimalOdds()
		if err != nil {
			return 0, false
		}
		american, err := odds.DecimalToAmerican(d)
		return american, err == nil
	case FeaturePredictedProbability:
		return g.PredictedProbability, true
	case FeatureImpliedProbability:
		d, err := g.MarketDecimalOdds()
		if err != nil {
			return 0, false
		}
		return 1 / d, true
	case FeatureEdge:
		d, err := g.MarketDecimalOdds()
		if err != nil {
			return 0, false
		}
		return g.PredictedProbability - 1/d, true
	case FeatureIsHome:
		if g.IsHome() {
			return 1, true
		}
		return 0, true
	}

	v, ok := g.Features[name]
	return v, ok
}
