package models

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
)

// Ratio is a float metric that may be undefined. NaN encodes as JSON null.
type Ratio float64

// Undefined is the NaN ratio
func Undefined() Ratio {
	return Ratio(math.NaN())
}

// IsDefined reports whether the ratio holds a number
func (r Ratio) IsDefined() bool {
	return !math.IsNaN(float64(r)) && !math.IsInf(float64(r), 0)
}

// MarshalJSON implements json.Marshaler
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.IsDefined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Undefined()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

// Criterion is one GO/NO-GO check
type Criterion struct {
	Name       string  `json:"name"`
	Comparison string  `json:"comparison"`
	Threshold  float64 `json:"threshold"`
	Actual     Ratio   `json:"actual"`
	Passed     bool    `json:"passed"`
}

// SignificanceResult is the outcome of a binomial test on a win/loss record
type SignificanceResult struct {
	Wins                 int     `json:"wins"`
	Total                int     `json:"total"`
	WinRate              float64 `json:"win_rate"`
	BreakEvenProbability float64 `json:"break_even_probability"`
	Alternative          string  `json:"alternative"`
	PValue               float64 `json:"p_value"`
	IsSignificant        bool    `json:"is_significant"`
	Tier                 Tier    `json:"tier"`
}

const (
	VerdictGo   = "GO"
	VerdictNoGo = "NO-GO"
)

// PerformanceReport summarizes a completed ledger.
// Rates and ROI are fractions (0.03 = 3%); AverageCLV is in percent.
type PerformanceReport struct {
	TotalBets int     `json:"total_bets"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	WinRate   float64 `json:"win_rate"`

	InitialBankroll decimal.Decimal `json:"initial_bankroll"`
	FinalBankroll   decimal.Decimal `json:"final_bankroll"`
	TotalWagered    decimal.Decimal `json:"total_wagered"`
	TotalProfit     decimal.Decimal `json:"total_profit"`
	ROIOnWagered    float64         `json:"roi_on_wagered"`
	ROIOnBankroll   float64         `json:"roi_on_bankroll"`

	MaxDrawdown       float64 `json:"max_drawdown"` // peak-to-trough, <= 0
	SharpeRatio       Ratio   `json:"sharpe_ratio"`
	WeeklySharpeRatio Ratio   `json:"weekly_sharpe_ratio"`

	AverageCLV *float64 `json:"average_clv,omitempty"`
	CLVSamples int      `json:"clv_samples"`

	Significance *SignificanceResult `json:"significance,omitempty"`

	NoBetCount          int  `json:"no_bet_count"`
	SkippedHaltedCount  int  `json:"skipped_halted_count"`
	SkippedInvalidCount int  `json:"skipped_invalid_count"`
	Halted              bool `json:"halted"`

	Criteria []Criterion `json:"criteria"`
	Go       bool        `json:"go"`
	Verdict  string      `json:"verdict"`
}

// FailedCriteria returns the names of criteria that did not pass
func (r *PerformanceReport) FailedCriteria() []string {
	var failed []string
	for _, c := range r.Criteria {
		if !c.Passed {
			failed = append(failed, c.Name)
		}
	}
	return failed
}
