// Package performance turns a completed ledger into risk-adjusted metrics and a GO/NO-GO verdict.
package performance

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/odds"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/significance"
)

// Criterion names
const (
	CriterionWinRate      = "win_rate"
	CriterionROI          = "roi"
	CriterionMaxDrawdown  = "max_drawdown"
	CriterionSharpe       = "sharpe"
	CriterionBetCount     = "bet_count"
	CriterionSignificance = "significance"
)

// DefaultThresholds returns the deployment gate used when none is configured
func DefaultThresholds() models.GoNoGoThresholds {
	return models.GoNoGoThresholds{
		MinWinRate:   0.55,
		MinROI:       0.03,
		MaxDrawdown:  -0.20,
		MinSharpe:    0.5,
		MinBets:      50,
		SharpePeriod: models.SharpePerBet,

		RequireSignificance: true,
	}
}

// Analyzer computes performance reports. It holds no mutable state.
type Analyzer struct {
	thresholds models.GoNoGoThresholds
	tester     *significance.Tester
	logger     zerolog.Logger
}

// NewAnalyzer creates a new analyzer
func NewAnalyzer(thresholds models.GoNoGoThresholds, tester *significance.Tester, logger zerolog.Logger) *Analyzer {
	if thresholds.SharpePeriod == "" {
		thresholds.SharpePeriod = models.SharpePerBet
	}
	if tester == nil {
		tester = significance.NewTester(significance.DefaultParams())
	}
	return &Analyzer{
		thresholds: thresholds,
		tester:     tester,
		logger:     logger.With().Str("component", "performance_analyzer").Logger(),
	}
}

// Thresholds returns the configured GO/NO-GO thresholds
func (a *Analyzer) Thresholds() models.GoNoGoThresholds {
	return a.thresholds
}

// Analyze summarizes the ledger. It is a pure function of the ledger and the thresholds.
func (a *Analyzer) Analyze(ledger *models.Ledger) (*models.PerformanceReport, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}

	bets := ledger.Bets()
	report := &models.PerformanceReport{
		TotalBets:           len(bets),
		InitialBankroll:     ledger.InitialBankroll,
		FinalBankroll:       ledger.FinalBankroll,
		TotalWagered:        decimal.Zero,
		TotalProfit:         decimal.Zero,
		NoBetCount:          ledger.CountStatus(models.EntryNoBet),
		SkippedHaltedCount:  ledger.CountStatus(models.EntrySkippedHalted),
		SkippedInvalidCount: ledger.CountStatus(models.EntrySkippedInvalid),
		Halted:              ledger.State == models.StateHaltedFloor,
	}

	var clvSum float64
	for i := range bets {
		bet := &bets[i]
		if bet.Won {
			report.Wins++
		} else {
			report.Losses++
		}
		report.TotalWagered = report.TotalWagered.Add(bet.Stake)
		report.TotalProfit = report.TotalProfit.Add(bet.Profit)

		if clv, ok := bet.CLV(); ok {
			clvSum += clv
			report.CLVSamples++
		}
	}

	if report.TotalBets > 0 {
		report.WinRate = float64(report.Wins) / float64(report.TotalBets)
	}
	if report.TotalWagered.IsPositive() {
		report.ROIOnWagered = report.TotalProfit.Div(report.TotalWagered).InexactFloat64()
	}
	if ledger.InitialBankroll.IsPositive() {
		report.ROIOnBankroll = report.TotalProfit.Div(ledger.InitialBankroll).InexactFloat64()
	}
	if report.CLVSamples > 0 {
		avg := clvSum / float64(report.CLVSamples)
		report.AverageCLV = &avg
	}

	report.MaxDrawdown = MaxDrawdown(ledger.InitialBankroll, bets)
	report.SharpeRatio = SharpeRatio(BetReturns(bets))
	report.WeeklySharpeRatio = SharpeRatio(WeeklyReturns(bets))

	sig, err := a.tester.Test(report.Wins, report.TotalBets, a.breakEven(bets))
	if err != nil {
		return nil, fmt.Errorf("failed to test significance: %w", err)
	}
	report.Significance = &sig

	report.Criteria = a.criteria(report)
	report.Go = true
	for _, c := range report.Criteria {
		if !c.Passed {
			report.Go = false
			break
		}
	}
	report.Verdict = models.VerdictNoGo
	if report.Go {
		report.Verdict = models.VerdictGo
	}

	a.logger.Info().
		Int("bets", report.TotalBets).
		Float64("win_rate", report.WinRate).
		Float64("roi", report.ROIOnWagered).
		Float64("max_drawdown", report.MaxDrawdown).
		Str("verdict", report.Verdict).
		Strs("failed", report.FailedCriteria()).
		Msg("performance analyzed")

	return report, nil
}

// breakEven uses the configured probability, or the mean implied probability of the placed bets
func (a *Analyzer) breakEven(bets []models.Bet) float64 {
	if p := a.tester.Params().BreakEvenProbability; p > 0 {
		return p
	}

	var sum float64
	n := 0
	for i := range bets {
		if implied, err := odds.ImpliedProbability(bets[i].DecimalOdds); err == nil {
			sum += implied
			n++
		}
	}
	if n == 0 {
		return odds.StandardVigBreakEven
	}
	return sum / float64(n)
}

func (a *Analyzer) criteria(report *models.PerformanceReport) []models.Criterion {
	t := a.thresholds

	sharpe := report.SharpeRatio
	if t.SharpePeriod == models.SharpeWeekly {
		sharpe = report.WeeklySharpeRatio
	}

	criteria := []models.Criterion{
		{
			Name:       CriterionWinRate,
			Comparison: ">",
			Threshold:  t.MinWinRate,
			Actual:     models.Ratio(report.WinRate),
			Passed:     report.WinRate > t.MinWinRate,
		},
		{
			Name:       CriterionROI,
			Comparison: ">",
			Threshold:  t.MinROI,
			Actual:     models.Ratio(report.ROIOnWagered),
			Passed:     report.ROIOnWagered > t.MinROI,
		},
		{
			Name:       CriterionMaxDrawdown,
			Comparison: ">",
			Threshold:  t.MaxDrawdown,
			Actual:     models.Ratio(report.MaxDrawdown),
			Passed:     report.MaxDrawdown > t.MaxDrawdown,
		},
		{
			Name:       CriterionSharpe,
			Comparison: ">",
			Threshold:  t.MinSharpe,
			Actual:     sharpe,
			// undefined Sharpe never passes
			Passed: sharpe.IsDefined() && float64(sharpe) > t.MinSharpe,
		},
		{
			Name:       CriterionBetCount,
			Comparison: ">",
			Threshold:  float64(t.MinBets),
			Actual:     models.Ratio(report.TotalBets),
			Passed:     report.TotalBets > t.MinBets,
		},
	}

	if t.RequireSignificance && report.Significance != nil {
		criteria = append(criteria, models.Criterion{
			Name:       CriterionSignificance,
			Comparison: "<",
			Threshold:  a.tester.Params().Alpha,
			Actual:     models.Ratio(report.Significance.PValue),
			Passed:     report.Significance.IsSignificant,
		})
	}

	return criteria
}

// MaxDrawdown returns the largest peak-to-trough decline of the bankroll series as a negative fraction
func MaxDrawdown(initial decimal.Decimal, bets []models.Bet) float64 {
	peak := initial
	worst := 0.0
	for i := range bets {
		balance := bets[i].BankrollAfter
		if balance.GreaterThan(peak) {
			peak = balance
			continue
		}
		if !peak.IsPositive() {
			continue
		}
		dd := balance.Sub(peak).Div(peak).InexactFloat64()
		if dd < worst {
			worst = dd
		}
	}
	return worst
}

// BetReturns returns each bet's profit relative to the bankroll it was sized from
func BetReturns(bets []models.Bet) []float64 {
	returns := make([]float64, len(bets))
	for i := range bets {
		returns[i] = bets[i].Return()
	}
	return returns
}

// WeeklyReturns groups bets by ISO week of resolution and returns each week's bankroll growth
func WeeklyReturns(bets []models.Bet) []float64 {
	var returns []float64
	for start := 0; start < len(bets); {
		year, week := bets[start].ResolvedAt.UTC().ISOWeek()
		opening := bets[start].BankrollBefore

		end := start + 1
		for end < len(bets) {
			y, w := bets[end].ResolvedAt.UTC().ISOWeek()
			if y != year || w != week {
				break
			}
			end++
		}

		if opening.IsPositive() {
			closing := bets[end-1].BankrollAfter
			returns = append(returns, closing.Div(opening).InexactFloat64()-1)
		}
		start = end
	}
	return returns
}

// SharpeRatio is mean / sample standard deviation. Fewer than two returns or zero variance is undefined.
func SharpeRatio(returns []float64) models.Ratio {
	n := len(returns)
	if n < 2 {
		return models.Undefined()
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(n)

	var ss float64
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	std := math.Sqrt(ss / float64(n-1))
	if std == 0 || math.IsNaN(std) {
		return models.Undefined()
	}

	return models.Ratio(mean / std)
}
