package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/loader"
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

// printRanking prints sweep results, best first
func printRanking(w io.Writer, results []*models.BacktestResult) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Strategy", "Bets", "Win%", "ROI", "MaxDD", "Sharpe", "Final", "Verdict")

	for i, r := range results {
		rep := r.Report
		if err := table.Append(
			strconv.Itoa(i+1),
			r.Strategy,
			strconv.Itoa(rep.TotalBets),
			pct(rep.WinRate),
			pct(rep.ROIOnWagered),
			pct(rep.MaxDrawdown),
			ratio(rep.SharpeRatio),
			"$"+rep.FinalBankroll.StringFixed(2),
			rep.Verdict,
		); err != nil {
			return err
		}
	}

	return table.Render()
}

// printSummary prints the bankroll path and record of one run
func printSummary(w io.Writer, result *models.BacktestResult) error {
	rep := result.Report
	fmt.Fprintf(w, "\nStrategy %s: %d games, %d bets (%d no bet, %d halted, %d invalid)\n",
		result.Strategy, result.GameCount, rep.TotalBets,
		rep.NoBetCount, rep.SkippedHaltedCount, rep.SkippedInvalidCount)

	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")

	rows := [][]string{
		{"Record", fmt.Sprintf("%d-%d", rep.Wins, rep.Losses)},
		{"Win rate", pct(rep.WinRate)},
		{"Initial bankroll", "$" + rep.InitialBankroll.StringFixed(2)},
		{"Final bankroll", "$" + rep.FinalBankroll.StringFixed(2)},
		{"Total wagered", "$" + rep.TotalWagered.StringFixed(2)},
		{"Total profit", "$" + rep.TotalProfit.StringFixed(2)},
		{"ROI on wagered", pct(rep.ROIOnWagered)},
		{"ROI on bankroll", pct(rep.ROIOnBankroll)},
		{"Max drawdown", pct(rep.MaxDrawdown)},
		{"Sharpe (per bet)", ratio(rep.SharpeRatio)},
		{"Sharpe (weekly)", ratio(rep.WeeklySharpeRatio)},
	}
	if rep.AverageCLV != nil {
		rows = append(rows, []string{"Average CLV", fmt.Sprintf("%.2f%% (%d bets)", *rep.AverageCLV, rep.CLVSamples)})
	}
	if sig := rep.Significance; sig != nil {
		rows = append(rows, []string{"p-value", fmt.Sprintf("%.4f vs %.4f break-even (%s)", sig.PValue, sig.BreakEvenProbability, sig.Tier)})
	}
	if rep.Halted {
		rows = append(rows, []string{"Halted", "bankroll floor reached after " + result.Ledger.HaltedAfter})
	}

	for _, row := range rows {
		if err := table.Append(row[0], row[1]); err != nil {
			return err
		}
	}

	return table.Render()
}

// printCriteria prints each GO/NO-GO check and the verdict
func printCriteria(w io.Writer, rep *models.PerformanceReport) error {
	table := tablewriter.NewWriter(w)
	table.Header("Criterion", "Actual", "Threshold", "Result")

	for _, c := range rep.Criteria {
		result := "FAIL"
		if c.Passed {
			result = "PASS"
		}
		if err := table.Append(
			c.Name,
			ratio(c.Actual),
			c.Comparison+" "+strconv.FormatFloat(c.Threshold, 'f', -1, 64),
			result,
		); err != nil {
			return err
		}
	}

	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Verdict: %s\n", rep.Verdict)
	return nil
}

func writeLedger(path string, ledger *models.Ledger) error {
	if ledger == nil {
		return fmt.Errorf("run has no ledger")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create ledger file: %w", err)
	}
	defer f.Close()

	if err := loader.WriteLedgerCSV(f, ledger); err != nil {
		return err
	}
	return f.Close()
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func ratio(r models.Ratio) string {
	if !r.IsDefined() {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", float64(r))
}
