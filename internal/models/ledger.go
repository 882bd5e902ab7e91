package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SimulationState is the bankroll simulator's lifecycle state
type SimulationState string

const (
	StateReady       SimulationState = "READY"
	StateRunning     SimulationState = "RUNNING"
	StateHaltedFloor SimulationState = "HALTED_FLOOR"
	StateComplete    SimulationState = "COMPLETE"
)

// EntryStatus describes what happened to a game during a run
type EntryStatus string

const (
	EntryBet            EntryStatus = "bet"
	EntryNoBet          EntryStatus = "no_bet"
	EntrySkippedHalted  EntryStatus = "skipped_halted"
	EntrySkippedInvalid EntryStatus = "skipped_invalid"
)

// LedgerEntry records one processed game, in replay order
type LedgerEntry struct {
	Sequence    int             `json:"sequence"`
	GameID      string          `json:"game_id"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	Status      EntryStatus     `json:"status"`
	Reason      string          `json:"reason,omitempty"`
	Candidate   *BetCandidate   `json:"candidate,omitempty"`
	Bet         *Bet            `json:"bet,omitempty"`
	Bankroll    decimal.Decimal `json:"bankroll"` // after this entry
}

// Ledger is the complete output of one simulation run
type Ledger struct {
	State           SimulationState `json:"state"`
	InitialBankroll decimal.Decimal `json:"initial_bankroll"`
	FinalBankroll   decimal.Decimal `json:"final_bankroll"`
	PeakBankroll    decimal.Decimal `json:"peak_bankroll"`
	Floor           decimal.Decimal `json:"floor"`
	HaltedAfter     string          `json:"halted_after,omitempty"` // game id that breached the floor

	Entries []LedgerEntry `json:"entries"`

	Wins              int      `json:"wins"`
	Losses            int      `json:"losses"`
	LongestWinStreak  int      `json:"longest_win_streak"`
	LongestLossStreak int      `json:"longest_loss_streak"`
	Warnings          []string `json:"warnings,omitempty"`
}

// Bets returns the placed bets in chronological order
func (l *Ledger) Bets() []Bet {
	bets := make([]Bet, 0, l.Wins+l.Losses)
	for _, e := range l.Entries {
		if e.Status == EntryBet && e.Bet != nil {
			bets = append(bets, *e.Bet)
		}
	}
	return bets
}

// CountStatus counts entries with the given status
func (l *Ledger) CountStatus(status EntryStatus) int {
	n := 0
	for _, e := range l.Entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

// BacktestResult bundles a run's ledger and report
type BacktestResult struct {
	RunID       uuid.UUID          `json:"run_id"`
	Strategy    string             `json:"strategy"`
	GameCount   int                `json:"game_count"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at"`
	Ledger      *Ledger            `json:"ledger,omitempty"`
	Report      *PerformanceReport `json:"report"`
}
