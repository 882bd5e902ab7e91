// Package backtest replays historical games chronologically against a bankroll.
package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/kelly"
)

const (
	defaultRecentWindow = 10
	reasonZeroStake     = "zero stake"
	reasonHalted        = "bankroll at or below floor"
)

// Evaluator grades a game as a bet candidate
type Evaluator interface {
	Evaluate(g *models.Game) (models.BetCandidate, error)
}

// Sizer computes a stake for a candidate
type Sizer interface {
	ComputeStake(req kelly.StakeRequest) kelly.Stake
}

// Simulator is the bankroll state machine for a single run.
// It is not safe for concurrent use and cannot be reused after Run.
type Simulator struct {
	params models.SimulationParams
	filter Evaluator
	staker Sizer
	logger zerolog.Logger

	state        models.SimulationState
	bankroll     decimal.Decimal
	peak         decimal.Decimal
	lastResolved time.Time
	recent       []bool
	winStreak    int
	lossStreak   int
	ledger       *models.Ledger
}

// NewSimulator creates a new simulator in the READY state
func NewSimulator(params models.SimulationParams, filter Evaluator, staker Sizer, logger zerolog.Logger) (*Simulator, error) {
	if !params.InitialBankroll.IsPositive() {
		return nil, fmt.Errorf("initial bankroll must be positive, got %s", params.InitialBankroll)
	}
	if params.MinBankrollFloor.IsNegative() {
		return nil, fmt.Errorf("bankroll floor must be non-negative, got %s", params.MinBankrollFloor)
	}
	if params.MinBankrollFloor.GreaterThanOrEqual(params.InitialBankroll) {
		return nil, fmt.Errorf("bankroll floor %s must be below initial bankroll %s", params.MinBankrollFloor, params.InitialBankroll)
	}
	if params.RecentWindow <= 0 {
		params.RecentWindow = defaultRecentWindow
	}

	return &Simulator{
		params:   params,
		filter:   filter,
		staker:   staker,
		logger:   logger.With().Str("component", "bankroll_simulator").Logger(),
		state:    models.StateReady,
		bankroll: params.InitialBankroll,
		peak:     params.InitialBankroll,
		ledger: &models.Ledger{
			State:           models.StateReady,
			InitialBankroll: params.InitialBankroll,
			FinalBankroll:   params.InitialBankroll,
			PeakBankroll:    params.InitialBankroll,
			Floor:           params.MinBankrollFloor,
		},
	}, nil
}

// State returns the current lifecycle state
func (s *Simulator) State() models.SimulationState {
	return s.state
}

// Bankroll returns the current bankroll
func (s *Simulator) Bankroll() decimal.Decimal {
	return s.bankroll
}

// ValidateGames checks identity and chronological order of the input
func ValidateGames(games []models.Game) error {
	seen := make(map[string]struct{}, len(games))
	for i := range games {
		g := &games[i]
		if err := g.Validate(); err != nil {
			return &ValidationError{Index: i, GameID: g.ID, Reason: err.Error()}
		}
		if _, dup := seen[g.ID]; dup {
			return &ValidationError{Index: i, GameID: g.ID, Reason: "duplicate game id"}
		}
		seen[g.ID] = struct{}{}

		if i > 0 && g.ScheduledAt.Before(games[i-1].ScheduledAt) {
			return &ValidationError{
				Index:  i,
				GameID: g.ID,
				Reason: fmt.Sprintf("scheduled at %s, before previous game %s at %s",
					g.ScheduledAt.Format(time.RFC3339), games[i-1].ID, games[i-1].ScheduledAt.Format(time.RFC3339)),
			}
		}
	}
	return nil
}

// Run replays the games in order and returns the ledger.
//
// Games sharing a scheduled time form one slot: every stake in the slot is sized from the
// bankroll as it stood after the previous slot resolved, and slot exposure never exceeds it.
// Validation errors, invariant violations and context cancellation abort the run with no ledger.
func (s *Simulator) Run(ctx context.Context, games []models.Game) (*models.Ledger, error) {
	if s.state != models.StateReady {
		return nil, ErrSimulatorUsed
	}
	if err := ValidateGames(games); err != nil {
		return nil, err
	}

	s.state = models.StateRunning
	s.ledger.Entries = make([]models.LedgerEntry, 0, len(games))

	for start := 0; start < len(games); {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest aborted: %w", err)
		}

		end := start + 1
		for end < len(games) && games[end].ScheduledAt.Equal(games[start].ScheduledAt) {
			end++
		}

		if err := s.processSlot(games[start:end]); err != nil {
			return nil, err
		}
		start = end
	}

	if s.state == models.StateRunning {
		s.state = models.StateComplete
	}
	s.ledger.State = s.state
	s.ledger.FinalBankroll = s.bankroll
	s.ledger.PeakBankroll = s.peak

	s.logger.Info().
		Int("games", len(games)).
		Int("bets", s.ledger.Wins+s.ledger.Losses).
		Str("final_bankroll", s.bankroll.StringFixed(2)).
		Str("state", string(s.state)).
		Msg("simulation finished")

	return s.ledger, nil
}

// processSlot places every bet of a slot from the slot-opening bankroll, then resolves them in order
func (s *Simulator) processSlot(slot []models.Game) error {
	slotBankroll := s.bankroll
	committed := decimal.Zero
	first := len(s.ledger.Entries)

	for i := range slot {
		g := &slot[i]
		entry := models.LedgerEntry{
			Sequence:    len(s.ledger.Entries) + 1,
			GameID:      g.ID,
			ScheduledAt: g.ScheduledAt,
		}

		if s.state == models.StateHaltedFloor {
			entry.Status = models.EntrySkippedHalted
			entry.Reason = reasonHalted
			s.ledger.Entries = append(s.ledger.Entries, entry)
			continue
		}

		candidate, err := s.filter.Evaluate(g)
		if err != nil {
			entry.Status = models.EntrySkippedInvalid
			entry.Reason = err.Error()
			s.ledger.Warnings = append(s.ledger.Warnings, err.Error())
			s.ledger.Entries = append(s.ledger.Entries, entry)
			s.logger.Warn().Err(err).Str("game_id", g.ID).Msg("skipping malformed game")
			continue
		}
		entry.Candidate = &candidate

		if !candidate.Qualifies() {
			entry.Status = models.EntryNoBet
			entry.Reason = candidate.Reason
			s.ledger.Entries = append(s.ledger.Entries, entry)
			continue
		}

		stake := s.staker.ComputeStake(kelly.StakeRequest{
			WinProbability: candidate.PredictedProbability,
			DecimalOdds:    candidate.DecimalOdds,
			Bankroll:       slotBankroll,
			Tier:           candidate.Tier,
			RecentWinRate:  s.recentWinRate(),
		})

		if stake.Amount.IsNegative() || stake.Amount.GreaterThan(slotBankroll) {
			return &InvariantViolation{
				Kind:   ViolationStakeExceedsBankroll,
				GameID: g.ID,
				Detail: fmt.Sprintf("stake %s with bankroll %s", stake.Amount, slotBankroll),
			}
		}

		amount := stake.Amount
		if available := slotBankroll.Sub(committed); amount.GreaterThan(available) {
			amount = available.Truncate(2)
		}
		if !amount.IsPositive() {
			entry.Status = models.EntryNoBet
			entry.Reason = reasonZeroStake
			s.ledger.Entries = append(s.ledger.Entries, entry)
			continue
		}
		committed = committed.Add(amount)

		entry.Status = models.EntryBet
		entry.Bet = &models.Bet{
			ID:              uuid.New(),
			GameID:          g.ID,
			Side:            candidate.Side,
			Team:            candidate.Team,
			Tier:            candidate.Tier,
			Rules:           candidate.MatchedRules,
			WinProbability:  candidate.PredictedProbability,
			Edge:            candidate.Edge,
			DecimalOdds:     candidate.DecimalOdds,
			ClosingOdds:     g.ClosingOdds,
			Stake:           amount,
			FullKelly:       stake.FullKelly,
			AppliedFraction: stake.AppliedFraction,
			Multiplier:      stake.Multiplier,
			BankrollBefore:  slotBankroll,
			PlacedAt:        g.ScheduledAt,
		}
		s.ledger.Entries = append(s.ledger.Entries, entry)
	}

	// Outcomes become visible only now, after every stake in the slot is fixed
	lastSettled := ""
	for i := first; i < len(s.ledger.Entries); i++ {
		entry := &s.ledger.Entries[i]
		if entry.Bet != nil {
			if err := s.resolve(entry.Bet, &slot[i-first]); err != nil {
				return err
			}
			lastSettled = entry.GameID
		}
		entry.Bankroll = s.bankroll
	}

	// The floor is checked on the slot-end bankroll; an intra-slot dip that recovers does not halt
	if s.state == models.StateRunning && s.bankroll.LessThanOrEqual(s.params.MinBankrollFloor) {
		s.state = models.StateHaltedFloor
		s.ledger.State = s.state
		s.ledger.HaltedAfter = lastSettled
		s.logger.Warn().
			Str("bankroll", s.bankroll.StringFixed(2)).
			Str("floor", s.params.MinBankrollFloor.StringFixed(2)).
			Str("game_id", s.ledger.HaltedAfter).
			Msg("bankroll floor breached, halting")
	}

	return nil
}

// resolve settles a bet against its own game's outcome and updates bankroll statistics
func (s *Simulator) resolve(bet *models.Bet, g *models.Game) error {
	if g.ScheduledAt.Before(s.lastResolved) {
		return &InvariantViolation{
			Kind:   ViolationLookahead,
			GameID: g.ID,
			Detail: fmt.Sprintf("resolved after a game scheduled at %s", s.lastResolved.Format(time.RFC3339)),
		}
	}

	bet.Won = g.SideWon()
	bet.ResolvedAt = g.ScheduledAt
	if bet.Won {
		bet.Profit = bet.Stake.Mul(decimal.NewFromFloat(bet.DecimalOdds).Sub(decimal.NewFromInt(1))).Round(2)
	} else {
		bet.Profit = bet.Stake.Neg()
	}

	next := s.bankroll.Add(bet.Profit)
	if next.IsNegative() {
		return &InvariantViolation{
			Kind:   ViolationNegativeBankroll,
			GameID: g.ID,
			Detail: fmt.Sprintf("bankroll %s after profit %s", next, bet.Profit),
		}
	}
	s.bankroll = next
	s.lastResolved = g.ScheduledAt
	bet.BankrollAfter = next

	if next.GreaterThan(s.peak) {
		s.peak = next
	}
	s.recordOutcome(bet.Won)

	s.logger.Debug().
		Str("game_id", g.ID).
		Str("stake", bet.Stake.StringFixed(2)).
		Bool("won", bet.Won).
		Str("bankroll", next.StringFixed(2)).
		Msg("bet resolved")

	return nil
}

func (s *Simulator) recordOutcome(won bool) {
	if won {
		s.ledger.Wins++
		s.winStreak++
		s.lossStreak = 0
		if s.winStreak > s.ledger.LongestWinStreak {
			s.ledger.LongestWinStreak = s.winStreak
		}
	} else {
		s.ledger.Losses++
		s.lossStreak++
		s.winStreak = 0
		if s.lossStreak > s.ledger.LongestLossStreak {
			s.ledger.LongestLossStreak = s.lossStreak
		}
	}

	s.recent = append(s.recent, won)
	if len(s.recent) > s.params.RecentWindow {
		s.recent = s.recent[1:]
	}
}

// recentWinRate is the win rate over the last RecentWindow bets, NaN until the window fills
func (s *Simulator) recentWinRate() float64 {
	if len(s.recent) < s.params.RecentWindow {
		return math.NaN()
	}
	wins := 0
	for _, w := range s.recent {
		if w {
			wins++
		}
	}
	return float64(wins) / float64(len(s.recent))
}
