package backtest

import (
	"errors"
	"fmt"
)

var (
	ErrSimulatorUsed   = errors.New("simulator already run")
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// ValidationError identifies an input record that must be fixed before a run can proceed
type ValidationError struct {
	Index  int
	GameID string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.GameID == "" {
		return fmt.Sprintf("invalid game at index %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid game %s at index %d: %s", e.GameID, e.Index, e.Reason)
}

// Invariant violation kinds
const (
	ViolationNegativeBankroll     = "negative_bankroll"
	ViolationStakeExceedsBankroll = "stake_exceeds_bankroll"
	ViolationLookahead            = "lookahead"
)

// InvariantViolation is a fatal bug in sizing or ordering. It is never recovered from.
type InvariantViolation struct {
	Kind   string
	GameID string
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("bankroll invariant violation (%s) on game %s: %s", e.Kind, e.GameID, e.Detail)
}
