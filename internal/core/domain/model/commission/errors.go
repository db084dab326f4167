package commission

import (
	"errors"
	"fmt"
)

// Ledger errors. The typed errors below unwrap to ErrInsufficientBalance and
// ErrLedgerDrift.
var (
	ErrAccountIsNotConstructed = errors.New("Account must be created via NewAccount constructor")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrCourierIneligible       = errors.New("courier cannot accept work")
	ErrAccountAlreadyExists    = errors.New("commission account already exists")
	ErrAlreadyRefunded         = errors.New("order commission already refunded")
	ErrLedgerDrift             = errors.New("ledger does not replay to stored balance")
)

// InsufficientBalanceError reports the shortfall of a rejected settlement.
type InsufficientBalanceError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: balance %d, required %d", ErrInsufficientBalance, e.Balance, e.Required)
}

// Unwrap lets errors.Is match ErrInsufficientBalance.
func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// DriftError describes the first transaction at which a replay diverged.
type DriftError struct {
	Sequence int64
	Expected int64
	Actual   int64
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("%s: at sequence %d expected %d, got %d", ErrLedgerDrift, e.Sequence, e.Expected, e.Actual)
}

// Unwrap lets errors.Is match ErrLedgerDrift.
func (e *DriftError) Unwrap() error {
	return ErrLedgerDrift
}
