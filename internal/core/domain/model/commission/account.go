package commission

import (
	"errors"
	"fmt"
	"math"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// Rates are percentages with at most RateDecimals fractional digits, the
// precision the ledger stores.
const (
	RateMin      = 0.0
	RateMax      = 100.0
	RateDecimals = 2
)

// Account is the per-courier ledger aggregate. Repositories hand it out under
// a row lock, so its methods assume exclusive access.
type Account struct {
	courierID           kernel.UUID
	balance             int64
	minimumBalance      int64
	ratePercent         float64
	isSuspended         bool
	isRevenueShare      bool
	lowBalanceThreshold int64
	lastSequence        int64
	createdAt           time.Time
	updatedAt           time.Time

	events        []kernel.DomainEvent
	isConstructed bool
}

// NewAccountParams groups the inputs of NewAccount.
type NewAccountParams struct {
	CourierID           kernel.UUID
	RatePercent         float64
	IsRevenueShare      bool
	MinimumBalance      int64
	LowBalanceThreshold int64
	CreatedAt           time.Time
}

// NewAccount opens a zero-balance account. Revenue-share accounts start
// suspended because an empty balance cannot cover any commission.
func NewAccount(p NewAccountParams) (*Account, error) {
	a := &Account{
		isRevenueShare: p.IsRevenueShare,
		isSuspended:    p.IsRevenueShare,
		createdAt:      p.CreatedAt.UTC(),
		updatedAt:      p.CreatedAt.UTC(),
		isConstructed:  true,
	}

	if err := errors.Join(
		a.setCourier(p.CourierID),
		a.setRate(p.RatePercent),
		a.setThresholds(p.MinimumBalance, p.LowBalanceThreshold),
	); err != nil {
		return nil, err
	}
	return a, nil
}

// Snapshot is the persisted form of an Account.
type Snapshot struct {
	CourierID           kernel.UUID
	Balance             int64
	MinimumBalance      int64
	RatePercent         float64
	IsSuspended         bool
	IsRevenueShare      bool
	LowBalanceThreshold int64
	LastSequence        int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// RestoreAccount rebuilds an account from storage without recording events.
func RestoreAccount(s Snapshot) (*Account, error) {
	a := &Account{
		balance:        s.Balance,
		isSuspended:    s.IsSuspended,
		isRevenueShare: s.IsRevenueShare,
		lastSequence:   s.LastSequence,
		createdAt:      s.CreatedAt.UTC(),
		updatedAt:      s.UpdatedAt.UTC(),
		isConstructed:  true,
	}
	if err := errors.Join(
		a.setCourier(s.CourierID),
		a.setRate(s.RatePercent),
		a.setThresholds(s.MinimumBalance, s.LowBalanceThreshold),
	); err != nil {
		return nil, err
	}
	if s.LastSequence < 0 {
		return nil, errs.NewVersionIsInvalidError("ledger sequence")
	}
	return a, nil
}

// Snapshot returns the persisted form of the account.
func (a *Account) Snapshot() Snapshot {
	return Snapshot{
		CourierID:           a.courierID,
		Balance:             a.balance,
		MinimumBalance:      a.minimumBalance,
		RatePercent:         a.ratePercent,
		IsSuspended:         a.isSuspended,
		IsRevenueShare:      a.isRevenueShare,
		LowBalanceThreshold: a.lowBalanceThreshold,
		LastSequence:        a.lastSequence,
		CreatedAt:           a.createdAt,
		UpdatedAt:           a.updatedAt,
	}
}

// Validate reports whether the account was built by NewAccount or RestoreAccount.
func (a *Account) Validate() error {
	if a == nil || !a.isConstructed {
		return ErrAccountIsNotConstructed
	}
	return nil
}

// CourierID returns the ledger owner.
func (a *Account) CourierID() kernel.UUID { return a.courierID }

// Balance returns the prepaid balance in minor units.
func (a *Account) Balance() int64 { return a.balance }

// MinimumBalance returns the configured balance floor.
func (a *Account) MinimumBalance() int64 { return a.minimumBalance }

// RatePercent returns the commission rate.
func (a *Account) RatePercent() float64 { return a.ratePercent }

// IsSuspended reports whether the account was drained to zero or below.
func (a *Account) IsSuspended() bool { return a.isSuspended }

// IsRevenueShare reports whether completions are charged at all.
func (a *Account) IsRevenueShare() bool { return a.isRevenueShare }

// LowBalanceThreshold returns the warning level.
func (a *Account) LowBalanceThreshold() int64 { return a.lowBalanceThreshold }

// LastSequence is the sequence of the newest transaction, 0 for a fresh account.
func (a *Account) LastSequence() int64 { return a.lastSequence }

// CanAcceptWork is always true for employed couriers.
func (a *Account) CanAcceptWork() bool {
	if !a.isRevenueShare {
		return true
	}
	return a.balance > 0 && !a.isSuspended
}

// Deduction is the commission owed for an order price, rounded half away
// from zero.
func (a *Account) Deduction(price int64) int64 {
	return int64(math.Round(float64(price) * a.ratePercent / 100))
}

// Settle debits the commission for a completed order. The policy is strict: a
// balance that cannot cover the deduction is rejected and left unchanged.
// Non-revenue-share accounts settle as a no-op and return a nil transaction.
func (a *Account) Settle(orderID kernel.UUID, price int64, now time.Time) (*Transaction, error) {
	if !a.isRevenueShare {
		return nil, nil //nolint:nilnil // nothing to record
	}
	if price <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("order price is invalid", fmt.Errorf("%d is not greater than 0", price))
	}

	deduction := a.Deduction(price)
	if a.balance < deduction {
		return nil, &InsufficientBalanceError{Balance: a.balance, Required: deduction}
	}

	tx := a.apply(TransactionDeduction, deduction, &orderID, now)
	a.afterDebit(now)
	return tx, nil
}

// Recharge credits the balance and lifts a suspension once it is positive.
func (a *Account) Recharge(amount int64, now time.Time) (*Transaction, error) {
	if amount <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("recharge amount is invalid", fmt.Errorf("%d is not greater than 0", amount))
	}
	tx := a.apply(TransactionRecharge, amount, nil, now)
	a.afterCredit(now)
	return tx, nil
}

// Refund reverses a deduction. The caller guarantees it is the only refund
// for the order.
func (a *Account) Refund(deduction Transaction, now time.Time) (*Transaction, error) {
	if deduction.Type != TransactionDeduction || deduction.OrderID == nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("refund source is invalid", fmt.Errorf("%s transaction cannot be refunded", deduction.Type))
	}
	if !deduction.CourierID.IsEqual(a.courierID) {
		return nil, errs.NewValueIsInvalidErrorWithCause("refund source is invalid", errors.New("transaction belongs to another courier"))
	}
	tx := a.apply(TransactionRefund, deduction.Amount, deduction.OrderID, now)
	a.afterCredit(now)
	return tx, nil
}

// DomainEvents returns a copy of the events raised since the last clear.
func (a *Account) DomainEvents() []kernel.DomainEvent {
	out := make([]kernel.DomainEvent, len(a.events))
	copy(out, a.events)
	return out
}

// ClearDomainEvents drops the recorded events once they were published.
func (a *Account) ClearDomainEvents() {
	a.events = nil
}

func (a *Account) apply(kind TransactionType, amount int64, orderID *kernel.UUID, now time.Time) *Transaction {
	before := a.balance
	a.balance += kind.Signed(amount)
	a.lastSequence++
	a.updatedAt = now.UTC()

	var oid *kernel.UUID
	if orderID != nil {
		c := *orderID
		oid = &c
	}
	return &Transaction{
		ID:            kernel.NewUUID(),
		CourierID:     a.courierID,
		Type:          kind,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  a.balance,
		OrderID:       oid,
		Sequence:      a.lastSequence,
		CreatedAt:     now.UTC(),
	}
}

func (a *Account) afterDebit(now time.Time) {
	switch {
	case a.balance <= 0:
		if !a.isSuspended {
			a.isSuspended = true
			a.record(EventSuspended, 0, now)
		}
	case a.balance <= a.lowBalanceThreshold:
		a.record(EventLowBalance, a.lowBalanceThreshold, now)
	}
}

func (a *Account) afterCredit(now time.Time) {
	if a.isSuspended && a.isRevenueShare && a.balance > 0 {
		a.isSuspended = false
		a.record(EventReinstated, 0, now)
	}
}

func (a *Account) record(kind EventKind, threshold int64, now time.Time) {
	a.events = append(a.events, Event{
		Kind:      kind,
		CourierID: a.courierID,
		Balance:   a.balance,
		Threshold: threshold,
		At:        now.UTC(),
	})
}

func (a *Account) setCourier(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredError("courier id")
	}
	a.courierID = id
	return nil
}

func (a *Account) setRate(rate float64) error {
	if err := ValidateRate(rate); err != nil {
		return err
	}
	a.ratePercent = rate
	return nil
}

// ValidateRate checks the range and that rate survives storage unrounded.
func ValidateRate(rate float64) error {
	if math.IsNaN(rate) || rate < RateMin || rate > RateMax {
		return errs.NewValueIsOutOfRangeError("commission rate percent", rate, RateMin, RateMax)
	}
	scale := math.Pow10(RateDecimals)
	if scaled := rate * scale; math.Abs(scaled-math.Round(scaled)) > 1e-6 {
		return errs.NewValueIsInvalidErrorWithCause("commission rate percent is invalid",
			fmt.Errorf("%v has more than %d decimal places", rate, RateDecimals))
	}
	return nil
}

func (a *Account) setThresholds(minimum, low int64) error {
	if low < 0 {
		return errs.NewValueIsInvalidErrorWithCause("low balance threshold is invalid", fmt.Errorf("%d is negative", low))
	}
	a.minimumBalance = minimum
	a.lowBalanceThreshold = low
	return nil
}
