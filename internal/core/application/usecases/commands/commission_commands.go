package commands

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Errors returned by Validate on zero-value commands.
var (
	ErrInitializeCommissionAccountCommandIsNotConstructed = errors.New(
		"InitializeCommissionAccountCommand must be created via NewInitializeCommissionAccountCommand constructor",
	)
	ErrRechargeCommissionCommandIsNotConstructed = errors.New(
		"RechargeCommissionCommand must be created via NewRechargeCommissionCommand constructor",
	)
	ErrRefundCommissionCommandIsNotConstructed = errors.New(
		"RefundCommissionCommand must be created via NewRefundCommissionCommand constructor",
	)
	ErrAuditLedgerCommandIsNotConstructed = errors.New(
		"AuditLedgerCommand must be created via NewAuditLedgerCommand constructor",
	)
)

// InitializeCommissionAccountCommand opens the ledger of a courier.
type InitializeCommissionAccountCommand struct { //nolint:recvcheck //using for validation
	courierID      kernel.UUID
	ratePercent    float64
	isRevenueShare bool
	minimumBalance int64

	guard guard.ConstructorGuard
}

// NewInitializeCommissionAccountCommand validates the courier and the rate.
// The rate must lie in 0..100 with at most two decimals. A negative
// minimumBalance is allowed and lets the account run into debt.
func NewInitializeCommissionAccountCommand(
	courierID kernel.UUID,
	ratePercent float64,
	isRevenueShare bool,
	minimumBalance int64,
) (InitializeCommissionAccountCommand, error) {
	cmd := InitializeCommissionAccountCommand{
		isRevenueShare: isRevenueShare,
		minimumBalance: minimumBalance,
		guard:          guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		requireID("courier id", courierID, &cmd.courierID),
		commission.ValidateRate(ratePercent),
	); err != nil {
		return InitializeCommissionAccountCommand{}, err
	}
	cmd.ratePercent = ratePercent
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c InitializeCommissionAccountCommand) Validate() error {
	return c.guard.Validate(ErrInitializeCommissionAccountCommandIsNotConstructed)
}

// CourierID returns the courier whose ledger is opened.
func (c InitializeCommissionAccountCommand) CourierID() kernel.UUID { return c.courierID }

// RatePercent returns the commission rate in percent.
func (c InitializeCommissionAccountCommand) RatePercent() float64 { return c.ratePercent }

// IsRevenueShare reports whether commission is deducted at all.
func (c InitializeCommissionAccountCommand) IsRevenueShare() bool { return c.isRevenueShare }

// MinimumBalance returns the configured balance floor.
func (c InitializeCommissionAccountCommand) MinimumBalance() int64 { return c.minimumBalance }

// RechargeCommissionCommand credits prepaid balance.
type RechargeCommissionCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	amount    int64

	guard guard.ConstructorGuard
}

// NewRechargeCommissionCommand rejects non-positive amounts.
func NewRechargeCommissionCommand(courierID kernel.UUID, amount int64) (RechargeCommissionCommand, error) {
	cmd := RechargeCommissionCommand{guard: guard.NewConstructorGuard()}

	var amountErr error
	if amount <= 0 {
		amountErr = errs.NewValueIsInvalidErrorWithCause("recharge amount is invalid", fmt.Errorf("%d is not greater than 0", amount))
	}

	if err := errors.Join(requireID("courier id", courierID, &cmd.courierID), amountErr); err != nil {
		return RechargeCommissionCommand{}, err
	}
	cmd.amount = amount
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c RechargeCommissionCommand) Validate() error {
	return c.guard.Validate(ErrRechargeCommissionCommandIsNotConstructed)
}

// CourierID returns the courier being credited.
func (c RechargeCommissionCommand) CourierID() kernel.UUID { return c.courierID }

// Amount returns the credit in minor units.
func (c RechargeCommissionCommand) Amount() int64 { return c.amount }

// RefundCommissionCommand reverses the deduction taken for one order.
type RefundCommissionCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	orderID   kernel.UUID

	guard guard.ConstructorGuard
}

// NewRefundCommissionCommand requires both the courier and the order whose
// deduction is reversed.
func NewRefundCommissionCommand(courierID, orderID kernel.UUID) (RefundCommissionCommand, error) {
	cmd := RefundCommissionCommand{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		requireID("courier id", courierID, &cmd.courierID),
		requireID("order id", orderID, &cmd.orderID),
	); err != nil {
		return RefundCommissionCommand{}, err
	}
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c RefundCommissionCommand) Validate() error {
	return c.guard.Validate(ErrRefundCommissionCommandIsNotConstructed)
}

// CourierID returns the courier being refunded.
func (c RefundCommissionCommand) CourierID() kernel.UUID { return c.courierID }

// OrderID returns the order whose deduction is reversed.
func (c RefundCommissionCommand) OrderID() kernel.UUID { return c.orderID }

// AuditLedgerCommand replays a courier's transaction log against the stored
// balance.
type AuditLedgerCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID

	guard guard.ConstructorGuard
}

// NewAuditLedgerCommand audits the ledger of a single courier.
func NewAuditLedgerCommand(courierID kernel.UUID) (AuditLedgerCommand, error) {
	cmd := AuditLedgerCommand{guard: guard.NewConstructorGuard()}
	if err := requireID("courier id", courierID, &cmd.courierID); err != nil {
		return AuditLedgerCommand{}, err
	}
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c AuditLedgerCommand) Validate() error {
	return c.guard.Validate(ErrAuditLedgerCommandIsNotConstructed)
}

// CourierID returns the courier whose ledger is audited.
func (c AuditLedgerCommand) CourierID() kernel.UUID { return c.courierID }
