package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/pkg/errs"
)

// LedgerResult is the account state after a balance change together with the
// transaction that produced it.
type LedgerResult struct {
	Account     commission.Snapshot
	Transaction commission.Transaction
}

// InitializeCommissionAccountCommandHandler opens a zero-balance account.
type InitializeCommissionAccountCommandHandler struct {
	uowFactory          CommissionUoWFactory
	lowBalanceThreshold int64
	now                 Clock
	logger              *slog.Logger
}

// NewInitializeCommissionAccountCommandHandler creates the handler. Every new
// account gets lowBalanceThreshold as its warning level.
func NewInitializeCommissionAccountCommandHandler(
	uowFactory CommissionUoWFactory,
	lowBalanceThreshold int64,
	logger *slog.Logger,
) InitializeCommissionAccountCommandHandler {
	return InitializeCommissionAccountCommandHandler{
		uowFactory:          uowFactory,
		lowBalanceThreshold: lowBalanceThreshold,
		now:                 systemClock,
		logger:              logger.With("component", "commission-ledger"),
	}
}

// Handle opens the account. Revenue-share accounts start suspended until their
// first recharge. A second account for the same courier is rejected by the
// repository.
func (h InitializeCommissionAccountCommandHandler) Handle(
	ctx context.Context,
	cmd InitializeCommissionAccountCommand,
) (commission.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return commission.Snapshot{}, err
	}

	account, err := commission.NewAccount(commission.NewAccountParams{
		CourierID:           cmd.CourierID(),
		RatePercent:         cmd.RatePercent(),
		IsRevenueShare:      cmd.IsRevenueShare(),
		MinimumBalance:      cmd.MinimumBalance(),
		LowBalanceThreshold: h.lowBalanceThreshold,
		CreatedAt:           h.now(),
	})
	if err != nil {
		return commission.Snapshot{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return commission.Snapshot{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.CommissionRepository().Add(ctx, account); err != nil {
		return commission.Snapshot{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return commission.Snapshot{}, err
	}

	h.logger.InfoContext(ctx, "commission account opened",
		"courierId", cmd.CourierID().String(),
		"ratePercent", cmd.RatePercent(),
		"revenueShare", cmd.IsRevenueShare(),
	)
	return account.Snapshot(), nil
}

// RechargeCommissionCommandHandler credits an account under its row lock.
type RechargeCommissionCommandHandler struct {
	uowFactory CommissionUoWFactory
	now        Clock
	logger     *slog.Logger
}

// NewRechargeCommissionCommandHandler creates the handler.
func NewRechargeCommissionCommandHandler(uowFactory CommissionUoWFactory, logger *slog.Logger) RechargeCommissionCommandHandler {
	return RechargeCommissionCommandHandler{
		uowFactory: uowFactory,
		now:        systemClock,
		logger:     logger.With("component", "commission-ledger"),
	}
}

// WithClock replaces the time source used to stamp transactions.
func (h RechargeCommissionCommandHandler) WithClock(now Clock) RechargeCommissionCommandHandler {
	h.now = now
	return h
}

// Handle locks the account, credits it and appends the recharge transaction
// in one unit of work. A suspended revenue-share account is reinstated once
// its balance turns positive.
func (h RechargeCommissionCommandHandler) Handle(ctx context.Context, cmd RechargeCommissionCommand) (LedgerResult, error) {
	if err := cmd.Validate(); err != nil {
		return LedgerResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return LedgerResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.CommissionRepository()
	account, err := repo.GetForUpdate(ctx, cmd.CourierID())
	if err != nil {
		return LedgerResult{}, err
	}

	tx, err := account.Recharge(cmd.Amount(), h.now())
	if err != nil {
		return LedgerResult{}, err
	}

	if err = repo.Update(ctx, account); err != nil {
		return LedgerResult{}, err
	}
	if err = repo.AppendTransaction(ctx, *tx); err != nil {
		return LedgerResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return LedgerResult{}, err
	}

	h.logger.InfoContext(ctx, "commission recharged",
		"courierId", cmd.CourierID().String(),
		"amount", cmd.Amount(),
		"balance", account.Balance(),
	)
	return LedgerResult{Account: account.Snapshot(), Transaction: *tx}, nil
}

// RefundCommissionCommandHandler credits back the deduction of one order. A
// second refund for the same order fails with commission.ErrAlreadyRefunded.
type RefundCommissionCommandHandler struct {
	uowFactory CommissionUoWFactory
	now        Clock
	logger     *slog.Logger
}

// NewRefundCommissionCommandHandler creates the handler.
func NewRefundCommissionCommandHandler(uowFactory CommissionUoWFactory, logger *slog.Logger) RefundCommissionCommandHandler {
	return RefundCommissionCommandHandler{
		uowFactory: uowFactory,
		now:        systemClock,
		logger:     logger.With("component", "commission-ledger"),
	}
}

// Handle looks up the order's deduction under the account lock and credits
// the same amount back. It fails with errs.ErrObjectNotFound when the order
// was never charged.
func (h RefundCommissionCommandHandler) Handle(ctx context.Context, cmd RefundCommissionCommand) (LedgerResult, error) {
	if err := cmd.Validate(); err != nil {
		return LedgerResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return LedgerResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.CommissionRepository()
	account, err := repo.GetForUpdate(ctx, cmd.CourierID())
	if err != nil {
		return LedgerResult{}, err
	}

	_, err = repo.FindOrderTransaction(ctx, cmd.CourierID(), cmd.OrderID(), commission.TransactionRefund)
	switch {
	case err == nil:
		return LedgerResult{}, commission.ErrAlreadyRefunded
	case !errors.Is(err, errs.ErrObjectNotFound):
		return LedgerResult{}, err
	}

	deduction, err := repo.FindOrderTransaction(ctx, cmd.CourierID(), cmd.OrderID(), commission.TransactionDeduction)
	if err != nil {
		return LedgerResult{}, err
	}

	tx, err := account.Refund(*deduction, h.now())
	if err != nil {
		return LedgerResult{}, err
	}

	if err = repo.Update(ctx, account); err != nil {
		return LedgerResult{}, err
	}
	if err = repo.AppendTransaction(ctx, *tx); err != nil {
		return LedgerResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return LedgerResult{}, err
	}

	h.logger.InfoContext(ctx, "commission refunded",
		"courierId", cmd.CourierID().String(),
		"orderId", cmd.OrderID().String(),
		"amount", tx.Amount,
	)
	return LedgerResult{Account: account.Snapshot(), Transaction: *tx}, nil
}

// AuditResult compares the stored balance with the replayed log.
type AuditResult struct {
	StoredBalance   int64
	ReplayedBalance int64
	Transactions    int
}

// AuditLedgerCommandHandler checks ledger conservation for one courier. A
// mismatch is returned as a commission.DriftError.
type AuditLedgerCommandHandler struct {
	uowFactory CommissionUoWFactory
	logger     *slog.Logger
}

// NewAuditLedgerCommandHandler creates the handler.
func NewAuditLedgerCommandHandler(uowFactory CommissionUoWFactory, logger *slog.Logger) AuditLedgerCommandHandler {
	return AuditLedgerCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "ledger-audit"),
	}
}

// Handle replays every transaction of the courier from zero and compares the
// result with the stored balance. The account row is locked so no write can
// slip in between the two reads.
func (h AuditLedgerCommandHandler) Handle(ctx context.Context, cmd AuditLedgerCommand) (AuditResult, error) {
	if err := cmd.Validate(); err != nil {
		return AuditResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return AuditResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.CommissionRepository()
	account, err := repo.GetForUpdate(ctx, cmd.CourierID())
	if err != nil {
		return AuditResult{}, err
	}
	txs, err := repo.AllTransactions(ctx, cmd.CourierID())
	if err != nil {
		return AuditResult{}, err
	}

	replayed, err := commission.Replay(txs)
	result := AuditResult{
		StoredBalance:   account.Balance(),
		ReplayedBalance: replayed,
		Transactions:    len(txs),
	}
	if err == nil && replayed != account.Balance() {
		err = &commission.DriftError{Sequence: account.LastSequence(), Expected: replayed, Actual: account.Balance()}
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "ledger drift detected",
			"courierId", cmd.CourierID().String(),
			"stored", result.StoredBalance,
			"replayed", result.ReplayedBalance,
			"error", err,
		)
		return result, err
	}

	if err = uow.Commit(ctx); err != nil {
		return result, err
	}
	return result, nil
}
