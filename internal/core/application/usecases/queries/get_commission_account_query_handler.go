package queries

import (
	"context"
	"errors"

	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// GetCommissionAccountQueryHandler reports an account with its derived
// eligibility.
type GetCommissionAccountQueryHandler struct {
	accounts ports.CommissionReader
}

// NewGetCommissionAccountQueryHandler creates the handler.
func NewGetCommissionAccountQueryHandler(accounts ports.CommissionReader) GetCommissionAccountQueryHandler {
	return GetCommissionAccountQueryHandler{accounts: accounts}
}

// Handle fails with errs.ErrObjectNotFound for couriers without an account.
func (h GetCommissionAccountQueryHandler) Handle(
	ctx context.Context,
	query GetCommissionAccountQuery,
) (CommissionAccountView, error) {
	if err := query.Validate(); err != nil {
		return CommissionAccountView{}, err
	}

	a, err := h.accounts.Get(ctx, query.CourierID())
	if err != nil {
		return CommissionAccountView{}, err
	}
	return CommissionAccountView{
		CourierID:           a.CourierID(),
		Balance:             a.Balance(),
		MinimumBalance:      a.MinimumBalance(),
		RatePercent:         a.RatePercent(),
		IsSuspended:         a.IsSuspended(),
		IsRevenueShare:      a.IsRevenueShare(),
		LowBalanceThreshold: a.LowBalanceThreshold(),
		CanAcceptWork:       a.CanAcceptWork(),
	}, nil
}

// CanAcceptWorkQueryHandler answers the dispatch eligibility question. A
// courier without a ledger account is employed and always eligible.
type CanAcceptWorkQueryHandler struct {
	accounts ports.CommissionReader
}

// NewCanAcceptWorkQueryHandler creates the handler.
func NewCanAcceptWorkQueryHandler(accounts ports.CommissionReader) CanAcceptWorkQueryHandler {
	return CanAcceptWorkQueryHandler{accounts: accounts}
}

// Handle reports false for suspended or drained revenue-share accounts.
func (h CanAcceptWorkQueryHandler) Handle(ctx context.Context, query GetCommissionAccountQuery) (bool, error) {
	if err := query.Validate(); err != nil {
		return false, err
	}

	a, err := h.accounts.Get(ctx, query.CourierID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return a.CanAcceptWork(), nil
}
