package queries

import (
	"context"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/ports"
)

// ListCommissionTransactionsQueryHandler pages through a courier's ledger.
type ListCommissionTransactionsQueryHandler struct {
	accounts ports.CommissionReader
}

// NewListCommissionTransactionsQueryHandler creates the handler.
func NewListCommissionTransactionsQueryHandler(accounts ports.CommissionReader) ListCommissionTransactionsQueryHandler {
	return ListCommissionTransactionsQueryHandler{accounts: accounts}
}

// Handle fails with errs.ErrObjectNotFound for a courier without an account
// so that an empty page always means an empty ledger.
func (h ListCommissionTransactionsQueryHandler) Handle(
	ctx context.Context,
	query ListCommissionTransactionsQuery,
) (TransactionPage, error) {
	if err := query.Validate(); err != nil {
		return TransactionPage{}, err
	}

	if _, err := h.accounts.Get(ctx, query.CourierID()); err != nil {
		return TransactionPage{}, err
	}

	txs, total, err := h.accounts.ListTransactions(ctx, query.CourierID(), query.Page(), query.PageSize())
	if err != nil {
		return TransactionPage{}, err
	}
	if txs == nil {
		txs = make([]commission.Transaction, 0)
	}
	return TransactionPage{
		Transactions: txs,
		Total:        total,
		Page:         query.Page(),
		PageSize:     query.PageSize(),
	}, nil
}
