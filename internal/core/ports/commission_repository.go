package ports

import (
	"context"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"
)

// CommissionRepository persists ledger accounts and their transaction log.
type CommissionRepository interface {
	// Add fails with commission.ErrAccountAlreadyExists for a known courier.
	Add(ctx context.Context, account *commission.Account) error

	// GetForUpdate loads the account and holds its row lock until the
	// surrounding transaction ends. Every balance change goes through it.
	GetForUpdate(ctx context.Context, courierID kernel.UUID) (*commission.Account, error)

	Update(ctx context.Context, account *commission.Account) error

	AppendTransaction(ctx context.Context, tx commission.Transaction) error

	// FindOrderTransaction returns the transaction of the given type recorded
	// for an order, or errs.ErrObjectNotFound.
	FindOrderTransaction(
		ctx context.Context,
		courierID, orderID kernel.UUID,
		kind commission.TransactionType,
	) (*commission.Transaction, error)

	CommissionReader
}

// CommissionReader holds the read-only ledger queries.
type CommissionReader interface {
	// Get returns errs.ErrObjectNotFound when the courier has no account.
	Get(ctx context.Context, courierID kernel.UUID) (*commission.Account, error)

	// ListTransactions pages the log newest first. page starts at 1.
	ListTransactions(ctx context.Context, courierID kernel.UUID, page, pageSize int) ([]commission.Transaction, int64, error)

	// AllTransactions returns the full log in replay order.
	AllTransactions(ctx context.Context, courierID kernel.UUID) ([]commission.Transaction, error)
}
