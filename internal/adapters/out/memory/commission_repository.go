package memory

import (
	"context"
	"sort"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

const accountsTable = "commission_accounts"

type commissionRepository struct {
	uow *UnitOfWork
}

// Add fails with commission.ErrAccountAlreadyExists for a second account of
// the same courier, whether committed or pending in this unit of work.
func (r *commissionRepository) Add(ctx context.Context, account *commission.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	if !r.uow.active {
		return ErrNoTransaction
	}
	id := account.CourierID()
	if err := r.uow.lock(ctx, rowKey{table: accountsTable, id: id}); err != nil {
		return err
	}
	if _, ok := r.lookup(id); ok {
		return commission.ErrAccountAlreadyExists
	}

	r.uow.accounts[id] = account.Snapshot()
	r.uow.inserted[id] = true
	r.uow.track(account)
	return nil
}

// GetForUpdate holds the account lock until the unit of work ends. Without
// Begin it degrades to a plain read, like SELECT ... FOR UPDATE in autocommit.
func (r *commissionRepository) GetForUpdate(ctx context.Context, courierID kernel.UUID) (*commission.Account, error) {
	if err := courierID.Validate(); err != nil {
		return nil, err
	}
	if r.uow.active {
		if err := r.uow.lock(ctx, rowKey{table: accountsTable, id: courierID}); err != nil {
			return nil, err
		}
	}
	return r.Get(ctx, courierID)
}

func (r *commissionRepository) Get(_ context.Context, courierID kernel.UUID) (*commission.Account, error) {
	if err := courierID.Validate(); err != nil {
		return nil, err
	}
	s, ok := r.lookup(courierID)
	if !ok {
		return nil, errs.NewObjectNotFoundError("commission account", courierID.String())
	}
	return commission.RestoreAccount(s)
}

// Update takes the account lock if GetForUpdate did not already.
func (r *commissionRepository) Update(ctx context.Context, account *commission.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	if !r.uow.active {
		return ErrNoTransaction
	}
	id := account.CourierID()
	if err := r.uow.lock(ctx, rowKey{table: accountsTable, id: id}); err != nil {
		return err
	}
	if _, ok := r.lookup(id); !ok {
		return errs.NewObjectNotFoundError("commission account", id.String())
	}

	r.uow.accounts[id] = account.Snapshot()
	r.uow.track(account)
	return nil
}

// AppendTransaction enforces one line per (courier, order, type), the same rule
// as the unique index of the SQL adapter.
func (r *commissionRepository) AppendTransaction(_ context.Context, tx commission.Transaction) error {
	if !r.uow.active {
		return ErrNoTransaction
	}
	if tx.OrderID != nil {
		r.uow.store.mu.Lock()
		committed := r.uow.store.findOrderTxLocked(tx.CourierID, *tx.OrderID, tx.Type)
		r.uow.store.mu.Unlock()
		if committed != nil || findOrderTx(r.uow.ledger, tx.CourierID, *tx.OrderID, tx.Type) != nil {
			if tx.Type == commission.TransactionRefund {
				return commission.ErrAlreadyRefunded
			}
			return errs.NewValueIsInvalidError("order transaction already recorded")
		}
	}
	r.uow.ledger = append(r.uow.ledger, tx)
	return nil
}

func (r *commissionRepository) FindOrderTransaction(
	_ context.Context,
	courierID, orderID kernel.UUID,
	kind commission.TransactionType,
) (*commission.Transaction, error) {
	if tx := findOrderTx(r.uow.ledger, courierID, orderID, kind); tx != nil {
		return tx, nil
	}
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	if tx := r.uow.store.findOrderTxLocked(courierID, orderID, kind); tx != nil {
		return tx, nil
	}
	return nil, errs.NewObjectNotFoundError("commission transaction", orderID.String())
}

// ListTransactions pages newest first.
func (r *commissionRepository) ListTransactions(
	ctx context.Context,
	courierID kernel.UUID,
	page, pageSize int,
) ([]commission.Transaction, int64, error) {
	all, err := r.AllTransactions(ctx, courierID)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(all))

	// newest first
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if page < 1 {
		page = 1
	}
	from := (page - 1) * pageSize
	if pageSize <= 0 || from >= len(all) {
		return []commission.Transaction{}, total, nil
	}
	to := from + pageSize
	if to > len(all) {
		to = len(all)
	}
	return all[from:to], total, nil
}

// AllTransactions returns committed and pending lines in replay order.
func (r *commissionRepository) AllTransactions(_ context.Context, courierID kernel.UUID) ([]commission.Transaction, error) {
	r.uow.store.mu.Lock()
	out := append([]commission.Transaction(nil), r.uow.store.ledger[courierID]...)
	r.uow.store.mu.Unlock()
	for _, tx := range r.uow.ledger {
		if tx.CourierID == courierID {
			out = append(out, tx)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

func (r *commissionRepository) lookup(id kernel.UUID) (commission.Snapshot, bool) {
	if s, ok := r.uow.accounts[id]; ok {
		return s, true
	}
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	s, ok := r.uow.store.accounts[id]
	return s, ok
}

func (s *Store) findOrderTxLocked(courierID, orderID kernel.UUID, kind commission.TransactionType) *commission.Transaction {
	return findOrderTx(s.ledger[courierID], courierID, orderID, kind)
}

func findOrderTx(txs []commission.Transaction, courierID, orderID kernel.UUID, kind commission.TransactionType) *commission.Transaction {
	for i := range txs {
		tx := txs[i]
		if tx.CourierID == courierID && tx.Type == kind && tx.OrderID != nil && *tx.OrderID == orderID {
			return &tx
		}
	}
	return nil
}
