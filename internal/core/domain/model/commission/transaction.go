package commission

import (
	"fmt"
	"sort"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// TransactionType is the direction of a ledger line.
type TransactionType string

const (
	TransactionRecharge  TransactionType = "recharge"
	TransactionDeduction TransactionType = "deduction"
	TransactionRefund    TransactionType = "refund"
)

// Validate rejects unknown types.
func (t TransactionType) Validate() error {
	switch t {
	case TransactionRecharge, TransactionDeduction, TransactionRefund:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("transaction type is invalid", fmt.Errorf("%q is unknown", string(t)))
	}
}

// Signed returns amount with the sign this type applies to the balance.
func (t TransactionType) Signed(amount int64) int64 {
	if t == TransactionDeduction {
		return -amount
	}
	return amount
}

// Transaction is one immutable ledger line. Amount is always non-negative;
// Type gives the direction.
type Transaction struct {
	ID            kernel.UUID
	CourierID     kernel.UUID
	Type          TransactionType
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	OrderID       *kernel.UUID
	Sequence      int64
	CreatedAt     time.Time
}

// Replay recomputes a balance from zero by applying the transactions in
// createdAt order, sequence breaking ties. It fails with a DriftError at the
// first line whose recorded before/after snapshot disagrees with the running
// balance.
func Replay(txs []Transaction) (int64, error) {
	ordered := make([]Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].Sequence < ordered[j].Sequence
	})

	var balance int64
	for _, tx := range ordered {
		if tx.BalanceBefore != balance {
			return balance, &DriftError{Sequence: tx.Sequence, Expected: balance, Actual: tx.BalanceBefore}
		}
		balance += tx.Type.Signed(tx.Amount)
		if tx.BalanceAfter != balance {
			return balance, &DriftError{Sequence: tx.Sequence, Expected: balance, Actual: tx.BalanceAfter}
		}
	}
	return balance, nil
}
