// Package commissionrepo persists commission accounts and their append-only
// transaction log. Balance changes always go through GetForUpdate, which takes
// the account row lock for the rest of the transaction.
package commissionrepo

import (
	"time"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// AccountDTO is the commission_accounts row. The rate column holds exactly
// commission.RateDecimals fractional digits.
type AccountDTO struct {
	CourierID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Balance             int64     `gorm:"not null"`
	MinimumBalance      int64     `gorm:"not null"`
	RatePercent         float64   `gorm:"type:numeric(5,2);not null"`
	IsSuspended         bool      `gorm:"not null"`
	IsRevenueShare      bool      `gorm:"not null"`
	LowBalanceThreshold int64     `gorm:"not null"`
	LastSequence        int64     `gorm:"not null"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

// TableName maps AccountDTO to commission_accounts.
func (AccountDTO) TableName() string {
	return "commission_accounts"
}

// TransactionDTO is one ledger line. The (courier_id, order_id, type) index
// makes a second deduction or refund for the same order impossible; rows
// without an order never collide because NULLs are distinct.
type TransactionDTO struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CourierID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_commission_tx_sequence,priority:1;uniqueIndex:idx_commission_tx_order,priority:1"`
	Type          string     `gorm:"type:varchar(16);not null;uniqueIndex:idx_commission_tx_order,priority:3"`
	Amount        int64      `gorm:"not null"`
	BalanceBefore int64      `gorm:"not null"`
	BalanceAfter  int64      `gorm:"not null"`
	OrderID       *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_commission_tx_order,priority:2"`
	Sequence      int64      `gorm:"not null;uniqueIndex:idx_commission_tx_sequence,priority:2"`
	CreatedAt     time.Time  `gorm:"not null;index"`
}

// TableName maps TransactionDTO to commission_transactions.
func (TransactionDTO) TableName() string {
	return "commission_transactions"
}

func accountFromDomain(a *commission.Account) AccountDTO {
	s := a.Snapshot()
	return AccountDTO{
		CourierID:           s.CourierID.Bytes(),
		Balance:             s.Balance,
		MinimumBalance:      s.MinimumBalance,
		RatePercent:         s.RatePercent,
		IsSuspended:         s.IsSuspended,
		IsRevenueShare:      s.IsRevenueShare,
		LowBalanceThreshold: s.LowBalanceThreshold,
		LastSequence:        s.LastSequence,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

func accountToDomain(dto AccountDTO) (*commission.Account, error) {
	id, err := kernel.UUIDFromBytes(dto.CourierID[:])
	if err != nil {
		return nil, err
	}
	return commission.RestoreAccount(commission.Snapshot{
		CourierID:           id,
		Balance:             dto.Balance,
		MinimumBalance:      dto.MinimumBalance,
		RatePercent:         dto.RatePercent,
		IsSuspended:         dto.IsSuspended,
		IsRevenueShare:      dto.IsRevenueShare,
		LowBalanceThreshold: dto.LowBalanceThreshold,
		LastSequence:        dto.LastSequence,
		CreatedAt:           dto.CreatedAt,
		UpdatedAt:           dto.UpdatedAt,
	})
}

func transactionFromDomain(tx commission.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:            tx.ID.Bytes(),
		CourierID:     tx.CourierID.Bytes(),
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		BalanceBefore: tx.BalanceBefore,
		BalanceAfter:  tx.BalanceAfter,
		Sequence:      tx.Sequence,
		CreatedAt:     tx.CreatedAt.UTC(),
	}
	if tx.OrderID != nil {
		raw := tx.OrderID.Bytes()
		dto.OrderID = &raw
	}
	return dto
}

func transactionToDomain(dto TransactionDTO) (commission.Transaction, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return commission.Transaction{}, err
	}
	courier, err := kernel.UUIDFromBytes(dto.CourierID[:])
	if err != nil {
		return commission.Transaction{}, err
	}
	kind := commission.TransactionType(dto.Type)
	if err = kind.Validate(); err != nil {
		return commission.Transaction{}, err
	}

	tx := commission.Transaction{
		ID:            id,
		CourierID:     courier,
		Type:          kind,
		Amount:        dto.Amount,
		BalanceBefore: dto.BalanceBefore,
		BalanceAfter:  dto.BalanceAfter,
		Sequence:      dto.Sequence,
		CreatedAt:     dto.CreatedAt.UTC(),
	}
	if dto.OrderID != nil {
		oid, oidErr := kernel.UUIDFromBytes(dto.OrderID[:])
		if oidErr != nil {
			return commission.Transaction{}, oidErr
		}
		tx.OrderID = &oid
	}
	return tx, nil
}
