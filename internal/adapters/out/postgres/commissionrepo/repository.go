package commissionrepo

import (
	"context"
	"errors"

	"dispatch/internal/adapters/out/postgres/pgerr"
	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate kernel.EventRecorder)
}

// GormCommissionRepository implements ports.CommissionRepository using GORM.
type GormCommissionRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// NewGormCommissionRepository creates a repository on the transaction db.
// tracker collects accounts whose events are published on commit.
func NewGormCommissionRepository(db *gorm.DB, tracker aggregateTracker) *GormCommissionRepository {
	return &GormCommissionRepository{db: db, tracker: tracker}
}

// Add inserts a new account. A duplicate courier maps to
// commission.ErrAccountAlreadyExists.
func (r *GormCommissionRepository) Add(ctx context.Context, account *commission.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	dto := accountFromDomain(account)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if pgerr.IsUniqueViolation(err) {
			return commission.ErrAccountAlreadyExists
		}
		return err
	}

	r.tracker.TrackAggregate(account.CourierID(), account)
	return nil
}

// GetForUpdate reads the account with SELECT ... FOR UPDATE. Outside a
// transaction the lock is released immediately, so callers begin one first.
func (r *GormCommissionRepository) GetForUpdate(ctx context.Context, courierID kernel.UUID) (*commission.Account, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), courierID)
}

// Get reads an account without locking it.
func (r *GormCommissionRepository) Get(ctx context.Context, courierID kernel.UUID) (*commission.Account, error) {
	return r.get(r.db.WithContext(ctx), courierID)
}

func (r *GormCommissionRepository) get(query *gorm.DB, courierID kernel.UUID) (*commission.Account, error) {
	if err := courierID.Validate(); err != nil {
		return nil, err
	}

	var dto AccountDTO
	if err := query.First(&dto, "courier_id = ?", courierID.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("commission account", courierID.String())
		}
		return nil, err
	}
	return accountToDomain(dto)
}

// Update writes every column of the account. Callers hold the row lock from
// GetForUpdate.
func (r *GormCommissionRepository) Update(ctx context.Context, account *commission.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	dto := accountFromDomain(account)
	result := r.db.WithContext(ctx).
		Model(&AccountDTO{}).
		Where("courier_id = ?", dto.CourierID).
		Select("*").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("commission account", account.CourierID().String())
	}

	r.tracker.TrackAggregate(account.CourierID(), account)
	return nil
}

// AppendTransaction inserts a ledger line. A duplicate refund maps to
// commission.ErrAlreadyRefunded.
func (r *GormCommissionRepository) AppendTransaction(ctx context.Context, tx commission.Transaction) error {
	dto := transactionFromDomain(tx)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if tx.Type == commission.TransactionRefund && pgerr.IsUniqueViolation(err) {
			return commission.ErrAlreadyRefunded
		}
		return err
	}
	return nil
}

// FindOrderTransaction returns the line of the given type recorded for an
// order.
func (r *GormCommissionRepository) FindOrderTransaction(
	ctx context.Context,
	courierID, orderID kernel.UUID,
	kind commission.TransactionType,
) (*commission.Transaction, error) {
	var dto TransactionDTO
	err := r.db.WithContext(ctx).
		First(&dto, "courier_id = ? AND order_id = ? AND type = ?", courierID.Bytes(), orderID.Bytes(), string(kind)).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError(string(kind)+" transaction", orderID.String())
		}
		return nil, err
	}

	tx, err := transactionToDomain(dto)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListTransactions pages newest first and reports the total line count.
func (r *GormCommissionRepository) ListTransactions(
	ctx context.Context,
	courierID kernel.UUID,
	page, pageSize int,
) ([]commission.Transaction, int64, error) {
	base := r.db.WithContext(ctx).Model(&TransactionDTO{}).Where("courier_id = ?", courierID.Bytes())

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var dtos []TransactionDTO
	err := base.Session(&gorm.Session{}).
		Order("created_at DESC, sequence DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&dtos).Error
	if err != nil {
		return nil, 0, err
	}

	txs, err := transactionsToDomain(dtos)
	return txs, total, err
}

// AllTransactions returns the full ledger in replay order.
func (r *GormCommissionRepository) AllTransactions(ctx context.Context, courierID kernel.UUID) ([]commission.Transaction, error) {
	var dtos []TransactionDTO
	err := r.db.WithContext(ctx).
		Where("courier_id = ?", courierID.Bytes()).
		Order("created_at, sequence").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}
	return transactionsToDomain(dtos)
}

func transactionsToDomain(dtos []TransactionDTO) ([]commission.Transaction, error) {
	out := make([]commission.Transaction, 0, len(dtos))
	for _, dto := range dtos {
		tx, err := transactionToDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}
