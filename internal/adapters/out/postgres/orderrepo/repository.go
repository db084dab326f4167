package orderrepo

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker collects written aggregates so their events can be
// published once the transaction commits.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate kernel.EventRecorder)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order and marks it persisted.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	aggregate.MarkPersisted()
	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update writes the aggregate if the row still carries the status and
// version it was read with.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND status = ? AND version = ?",
			dto.ID, aggregate.PersistedStatus().String(), aggregate.PersistedVersion()).
		Select("*").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var n int64
		if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", dto.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return errs.NewObjectNotFoundError("order", aggregate.ID().String())
		}
		return ports.ErrConcurrentModification
	}

	aggregate.MarkPersisted()
	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// ListActiveByRequester returns the requester's non-terminal orders, oldest
// first.
func (r *GormOrderRepository) ListActiveByRequester(ctx context.Context, requesterID kernel.UUID) ([]*order.Order, error) {
	return r.find(r.db.WithContext(ctx).
		Where("requester_id = ? AND status IN ?", requesterID.Bytes(), activeStatuses()).
		Order("created_at, id"))
}

// ListActiveByCourier returns the courier's non-terminal orders, oldest first.
func (r *GormOrderRepository) ListActiveByCourier(ctx context.Context, courierID kernel.UUID) ([]*order.Order, error) {
	return r.find(r.db.WithContext(ctx).
		Where("courier_id = ? AND status IN ?", courierID.Bytes(), activeStatuses()).
		Order("created_at, id"))
}

// ListUnassignedPendingBefore returns at most limit sweep candidates created
// before cutoff, oldest first.
func (r *GormOrderRepository) ListUnassignedPendingBefore(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) ([]*order.Order, error) {
	return r.find(r.db.WithContext(ctx).
		Where("status = ? AND courier_id IS NULL AND created_at < ?", order.Pending.String(), cutoff.UTC()).
		Order("created_at, id").
		Limit(limit))
}

func (r *GormOrderRepository) find(query *gorm.DB) ([]*order.Order, error) {
	var dtos []OrderDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

func activeStatuses() []string {
	active := order.ActiveStatuses()
	out := make([]string, 0, len(active))
	for _, s := range active {
		out = append(out, s.String())
	}
	return out
}
