package memory

import (
	"context"
	"sort"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

const ordersTable = "orders"

type orderRepository struct {
	uow *UnitOfWork
}

// Add rejects an id that already exists.
func (r *orderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if !r.uow.active {
		return ErrNoTransaction
	}
	id := aggregate.ID()
	if err := r.uow.lock(ctx, rowKey{table: ordersTable, id: id}); err != nil {
		return err
	}
	if _, ok := r.lookup(id); ok {
		return errs.NewValueIsInvalidError("order id already exists")
	}

	r.uow.orders[id] = orderWrite{snapshot: aggregate.Snapshot(), insert: true}
	aggregate.MarkPersisted()
	r.uow.track(aggregate)
	return nil
}

// Update waits for the row lock, then applies the same status and version
// precondition as the SQL adapter.
func (r *orderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if !r.uow.active {
		return ErrNoTransaction
	}
	id := aggregate.ID()
	if err := r.uow.lock(ctx, rowKey{table: ordersTable, id: id}); err != nil {
		return err
	}

	current, ok := r.lookup(id)
	if !ok {
		return errs.NewObjectNotFoundError("order", id.String())
	}
	if current.Status != aggregate.PersistedStatus() || current.Version != aggregate.PersistedVersion() {
		return ports.ErrConcurrentModification
	}

	insert := r.uow.orders[id].insert
	r.uow.orders[id] = orderWrite{snapshot: aggregate.Snapshot(), insert: insert}
	aggregate.MarkPersisted()
	r.uow.track(aggregate)
	return nil
}

func (r *orderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	s, ok := r.lookup(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return order.RestoreOrder(s)
}

func (r *orderRepository) ListActiveByRequester(_ context.Context, requesterID kernel.UUID) ([]*order.Order, error) {
	return r.filter(func(s order.Snapshot) bool {
		return s.RequesterID == requesterID && !s.Status.IsTerminal()
	}, 0)
}

func (r *orderRepository) ListActiveByCourier(_ context.Context, courierID kernel.UUID) ([]*order.Order, error) {
	return r.filter(func(s order.Snapshot) bool {
		return s.CourierID != nil && *s.CourierID == courierID && !s.Status.IsTerminal()
	}, 0)
}

// ListUnassignedPendingBefore returns sweep candidates, oldest first.
func (r *orderRepository) ListUnassignedPendingBefore(_ context.Context, cutoff time.Time, limit int) ([]*order.Order, error) {
	return r.filter(func(s order.Snapshot) bool {
		return s.Status == order.Pending && s.CourierID == nil && s.CreatedAt.Before(cutoff)
	}, limit)
}

// lookup prefers this unit of work's pending write over committed state.
func (r *orderRepository) lookup(id kernel.UUID) (order.Snapshot, bool) {
	if w, ok := r.uow.orders[id]; ok {
		return w.snapshot, true
	}
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	s, ok := r.uow.store.orders[id]
	return s, ok
}

func (r *orderRepository) filter(match func(order.Snapshot) bool, limit int) ([]*order.Order, error) {
	merged := make(map[kernel.UUID]order.Snapshot)
	r.uow.store.mu.Lock()
	for id, s := range r.uow.store.orders {
		merged[id] = s
	}
	r.uow.store.mu.Unlock()
	for id, w := range r.uow.orders {
		merged[id] = w.snapshot
	}

	snaps := make([]order.Snapshot, 0, len(merged))
	for _, s := range merged {
		if match(s) {
			snaps = append(snaps, s)
		}
	}
	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
		}
		return snaps[i].ID.String() < snaps[j].ID.String()
	})
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}

	orders := make([]*order.Order, 0, len(snaps))
	for _, s := range snaps {
		o, err := order.RestoreOrder(s)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}
