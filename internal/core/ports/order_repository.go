// Package ports declares the interfaces the application core needs from the
// outside world: persistence, event publication, location storage, price
// estimation and outbound notifications.
package ports

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// ErrConcurrentModification is returned by a conditional update whose
// precondition no longer holds: another transaction changed the row first.
var ErrConcurrentModification = errors.New("concurrent modification")

// OrderRepository persists order aggregates. Orders are never deleted.
type OrderRepository interface {
	// Add inserts a new order.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update writes the aggregate only if the stored row still has the status
	// and version the aggregate was loaded with. Otherwise it returns
	// ErrConcurrentModification and writes nothing.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get returns errs.ErrObjectNotFound for unknown ids.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	OrderReader
}

// OrderReader holds the read-only queries over orders.
type OrderReader interface {
	// ListActiveByRequester returns the non-terminal orders of a requester,
	// oldest first.
	ListActiveByRequester(ctx context.Context, requesterID kernel.UUID) ([]*order.Order, error)

	// ListActiveByCourier returns the non-terminal orders assigned to a courier.
	ListActiveByCourier(ctx context.Context, courierID kernel.UUID) ([]*order.Order, error)

	// ListUnassignedPendingBefore returns pending orders without a courier
	// created strictly before the cutoff, oldest first, at most limit rows.
	ListUnassignedPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*order.Order, error)
}
