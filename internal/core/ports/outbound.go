package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// EventPublisher receives committed domain events.
type EventPublisher interface {
	Publish(ctx context.Context, events ...kernel.DomainEvent) error
}

// CourierLocation is the last position a courier reported.
type CourierLocation struct {
	CourierID kernel.UUID
	OrderID   kernel.UUID
	Point     kernel.GeoPoint
	At        time.Time
}

// LocationStore keeps the last known position per courier.
type LocationStore interface {
	Save(ctx context.Context, loc CourierLocation) error

	// Last returns errs.ErrObjectNotFound when nothing was reported.
	Last(ctx context.Context, courierID kernel.UUID) (CourierLocation, error)
}

// Estimator prices a route for a vehicle class.
type Estimator interface {
	Estimate(ctx context.Context, pickup, dropoff kernel.GeoPoint, method order.Method) (order.Quote, error)
}

// CourierBroadcaster offers a new pending order to the courier pool.
type CourierBroadcaster interface {
	BroadcastPending(ctx context.Context, o order.Snapshot) error
}

// LowBalanceNotifier tells a courier their prepaid balance needs a recharge.
type LowBalanceNotifier interface {
	NotifyLowBalance(ctx context.Context, ev commission.Event) error
}
