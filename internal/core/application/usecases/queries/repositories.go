// Package queries contains the read side. Handlers never open a transaction:
// they read committed state through the repository read ports, so the same
// handlers serve both storage engines.
package queries

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

type (
	// OrderFinder is the read surface of the order store.
	OrderFinder interface {
		Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
		ports.OrderReader
	}
)

// lastLocation returns nil when the courier never reported a position.
func lastLocation(ctx context.Context, store ports.LocationStore, courierID *kernel.UUID) (*ports.CourierLocation, error) {
	if courierID == nil || store == nil {
		return nil, nil //nolint:nilnil // no position is not an error
	}
	loc, err := store.Last(ctx, *courierID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, nil //nolint:nilnil // no position is not an error
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}
