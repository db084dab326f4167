package queries

import (
	"context"
	"sort"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// GetActiveOrdersQueryHandler builds the resync snapshot: the actor's
// non-terminal orders, oldest first, each with the last known position of
// its courier.
type GetActiveOrdersQueryHandler struct {
	orders    OrderFinder
	locations ports.LocationStore
}

// NewGetActiveOrdersQueryHandler creates the handler. locations may be nil, in
// which case views carry no position.
func NewGetActiveOrdersQueryHandler(orders OrderFinder, locations ports.LocationStore) GetActiveOrdersQueryHandler {
	return GetActiveOrdersQueryHandler{orders: orders, locations: locations}
}

// Handle merges the orders the actor requested with those it carries. An
// order appearing in both lists is returned once.
func (h GetActiveOrdersQueryHandler) Handle(ctx context.Context, query GetActiveOrdersQuery) ([]OrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	requested, err := h.orders.ListActiveByRequester(ctx, query.ActorID())
	if err != nil {
		return nil, err
	}
	carried, err := h.orders.ListActiveByCourier(ctx, query.ActorID())
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(requested)+len(carried))
	all := make([]*order.Order, 0, len(requested)+len(carried))
	for _, o := range append(requested, carried...) {
		key := o.ID().String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		all = append(all, o)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt().Before(all[j].CreatedAt())
	})

	views := make([]OrderView, 0, len(all))
	for _, o := range all {
		loc, locErr := lastLocation(ctx, h.locations, o.Courier())
		if locErr != nil {
			return nil, locErr
		}
		views = append(views, OrderView{Order: o.Snapshot(), Location: loc})
	}
	return views, nil
}
