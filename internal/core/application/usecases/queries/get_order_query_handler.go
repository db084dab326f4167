package queries

import (
	"context"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// GetOrderQueryHandler reads a single order with access control.
type GetOrderQueryHandler struct {
	orders    OrderFinder
	locations ports.LocationStore
}

// NewGetOrderQueryHandler creates the handler. locations may be nil.
func NewGetOrderQueryHandler(orders OrderFinder, locations ports.LocationStore) GetOrderQueryHandler {
	return GetOrderQueryHandler{orders: orders, locations: locations}
}

// Handle returns order.ErrUnauthorized to non-participants once the order
// left the open pool. Terminal orders are returned without a position.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (OrderView, error) {
	if err := query.Validate(); err != nil {
		return OrderView{}, err
	}

	o, err := h.orders.Get(ctx, query.OrderID())
	if err != nil {
		return OrderView{}, err
	}

	offered := o.Status() == order.Pending && o.Courier() == nil
	if !offered && !o.IsParticipant(query.ActorID()) {
		return OrderView{}, order.ErrUnauthorized
	}

	view := OrderView{Order: o.Snapshot()}
	if o.IsTerminal() {
		return view, nil
	}
	if view.Location, err = lastLocation(ctx, h.locations, o.Courier()); err != nil {
		return OrderView{}, err
	}
	return view, nil
}
