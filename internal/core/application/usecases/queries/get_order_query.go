package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrGetOrderQueryIsNotConstructed is returned by Validate on a zero value.
var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery reads one order on behalf of an actor. Participants see
// their orders; anyone may see an unassigned pending order, which is how
// couriers inspect an offer before accepting it.
type GetOrderQuery struct {
	orderID kernel.UUID
	actorID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetOrderQuery requires both identifiers.
func NewGetOrderQuery(orderID, actorID kernel.UUID) (GetOrderQuery, error) {
	if orderID.Validate() != nil {
		return GetOrderQuery{}, errs.NewValueIsRequiredError("order id")
	}
	if actorID.Validate() != nil {
		return GetOrderQuery{}, errs.NewValueIsRequiredError("actor id")
	}
	return GetOrderQuery{orderID: orderID, actorID: actorID, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// OrderID returns the order to read.
func (q GetOrderQuery) OrderID() kernel.UUID { return q.orderID }

// ActorID returns who is reading.
func (q GetOrderQuery) ActorID() kernel.UUID { return q.actorID }

// OrderView is an order with the last position of its courier, if any.
type OrderView struct {
	Order    order.Snapshot
	Location *ports.CourierLocation
}
