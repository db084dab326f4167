package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

// ErrAdvanceOrderCommandIsNotConstructed is returned by Validate on a zero value.
var ErrAdvanceOrderCommandIsNotConstructed = errors.New(
	"AdvanceOrderCommand must be created via NewAdvanceOrderCommand constructor",
)

// AdvanceOrderCommand moves an order along the transition table on behalf of
// a participant. Cancellation is an advance to order.Cancelled.
type AdvanceOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	actorID kernel.UUID
	target  order.Status
	reason  string

	guard guard.ConstructorGuard
}

// NewAdvanceOrderCommand parses target as an order status. Whether the move is
// allowed is decided by the order itself.
func NewAdvanceOrderCommand(orderID, actorID kernel.UUID, target string, reason string) (AdvanceOrderCommand, error) {
	cmd := AdvanceOrderCommand{
		reason: strings.TrimSpace(reason),
		guard:  guard.NewConstructorGuard(),
	}

	status, statusErr := order.ParseStatus(target)
	if err := errors.Join(
		requireID("order id", orderID, &cmd.orderID),
		requireID("actor id", actorID, &cmd.actorID),
		statusErr,
	); err != nil {
		return AdvanceOrderCommand{}, err
	}
	cmd.target = status
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c AdvanceOrderCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceOrderCommandIsNotConstructed)
}

// OrderID returns the order to move.
func (c AdvanceOrderCommand) OrderID() kernel.UUID { return c.orderID }

// ActorID returns the participant requesting the move.
func (c AdvanceOrderCommand) ActorID() kernel.UUID { return c.actorID }

// Target returns the requested status.
func (c AdvanceOrderCommand) Target() order.Status { return c.target }

// Reason is only kept for cancellations.
func (c AdvanceOrderCommand) Reason() string { return c.reason }
