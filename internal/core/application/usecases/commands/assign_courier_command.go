package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrAssignCourierCommandIsNotConstructed is returned by Validate on a zero value.
var ErrAssignCourierCommandIsNotConstructed = errors.New(
	"AssignCourierCommand must be created via NewAssignCourierCommand constructor",
)

// AssignCourierCommand is a courier accepting a pending order.
type AssignCourierCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	courierID kernel.UUID

	guard guard.ConstructorGuard
}

// NewAssignCourierCommand requires both identifiers.
func NewAssignCourierCommand(orderID, courierID kernel.UUID) (AssignCourierCommand, error) {
	cmd := AssignCourierCommand{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		requireID("order id", orderID, &cmd.orderID),
		requireID("courier id", courierID, &cmd.courierID),
	); err != nil {
		return AssignCourierCommand{}, err
	}
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c AssignCourierCommand) Validate() error {
	return c.guard.Validate(ErrAssignCourierCommandIsNotConstructed)
}

// OrderID returns the order being claimed.
func (c AssignCourierCommand) OrderID() kernel.UUID { return c.orderID }

// CourierID returns the courier claiming it.
func (c AssignCourierCommand) CourierID() kernel.UUID { return c.courierID }

func requireID(name string, id kernel.UUID, dst *kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredError(name)
	}
	*dst = id
	return nil
}
