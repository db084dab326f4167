package commands

import (
	"context"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// ReportLocationCommandHandler stores the courier's last position and pushes
// it to the requester. It never changes the order.
type ReportLocationCommandHandler struct {
	uowFactory OrderUoWFactory
	locations  ports.LocationStore
	publisher  ports.EventPublisher
	now        Clock
}

// NewReportLocationCommandHandler creates the handler. Positions go to
// locations; publisher forwards them to the requester.
func NewReportLocationCommandHandler(
	uowFactory OrderUoWFactory,
	locations ports.LocationStore,
	publisher ports.EventPublisher,
) ReportLocationCommandHandler {
	return ReportLocationCommandHandler{
		uowFactory: uowFactory,
		locations:  locations,
		publisher:  publisher,
		now:        systemClock,
	}
}

// WithClock replaces the time source.
func (h ReportLocationCommandHandler) WithClock(now Clock) ReportLocationCommandHandler {
	h.now = now
	return h
}

// Handle accepts positions from the assigned courier while the order is
// accepted or in physical handling. Other couriers get order.ErrUnauthorized.
func (h ReportLocationCommandHandler) Handle(ctx context.Context, cmd ReportLocationCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	o, err := h.uowFactory.Create().OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	if !o.IsCourier(cmd.CourierID()) {
		return order.ErrUnauthorized
	}
	if o.Status() != order.Accepted && !o.Status().IsPhysicalHandling() {
		return order.NewTransitionErrorWithReason(o.Status(), o.Status(), "location is only tracked while the order is active")
	}

	at := h.now()
	if err = h.locations.Save(ctx, ports.CourierLocation{
		CourierID: cmd.CourierID(),
		OrderID:   cmd.OrderID(),
		Point:     cmd.Point(),
		At:        at,
	}); err != nil {
		return err
	}

	return h.publisher.Publish(ctx, order.LocationReported{
		Order:     o.Snapshot(),
		CourierID: cmd.CourierID(),
		Point:     cmd.Point(),
		At:        at,
	})
}
