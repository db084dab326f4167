package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

// ErrReportLocationCommandIsNotConstructed is returned by Validate on a zero value.
var ErrReportLocationCommandIsNotConstructed = errors.New(
	"ReportLocationCommand must be created via NewReportLocationCommand constructor",
)

// ReportLocationCommand is a position update from the assigned courier.
type ReportLocationCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	courierID kernel.UUID
	point     kernel.GeoPoint

	guard guard.ConstructorGuard
}

// NewReportLocationCommand rejects coordinates outside the WGS84 range.
func NewReportLocationCommand(orderID, courierID kernel.UUID, lat, lng float64) (ReportLocationCommand, error) {
	cmd := ReportLocationCommand{guard: guard.NewConstructorGuard()}

	point, pointErr := kernel.NewGeoPoint(lat, lng)
	if err := errors.Join(
		requireID("order id", orderID, &cmd.orderID),
		requireID("courier id", courierID, &cmd.courierID),
		pointErr,
	); err != nil {
		return ReportLocationCommand{}, err
	}
	cmd.point = point
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ReportLocationCommand) Validate() error {
	return c.guard.Validate(ErrReportLocationCommandIsNotConstructed)
}

// OrderID returns the order being tracked.
func (c ReportLocationCommand) OrderID() kernel.UUID { return c.orderID }

// CourierID returns the reporting courier.
func (c ReportLocationCommand) CourierID() kernel.UUID { return c.courierID }

// Point returns the reported position.
func (c ReportLocationCommand) Point() kernel.GeoPoint { return c.point }
