package order

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// EventKind names what happened to an order.
type EventKind string

const (
	EventCreated       EventKind = "order.created"
	EventAccepted      EventKind = "order.accepted"
	EventStatusChanged EventKind = "order.status_changed"
	EventCancelled     EventKind = "order.cancelled"
	EventDeclined      EventKind = "order.declined"
	EventCompleted     EventKind = "order.completed"
)

// Event carries the full order view at the moment of the change, so a
// subscriber never has to merge partial updates.
type Event struct {
	Kind  EventKind
	Order Snapshot
	Actor *kernel.UUID
	At    time.Time
}

var _ kernel.DomainEvent = Event{}

// EventName returns the kind, which doubles as the routing key.
func (e Event) EventName() string {
	return string(e.Kind)
}

// OccurredAt returns when the transition happened.
func (e Event) OccurredAt() time.Time {
	return e.At
}

// LocationReported is raised when the assigned courier sends a position. It
// does not change the order, so it carries the current version unchanged.
type LocationReported struct {
	Order     Snapshot
	CourierID kernel.UUID
	Point     kernel.GeoPoint
	At        time.Time
}

var _ kernel.DomainEvent = LocationReported{}

// EventName is the routing key of position updates.
func (e LocationReported) EventName() string {
	return "order.location_reported"
}

// OccurredAt returns when the position was received.
func (e LocationReported) OccurredAt() time.Time {
	return e.At
}
