package commission

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// EventKind names a threshold crossing.
type EventKind string

const (
	EventLowBalance EventKind = "commission.low_balance"
	EventSuspended  EventKind = "commission.suspended"
	EventReinstated EventKind = "commission.reinstated"
)

// Event signals a threshold crossing after a balance change.
type Event struct {
	Kind      EventKind
	CourierID kernel.UUID
	Balance   int64
	Threshold int64
	At        time.Time
}

var _ kernel.DomainEvent = Event{}

// EventName returns the kind, which doubles as the routing key.
func (e Event) EventName() string { return string(e.Kind) }

// OccurredAt returns when the balance changed.
func (e Event) OccurredAt() time.Time { return e.At }
