package kernel

import "time"

// DomainEvent is a fact recorded by an aggregate during a command. Events are
// collected by the unit of work and published only after the transaction
// commits.
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// EventRecorder is implemented by aggregates that raise domain events.
type EventRecorder interface {
	DomainEvents() []DomainEvent
	ClearDomainEvents()
}
