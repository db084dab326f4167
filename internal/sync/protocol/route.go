package protocol

import (
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// Audience names who should receive an outbound message.
type Audience struct {
	RequesterID string `json:"requesterId,omitempty"`
	CourierID   string `json:"courierId,omitempty"`
	// AllCouriers also offers the message to every connected courier.
	AllCouriers bool `json:"allCouriers,omitempty"`
}

// Outbound is a message with its audience. It is also the payload carried
// between instances on the shared event bus.
type Outbound struct {
	Envelope Envelope `json:"envelope"`
	Audience Audience `json:"audience"`
}

// Route maps a committed domain event to the message clients see. Events
// without a client-facing form report false.
func Route(ev kernel.DomainEvent) (Outbound, bool) {
	switch e := ev.(type) {
	case order.Event:
		return routeOrderEvent(e)
	case order.LocationReported:
		snap := e.Order
		return Outbound{
			Envelope: Envelope{
				Type:    TypeDeliveryStatusUpdate,
				OrderID: snap.ID.String(),
				Version: snap.Version,
				Status:  snap.Status.String(),
				Location: &Location{
					CourierID: e.CourierID.String(),
					OrderID:   snap.ID.String(),
					Lat:       e.Point.Lat(),
					Lng:       e.Point.Lng(),
					At:        e.At.UTC(),
				},
			},
			Audience: audienceOf(snap),
		}, true
	default:
		return Outbound{}, false
	}
}

func routeOrderEvent(e order.Event) (Outbound, bool) {
	snap := e.Order
	wire := FromSnapshot(snap)
	env := Envelope{
		OrderID: wire.ID,
		Version: wire.Version,
		Status:  wire.Status,
		Order:   &wire,
	}
	audience := audienceOf(snap)

	switch e.Kind {
	case order.EventCreated:
		env.Type = TypeOrderCreated
		audience.AllCouriers = true
	case order.EventAccepted:
		env.Type = TypeOrderAccepted
		env.Courier = &Courier{ID: wire.CourierID}
	case order.EventStatusChanged, order.EventCompleted, order.EventCancelled:
		env.Type = TypeDeliveryStatusUpdate
		env.Reason = snap.CancelReason
	case order.EventDeclined:
		env.Type = TypeNoDriversAvailable
		env.Reason = snap.CancelReason
	default:
		return Outbound{}, false
	}
	return Outbound{Envelope: env, Audience: audience}, true
}

func audienceOf(s order.Snapshot) Audience {
	a := Audience{RequesterID: s.RequesterID.String()}
	if s.CourierID != nil {
		a.CourierID = s.CourierID.String()
	}
	return a
}

// Includes reports whether the actor with the given id and courier flag is
// part of the audience.
func (a Audience) Includes(actorID string, isCourier bool) bool {
	if a.IsParticipant(actorID) {
		return true
	}
	return actorID != "" && a.AllCouriers && isCourier
}

// IsParticipant reports whether the actor is the order's requester or its
// assigned courier, as opposed to a courier reached by the broadcast.
func (a Audience) IsParticipant(actorID string) bool {
	return actorID != "" && (actorID == a.RequesterID || actorID == a.CourierID)
}
