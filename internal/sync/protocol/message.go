// Package protocol defines the JSON messages exchanged over the sync channel
// and the mapping from committed domain events to those messages.
//
// Every message is a flat envelope: {"type": ..., "orderId": ..., ...payload}.
// Order-scoped messages carry the order version so receivers can discard
// anything older than what they already applied.
package protocol

import (
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/proof"
)

// Type discriminates the envelope.
type Type string

const (
	// server -> client
	TypeOrderCreated         Type = "order-created"
	TypeOrderAccepted        Type = "order-accepted"
	TypeDeliveryStatusUpdate Type = "delivery-status-update"
	TypeNoDriversAvailable   Type = "no-drivers-available"
	TypeOrderError           Type = "order-error"
	TypeResyncSnapshot       Type = "resync-snapshot"
	TypeCreateOrderAck       Type = "create-order-ack"

	// client -> server
	TypeResyncRequest Type = "resync-request"
	TypeCreateOrder   Type = "create-order"
)

// Envelope is the single message shape. Fields irrelevant to a type are
// omitted from the JSON.
type Envelope struct {
	Type    Type   `json:"type"`
	OrderID string `json:"orderId,omitempty"`
	Version int64  `json:"version,omitempty"`

	Order    *Order    `json:"order,omitempty"`
	Courier  *Courier  `json:"courier,omitempty"`
	Status   string    `json:"status,omitempty"`
	Location *Location `json:"location,omitempty"`
	Reason   string    `json:"reason,omitempty"`

	// resync-snapshot
	Orders    []Order    `json:"orders,omitempty"`
	Locations []Location `json:"locations,omitempty"`

	// resync-request and create-order
	RequesterID string       `json:"requesterId,omitempty"`
	RequestID   string       `json:"requestId,omitempty"`
	CreateOrder *CreateOrder `json:"createOrder,omitempty"`

	// create-order-ack; Token is only set on a successful ack, which goes to
	// the requester alone.
	Success *bool        `json:"success,omitempty"`
	Token   *proof.Token `json:"token,omitempty"`
}

// Redacted is the form offered to couriers reached by a broadcast. Until a
// courier accepts, it sees the route and the price but not who is sending or
// receiving the parcel.
func (e Envelope) Redacted() Envelope {
	if e.Order == nil {
		return e
	}
	o := *e.Order
	o.RequesterID = ""
	o.RecipientName = ""
	o.RecipientPhone = ""
	e.Order = &o
	e.RequesterID = ""
	return e
}

// IsOrderScoped reports whether the envelope describes one order revision and
// is subject to version ordering.
func (e Envelope) IsOrderScoped() bool {
	return e.OrderID != "" && e.Version > 0
}

// Address is an address with its coordinate.
type Address struct {
	Text string  `json:"address"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Courier identifies the courier who accepted an order.
type Courier struct {
	ID string `json:"id"`
}

// Location is the last reported position of a courier on an order.
type Location struct {
	CourierID string    `json:"courierId"`
	OrderID   string    `json:"orderId,omitempty"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	At        time.Time `json:"at"`
}

// Order is the wire form of an order record.
type Order struct {
	ID               string     `json:"id"`
	Reference        string     `json:"reference"`
	RequesterID      string     `json:"requesterId,omitempty"`
	CourierID        string     `json:"courierId,omitempty"`
	Pickup           Address    `json:"pickup"`
	Dropoff          Address    `json:"dropoff"`
	Method           string     `json:"method"`
	PriceAmount      int64      `json:"priceAmount"`
	DistanceKm       float64    `json:"distanceKm"`
	EstimatedMinutes int        `json:"estimatedMinutes"`
	Status           string     `json:"status"`
	PaymentStatus    string     `json:"paymentStatus"`
	IsPartialPayment bool       `json:"isPartialPayment"`
	PartialAmount    *int64     `json:"partialAmount,omitempty"`
	RemainingAmount  *int64     `json:"remainingAmount,omitempty"`
	PayerType        string     `json:"payerType"`
	RecipientName    string     `json:"recipientName,omitempty"`
	RecipientPhone   string     `json:"recipientPhone,omitempty"`
	Proof            string     `json:"proof,omitempty"`
	CancelReason     string     `json:"cancelReason,omitempty"`
	Version          int64      `json:"version"`
	CreatedAt        time.Time  `json:"createdAt"`
	AcceptedAt       *time.Time `json:"acceptedAt,omitempty"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	CancelledAt      *time.Time `json:"cancelledAt,omitempty"`
}

// IsTerminal reports whether the order reached completed, cancelled or
// declined. Unknown statuses are treated as live.
func (o Order) IsTerminal() bool {
	s, err := order.ParseStatus(o.Status)
	return err == nil && s.IsTerminal()
}

// CreateOrder is the payload of a create-order request.
type CreateOrder struct {
	Pickup         Address `json:"pickup"`
	Dropoff        Address `json:"dropoff"`
	Method         string  `json:"method"`
	RecipientName  string  `json:"recipientName"`
	RecipientPhone string  `json:"recipientPhone"`
	IssuerName     string  `json:"issuerName"`
	PayerType      string  `json:"payerType"`
	PartialAmount  *int64  `json:"partialAmount,omitempty"`
}

// FromSnapshot converts a committed order to its wire form. Nothing is
// redacted here; Envelope.Redacted strips personal data for broadcasts.
func FromSnapshot(s order.Snapshot) Order {
	o := Order{
		ID:               s.ID.String(),
		Reference:        s.Reference.String(),
		RequesterID:      s.RequesterID.String(),
		Pickup:           fromAddress(s.Pickup.Text(), s.Pickup.Point().Lat(), s.Pickup.Point().Lng()),
		Dropoff:          fromAddress(s.Dropoff.Text(), s.Dropoff.Point().Lat(), s.Dropoff.Point().Lng()),
		Method:           s.Method.String(),
		PriceAmount:      s.PriceAmount,
		DistanceKm:       s.DistanceKm,
		EstimatedMinutes: s.EstimatedMinutes,
		Status:           s.Status.String(),
		PaymentStatus:    string(s.Payment.Status),
		IsPartialPayment: s.Payment.IsPartial,
		PartialAmount:    s.Payment.PartialAmount,
		RemainingAmount:  s.Payment.RemainingAmount,
		PayerType:        string(s.Payment.PayerType),
		RecipientName:    s.RecipientName,
		RecipientPhone:   s.RecipientPhone,
		Proof:            s.ProofSignature,
		CancelReason:     s.CancelReason,
		Version:          s.Version,
		CreatedAt:        s.CreatedAt.UTC(),
		AcceptedAt:       s.AcceptedAt,
		CompletedAt:      s.CompletedAt,
		CancelledAt:      s.CancelledAt,
	}
	if s.CourierID != nil {
		o.CourierID = s.CourierID.String()
	}
	return o
}

func fromAddress(text string, lat, lng float64) Address {
	return Address{Text: text, Lat: lat, Lng: lng}
}

// OrderError reports a rejected client action on one order. It is not order
// scoped and bypasses version ordering.
func OrderError(orderID, reason string) Envelope {
	return Envelope{Type: TypeOrderError, OrderID: orderID, Reason: reason}
}

// CreateOrderAck confirms a create-order request. It carries the proof token
// the requester shows the courier at hand-off; the server keeps no copy.
func CreateOrderAck(requestID, orderID string, token proof.Token) Envelope {
	ok := true
	return Envelope{Type: TypeCreateOrderAck, RequestID: requestID, OrderID: orderID, Success: &ok, Token: &token}
}

// CreateOrderFailed rejects a create-order request with a client-safe reason.
func CreateOrderFailed(requestID, reason string) Envelope {
	ok := false
	return Envelope{Type: TypeCreateOrderAck, RequestID: requestID, Success: &ok, Reason: reason}
}

// ResyncSnapshot lists the actor's active orders with the last positions of
// their couriers. Receivers replace their whole local state with it.
func ResyncSnapshot(orders []Order, locations []Location) Envelope {
	if orders == nil {
		orders = []Order{}
	}
	return Envelope{Type: TypeResyncSnapshot, Orders: orders, Locations: locations}
}
