package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// Order is the aggregate root of the delivery lifecycle. Every mutation goes
// through a method that checks the transition table, bumps the version and
// records a domain event carrying the full order view.
//
// Invariants:
//   - courierID is set exactly when status requires a courier (cancelled may go either way)
//   - acceptedAt is set iff a courier was ever assigned
//   - completedAt is set iff status is Completed
//   - a terminal order never changes again
type Order struct {
	id               kernel.UUID
	reference        Reference
	requesterID      kernel.UUID
	courierID        *kernel.UUID
	pickup           kernel.Address
	dropoff          kernel.Address
	method           Method
	priceAmount      int64
	distanceKm       float64
	estimatedMinutes int
	status           Status
	payment          Payment
	recipientName    string
	recipientPhone   string
	proofSignature   string
	cancelledBy      *kernel.UUID
	cancelReason     string
	version          int64
	createdAt        time.Time
	acceptedAt       *time.Time
	completedAt      *time.Time
	cancelledAt      *time.Time

	// persistedStatus and persistedVersion hold the row state the aggregate was
	// loaded from. Repositories use them as the compare-and-swap guard.
	persistedStatus  Status
	persistedVersion int64

	events        []kernel.DomainEvent
	isConstructed bool
}

// Quote is the price estimate attached to an order at creation.
type Quote struct {
	PriceAmount      int64
	DistanceKm       float64
	EstimatedMinutes int
}

// NewOrderParams groups the inputs of NewOrder.
type NewOrderParams struct {
	ID             kernel.UUID
	Reference      Reference
	RequesterID    kernel.UUID
	Pickup         kernel.Address
	Dropoff        kernel.Address
	Method         Method
	Quote          Quote
	Payment        Payment
	RecipientName  string
	RecipientPhone string
	CreatedAt      time.Time
}

// NewOrder creates a pending order and records EventCreated.
func NewOrder(p NewOrderParams) (*Order, error) {
	o := &Order{
		status:        Pending,
		version:       1,
		createdAt:     p.CreatedAt.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(p.ID),
		o.setReference(p.Reference),
		o.setRequester(p.RequesterID),
		o.setRoute(p.Pickup, p.Dropoff),
		o.setMethod(p.Method),
		o.setQuote(p.Quote),
		o.setPayment(p.Payment),
		o.setRecipient(p.RecipientName, p.RecipientPhone),
	); err != nil {
		return nil, err
	}

	o.record(EventCreated, nil, o.createdAt)
	return o, nil
}

// RestoreOrder rebuilds an order from persisted state without recording
// events. The snapshot must satisfy the same invariants as a live order.
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{
		courierID:        cloneUUID(s.CourierID),
		status:           s.Status,
		proofSignature:   s.ProofSignature,
		cancelledBy:      cloneUUID(s.CancelledBy),
		cancelReason:     s.CancelReason,
		version:          s.Version,
		createdAt:        s.CreatedAt.UTC(),
		acceptedAt:       cloneTime(s.AcceptedAt),
		completedAt:      cloneTime(s.CompletedAt),
		cancelledAt:      cloneTime(s.CancelledAt),
		persistedStatus:  s.Status,
		persistedVersion: s.Version,
		isConstructed:    true,
	}

	err := errors.Join(
		o.setID(s.ID),
		o.setReference(s.Reference),
		o.setRequester(s.RequesterID),
		o.setRoute(s.Pickup, s.Dropoff),
		o.setMethod(s.Method),
		o.setQuote(Quote{PriceAmount: s.PriceAmount, DistanceKm: s.DistanceKm, EstimatedMinutes: s.EstimatedMinutes}),
		o.setPayment(s.Payment),
		o.setRecipient(s.RecipientName, s.RecipientPhone),
		s.Status.Validate(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.Status.ValidateCanHaveCourier(s.CourierID != nil); err != nil {
		return nil, err
	}
	if s.Version < 1 {
		return nil, errs.NewVersionIsInvalidError("order version")
	}
	if (s.Status == Completed) != (s.CompletedAt != nil) {
		return nil, errs.NewValueIsInvalidErrorWithCause("completedAt is invalid", fmt.Errorf("status %s with completedAt=%v", s.Status, s.CompletedAt))
	}

	return o, nil
}

// Validate reports ErrOrderIsNotConstructed for orders not built by NewOrder
// or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares orders by identity.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID { return o.id }

// Reference returns the short human-readable order number.
func (o *Order) Reference() Reference { return o.reference }

// RequesterID returns the customer who placed the order.
func (o *Order) RequesterID() kernel.UUID { return o.requesterID }

// Pickup returns where the courier collects the parcel.
func (o *Order) Pickup() kernel.Address { return o.pickup }

// Dropoff returns where the parcel is delivered.
func (o *Order) Dropoff() kernel.Address { return o.dropoff }

// Method returns the delivery method.
func (o *Order) Method() Method { return o.method }

// PriceAmount returns the quoted price in minor units.
func (o *Order) PriceAmount() int64 { return o.priceAmount }

// DistanceKm returns the quoted route length.
func (o *Order) DistanceKm() float64 { return o.distanceKm }

// EstimatedMinutes returns the quoted travel time.
func (o *Order) EstimatedMinutes() int { return o.estimatedMinutes }

// Status returns the current lifecycle state.
func (o *Order) Status() Status { return o.status }

// Payment returns the payment attached to the order.
func (o *Order) Payment() Payment { return o.payment }

// RecipientName returns who receives the parcel.
func (o *Order) RecipientName() string { return o.recipientName }

// RecipientPhone returns the recipient's contact number.
func (o *Order) RecipientPhone() string { return o.recipientPhone }

// ProofSignature returns the redeemed proof token signature, empty until
// completion.
func (o *Order) ProofSignature() string { return o.proofSignature }

// CancelReason is empty unless the order was cancelled or declined.
func (o *Order) CancelReason() string { return o.cancelReason }

// Version increases by one with every state change.
func (o *Order) Version() int64 { return o.version }

// CreatedAt returns when the order was placed.
func (o *Order) CreatedAt() time.Time { return o.createdAt }

// AcceptedAt returns nil until a courier is assigned.
func (o *Order) AcceptedAt() *time.Time { return cloneTime(o.acceptedAt) }

// CompletedAt returns nil until the order is completed.
func (o *Order) CompletedAt() *time.Time { return cloneTime(o.completedAt) }

// CancelledAt returns nil unless the order was cancelled or declined.
func (o *Order) CancelledAt() *time.Time { return cloneTime(o.cancelledAt) }

// CancelledBy returns nil for cancellations made by the dispatcher.
func (o *Order) CancelledBy() *kernel.UUID { return cloneUUID(o.cancelledBy) }

// PersistedStatus is the status last written to storage.
func (o *Order) PersistedStatus() Status { return o.persistedStatus }

// PersistedVersion is the version last written to storage. Repositories use it
// as the compare-and-swap guard.
func (o *Order) PersistedVersion() int64 { return o.persistedVersion }

// IsTerminal reports whether the order can no longer change.
func (o *Order) IsTerminal() bool { return o.status.IsTerminal() }

// Courier returns the assigned courier, or nil if none is assigned.
func (o *Order) Courier() *kernel.UUID { return cloneUUID(o.courierID) }

// IsCourier reports whether id is the assigned courier.
func (o *Order) IsCourier(id kernel.UUID) bool {
	return o.courierID != nil && o.courierID.IsEqual(id)
}

// IsParticipant reports whether id is the requester or the assigned courier.
func (o *Order) IsParticipant(id kernel.UUID) bool {
	return o.requesterID.IsEqual(id) || o.IsCourier(id)
}

// Assign moves a pending order to Accepted with the given courier.
// A second courier gets ErrAlreadyAssigned; any other non-pending state gets
// an InvalidTransition.
func (o *Order) Assign(courierID kernel.UUID, now time.Time) error {
	if err := courierID.Validate(); err != nil {
		return err
	}

	if o.courierID != nil && !o.status.IsTerminal() {
		return ErrAlreadyAssigned
	}
	if err := o.status.CanTransitionTo(Accepted); err != nil {
		return err
	}

	at := now.UTC()
	o.status = Accepted
	o.courierID = &courierID
	o.acceptedAt = &at
	o.record(EventAccepted, &courierID, at)
	return nil
}

// Advance performs a participant-driven transition: the physical handling
// steps for the assigned courier, and cancellation for either participant.
// Accepted, Declined and Completed have dedicated entry points and are
// rejected here.
func (o *Order) Advance(target Status, actorID kernel.UUID, now time.Time) error {
	if o.status.IsTerminal() {
		return NewTransitionError(o.status, target)
	}

	//nolint:exhaustive // remaining targets are checked against the table below
	switch target {
	case Accepted:
		return NewTransitionErrorWithReason(o.status, target, "a courier must be assigned")
	case Completed:
		return NewTransitionErrorWithReason(o.status, target, "requires proof of delivery")
	case Declined:
		return NewTransitionErrorWithReason(o.status, target, "only the dispatcher may decline")
	case Cancelled:
		return o.Cancel(actorID, "", now)
	}

	if err := o.status.CanTransitionTo(target); err != nil {
		return err
	}
	if !o.IsCourier(actorID) {
		return ErrUnauthorized
	}

	o.status = target
	o.record(EventStatusChanged, &actorID, now.UTC())
	return nil
}

// Cancel is available to the requester and the assigned courier until pickup.
func (o *Order) Cancel(actorID kernel.UUID, reason string, now time.Time) error {
	if err := o.status.CanTransitionTo(Cancelled); err != nil {
		return err
	}
	if !o.IsParticipant(actorID) {
		return ErrUnauthorized
	}

	at := now.UTC()
	by := actorID
	o.status = Cancelled
	o.cancelledBy = &by
	o.cancelledAt = &at
	o.cancelReason = strings.TrimSpace(reason)
	o.cancelPayment()
	o.record(EventCancelled, &by, at)
	return nil
}

// Expire is the dispatcher-side exit for orders nobody accepted. The target is
// Declined when the broadcast went unanswered and Cancelled when the order
// went stale.
func (o *Order) Expire(target Status, reason string, now time.Time) error {
	if target != Cancelled && target != Declined {
		return NewTransitionErrorWithReason(o.status, target, "orders can only expire to cancelled or declined")
	}
	if o.status != Pending || o.courierID != nil {
		return NewTransitionErrorWithReason(o.status, target, "only unassigned pending orders expire")
	}

	at := now.UTC()
	o.status = target
	o.cancelledAt = &at
	o.cancelReason = reason
	o.cancelPayment()

	kind := EventCancelled
	if target == Declined {
		kind = EventDeclined
	}
	o.record(kind, nil, at)
	return nil
}

// Complete closes a delivering order. The caller must have redeemed a valid
// proof-of-delivery token; signature is its reference.
func (o *Order) Complete(courierID kernel.UUID, signature string, now time.Time) error {
	if err := o.status.CanTransitionTo(Completed); err != nil {
		return err
	}
	if !o.IsCourier(courierID) {
		return ErrUnauthorized
	}
	if signature == "" {
		return errs.NewValueIsRequiredError("proof signature")
	}

	at := now.UTC()
	o.status = Completed
	o.completedAt = &at
	o.proofSignature = signature
	o.record(EventCompleted, &courierID, at)
	return nil
}

// DomainEvents returns the events recorded since the last ClearDomainEvents.
func (o *Order) DomainEvents() []kernel.DomainEvent {
	out := make([]kernel.DomainEvent, len(o.events))
	copy(out, o.events)
	return out
}

// ClearDomainEvents drops the recorded events once they were published.
func (o *Order) ClearDomainEvents() {
	o.events = nil
}

// MarkPersisted moves the compare-and-swap guard to the current state after a
// successful write.
func (o *Order) MarkPersisted() {
	o.persistedStatus = o.status
	o.persistedVersion = o.version
}

func (o *Order) record(kind EventKind, actor *kernel.UUID, at time.Time) {
	if kind != EventCreated {
		o.version++
	}
	o.events = append(o.events, Event{
		Kind:  kind,
		Order: o.Snapshot(),
		Actor: cloneUUID(actor),
		At:    at,
	})
}

func (o *Order) cancelPayment() {
	if o.payment.Status == PaymentPending {
		o.payment.Status = PaymentCancelled
	}
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setReference(ref Reference) error {
	if _, err := ParseReference(string(ref)); err != nil {
		return err
	}
	o.reference = ref
	return nil
}

func (o *Order) setRequester(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredError("requester id")
	}
	o.requesterID = id
	return nil
}

func (o *Order) setRoute(pickup, dropoff kernel.Address) error {
	if err := errors.Join(pickup.Validate(), dropoff.Validate()); err != nil {
		return err
	}
	o.pickup = pickup
	o.dropoff = dropoff
	return nil
}

func (o *Order) setMethod(m Method) error {
	if err := m.Validate(); err != nil {
		return err
	}
	o.method = m
	return nil
}

func (o *Order) setQuote(q Quote) error {
	if q.PriceAmount <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("price is invalid", fmt.Errorf("%d is not greater than 0", q.PriceAmount))
	}
	if q.DistanceKm < 0 || q.EstimatedMinutes < 0 {
		return errs.NewValueIsInvalidErrorWithCause("estimate is invalid", fmt.Errorf("distance %.3f km, %d minutes", q.DistanceKm, q.EstimatedMinutes))
	}
	o.priceAmount = q.PriceAmount
	o.distanceKm = q.DistanceKm
	o.estimatedMinutes = q.EstimatedMinutes
	return nil
}

func (o *Order) setPayment(p Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	o.payment = p
	return nil
}

func (o *Order) setRecipient(name, phone string) error {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	var err error
	if name == "" {
		err = errors.Join(err, errs.NewValueIsRequiredError("recipient name"))
	}
	if phone == "" {
		err = errors.Join(err, errs.NewValueIsRequiredError("recipient phone"))
	}
	if err != nil {
		return err
	}
	o.recipientName = name
	o.recipientPhone = phone
	return nil
}
