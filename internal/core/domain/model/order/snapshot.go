package order

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// Snapshot is the flat, read-only view of an Order. It is what persistence
// adapters store, what sync messages carry and what RestoreOrder rebuilds from.
type Snapshot struct {
	ID               kernel.UUID
	Reference        Reference
	RequesterID      kernel.UUID
	CourierID        *kernel.UUID
	Pickup           kernel.Address
	Dropoff          kernel.Address
	Method           Method
	PriceAmount      int64
	DistanceKm       float64
	EstimatedMinutes int
	Status           Status
	Payment          Payment
	RecipientName    string
	RecipientPhone   string
	ProofSignature   string
	CancelledBy      *kernel.UUID
	CancelReason     string
	Version          int64
	CreatedAt        time.Time
	AcceptedAt       *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
}

// Snapshot copies the order state. Pointer fields are cloned.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:               o.id,
		Reference:        o.reference,
		RequesterID:      o.requesterID,
		CourierID:        cloneUUID(o.courierID),
		Pickup:           o.pickup,
		Dropoff:          o.dropoff,
		Method:           o.method,
		PriceAmount:      o.priceAmount,
		DistanceKm:       o.distanceKm,
		EstimatedMinutes: o.estimatedMinutes,
		Status:           o.status,
		Payment:          o.payment,
		RecipientName:    o.recipientName,
		RecipientPhone:   o.recipientPhone,
		ProofSignature:   o.proofSignature,
		CancelledBy:      cloneUUID(o.cancelledBy),
		CancelReason:     o.cancelReason,
		Version:          o.version,
		CreatedAt:        o.createdAt,
		AcceptedAt:       cloneTime(o.acceptedAt),
		CompletedAt:      cloneTime(o.completedAt),
		CancelledAt:      cloneTime(o.cancelledAt),
	}
}

func cloneUUID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
