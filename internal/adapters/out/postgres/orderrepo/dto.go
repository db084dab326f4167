// Package orderrepo persists order aggregates with GORM. Every update is a
// compare-and-swap on the status and version the aggregate was loaded with.
package orderrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the row of the orders table.
type OrderDTO struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Reference        string     `gorm:"type:varchar(16);uniqueIndex;not null"`
	RequesterID      uuid.UUID  `gorm:"type:uuid;index;not null"`
	CourierID        *uuid.UUID `gorm:"type:uuid;index"`
	Pickup           AddressDTO `gorm:"embedded;embeddedPrefix:pickup_"`
	Dropoff          AddressDTO `gorm:"embedded;embeddedPrefix:dropoff_"`
	Method           string     `gorm:"type:varchar(16);not null"`
	PriceAmount      int64      `gorm:"not null"`
	DistanceKm       float64    `gorm:"not null"`
	EstimatedMinutes int        `gorm:"not null"`
	Status           string     `gorm:"type:varchar(16);index:idx_orders_status_created,priority:1;not null"`
	Payment          PaymentDTO `gorm:"embedded;embeddedPrefix:payment_"`
	RecipientName    string     `gorm:"not null"`
	RecipientPhone   string     `gorm:"not null"`
	ProofSignature   string
	CancelledBy      *uuid.UUID `gorm:"type:uuid"`
	CancelReason     string
	Version          int64     `gorm:"not null"`
	CreatedAt        time.Time `gorm:"index:idx_orders_status_created,priority:2;not null"`
	AcceptedAt       *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
}

// TableName maps OrderDTO to orders.
func (OrderDTO) TableName() string {
	return "orders"
}

// AddressDTO is embedded with a pickup_ or dropoff_ column prefix.
type AddressDTO struct {
	Text string  `gorm:"not null"`
	Lat  float64 `gorm:"not null"`
	Lng  float64 `gorm:"not null"`
}

// PaymentDTO is embedded with a payment_ column prefix.
type PaymentDTO struct {
	Status          string `gorm:"type:varchar(16);not null"`
	IsPartial       bool   `gorm:"not null"`
	PartialAmount   *int64
	RemainingAmount *int64
	PayerType       string `gorm:"type:varchar(16);not null"`
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()
	return OrderDTO{
		ID:               s.ID.Bytes(),
		Reference:        s.Reference.String(),
		RequesterID:      s.RequesterID.Bytes(),
		CourierID:        rawUUID(s.CourierID),
		Pickup:           addressDTO(s.Pickup),
		Dropoff:          addressDTO(s.Dropoff),
		Method:           s.Method.String(),
		PriceAmount:      s.PriceAmount,
		DistanceKm:       s.DistanceKm,
		EstimatedMinutes: s.EstimatedMinutes,
		Status:           s.Status.String(),
		Payment: PaymentDTO{
			Status:          string(s.Payment.Status),
			IsPartial:       s.Payment.IsPartial,
			PartialAmount:   s.Payment.PartialAmount,
			RemainingAmount: s.Payment.RemainingAmount,
			PayerType:       string(s.Payment.PayerType),
		},
		RecipientName:  s.RecipientName,
		RecipientPhone: s.RecipientPhone,
		ProofSignature: s.ProofSignature,
		CancelledBy:    rawUUID(s.CancelledBy),
		CancelReason:   s.CancelReason,
		Version:        s.Version,
		CreatedAt:      s.CreatedAt,
		AcceptedAt:     s.AcceptedAt,
		CompletedAt:    s.CompletedAt,
		CancelledAt:    s.CancelledAt,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	requester, err := kernel.UUIDFromBytes(dto.RequesterID[:])
	if err != nil {
		return nil, err
	}
	courier, err := domainUUID(dto.CourierID)
	if err != nil {
		return nil, err
	}
	cancelledBy, err := domainUUID(dto.CancelledBy)
	if err != nil {
		return nil, err
	}
	pickup, err := dto.Pickup.toDomain()
	if err != nil {
		return nil, err
	}
	dropoff, err := dto.Dropoff.toDomain()
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(order.Snapshot{
		ID:               id,
		Reference:        order.Reference(dto.Reference),
		RequesterID:      requester,
		CourierID:        courier,
		Pickup:           pickup,
		Dropoff:          dropoff,
		Method:           order.Method(dto.Method),
		PriceAmount:      dto.PriceAmount,
		DistanceKm:       dto.DistanceKm,
		EstimatedMinutes: dto.EstimatedMinutes,
		Status:           status,
		Payment: order.Payment{
			Status:          order.PaymentStatus(dto.Payment.Status),
			IsPartial:       dto.Payment.IsPartial,
			PartialAmount:   dto.Payment.PartialAmount,
			RemainingAmount: dto.Payment.RemainingAmount,
			PayerType:       order.PayerType(dto.Payment.PayerType),
		},
		RecipientName:  dto.RecipientName,
		RecipientPhone: dto.RecipientPhone,
		ProofSignature: dto.ProofSignature,
		CancelledBy:    cancelledBy,
		CancelReason:   dto.CancelReason,
		Version:        dto.Version,
		CreatedAt:      dto.CreatedAt,
		AcceptedAt:     utc(dto.AcceptedAt),
		CompletedAt:    utc(dto.CompletedAt),
		CancelledAt:    utc(dto.CancelledAt),
	})
}

func addressDTO(a kernel.Address) AddressDTO {
	return AddressDTO{Text: a.Text(), Lat: a.Point().Lat(), Lng: a.Point().Lng()}
}

func (a AddressDTO) toDomain() (kernel.Address, error) {
	point, err := kernel.NewGeoPoint(a.Lat, a.Lng)
	if err != nil {
		return kernel.Address{}, err
	}
	return kernel.NewAddress(a.Text, point)
}

func rawUUID(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func domainUUID(raw *uuid.UUID) (*kernel.UUID, error) {
	if raw == nil {
		return nil, nil //nolint:nilnil // absent reference
	}
	id, err := kernel.UUIDFromBytes(raw[:])
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
