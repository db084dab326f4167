package proof

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// ScanRecord is the append-only audit row written for every redemption
// attempt, valid or not.
type ScanRecord struct {
	ID              kernel.UUID
	OrderID         kernel.UUID
	ScannedBy       kernel.UUID
	ScannedAt       time.Time
	Location        *kernel.GeoPoint
	DeviceInfo      string
	IsValid         bool
	ValidationError string
	Signature       string
}

// ScanContext is what the scanning device reports alongside the token.
type ScanContext struct {
	Location   *kernel.GeoPoint
	DeviceInfo string
}

// NewValidScan records the redemption that completed an order.
func NewValidScan(orderID, scannedBy kernel.UUID, token Token, sc ScanContext, at time.Time) ScanRecord {
	return ScanRecord{
		ID:         kernel.NewUUID(),
		OrderID:    orderID,
		ScannedBy:  scannedBy,
		ScannedAt:  at.UTC(),
		Location:   sc.Location,
		DeviceInfo: sc.DeviceInfo,
		IsValid:    true,
		Signature:  token.Signature,
	}
}

// NewRejectedScan records a failed attempt; reason is a wire code such as
// ReasonCode returns.
func NewRejectedScan(orderID, scannedBy kernel.UUID, token Token, sc ScanContext, at time.Time, reason string) ScanRecord {
	return ScanRecord{
		ID:              kernel.NewUUID(),
		OrderID:         orderID,
		ScannedBy:       scannedBy,
		ScannedAt:       at.UTC(),
		Location:        sc.Location,
		DeviceInfo:      sc.DeviceInfo,
		IsValid:         false,
		ValidationError: reason,
		Signature:       token.Signature,
	}
}
