// Package scanrepo stores the proof-of-delivery scan audit trail. A partial
// unique index allows at most one valid scan per order and scanner.
package scanrepo

import (
	"context"
	"time"

	"dispatch/internal/adapters/out/postgres/pgerr"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/proof"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScanDTO is one row of the scan audit log. The partial unique index allows
// one valid scan per order and scanner and any number of rejected ones.
type ScanDTO struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID         uuid.UUID `gorm:"type:uuid;not null;index:idx_scans_order;uniqueIndex:idx_scan_valid_once,where:is_valid = true"`
	ScannedBy       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_scan_valid_once,where:is_valid = true"`
	ScannedAt       time.Time `gorm:"not null"`
	LocationLat     *float64
	LocationLng     *float64
	DeviceInfo      string
	IsValid         bool `gorm:"not null"`
	ValidationError string
	Signature       string `gorm:"type:varchar(64)"`
}

// TableName maps ScanDTO to delivery_scans.
func (ScanDTO) TableName() string {
	return "delivery_scans"
}

// GormScanRepository appends to and reads the scan audit log.
type GormScanRepository struct {
	db *gorm.DB
}

// NewGormScanRepository creates a repository on the transaction db.
func NewGormScanRepository(db *gorm.DB) *GormScanRepository {
	return &GormScanRepository{db: db}
}

// Add appends a scan. A second valid scan for the same order and scanner
// fails with proof.ErrAlreadyRedeemed.
func (r *GormScanRepository) Add(ctx context.Context, rec proof.ScanRecord) error {
	dto := fromDomain(rec)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if rec.IsValid && pgerr.IsUniqueViolation(err) {
			return proof.ErrAlreadyRedeemed
		}
		return err
	}
	return nil
}

// HasValidScan reports whether scannedBy already redeemed the order's token.
func (r *GormScanRepository) HasValidScan(ctx context.Context, orderID, scannedBy kernel.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&ScanDTO{}).
		Where("order_id = ? AND scanned_by = ? AND is_valid", orderID.Bytes(), scannedBy.Bytes()).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByOrder returns every attempt for an order in scan order.
func (r *GormScanRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]proof.ScanRecord, error) {
	var dtos []ScanDTO
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("scanned_at, id").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	out := make([]proof.ScanRecord, 0, len(dtos))
	for _, dto := range dtos {
		rec, convErr := toDomain(dto)
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, rec)
	}
	return out, nil
}

func fromDomain(rec proof.ScanRecord) ScanDTO {
	dto := ScanDTO{
		ID:              rec.ID.Bytes(),
		OrderID:         rec.OrderID.Bytes(),
		ScannedBy:       rec.ScannedBy.Bytes(),
		ScannedAt:       rec.ScannedAt.UTC(),
		DeviceInfo:      rec.DeviceInfo,
		IsValid:         rec.IsValid,
		ValidationError: rec.ValidationError,
		Signature:       rec.Signature,
	}
	if rec.Location != nil {
		lat, lng := rec.Location.Lat(), rec.Location.Lng()
		dto.LocationLat, dto.LocationLng = &lat, &lng
	}
	return dto
}

func toDomain(dto ScanDTO) (proof.ScanRecord, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return proof.ScanRecord{}, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return proof.ScanRecord{}, err
	}
	scannedBy, err := kernel.UUIDFromBytes(dto.ScannedBy[:])
	if err != nil {
		return proof.ScanRecord{}, err
	}

	rec := proof.ScanRecord{
		ID:              id,
		OrderID:         orderID,
		ScannedBy:       scannedBy,
		ScannedAt:       dto.ScannedAt.UTC(),
		DeviceInfo:      dto.DeviceInfo,
		IsValid:         dto.IsValid,
		ValidationError: dto.ValidationError,
		Signature:       dto.Signature,
	}
	if dto.LocationLat != nil && dto.LocationLng != nil {
		point, pointErr := kernel.NewGeoPoint(*dto.LocationLat, *dto.LocationLng)
		if pointErr != nil {
			return proof.ScanRecord{}, pointErr
		}
		rec.Location = &point
	}
	return rec, nil
}
