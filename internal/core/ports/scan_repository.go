package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/proof"
)

// ScanRepository is the append-only store of redemption attempts.
type ScanRepository interface {
	// Add appends a record. A second valid record for the same order and
	// scanner fails with proof.ErrAlreadyRedeemed.
	Add(ctx context.Context, record proof.ScanRecord) error

	HasValidScan(ctx context.Context, orderID, scannedBy kernel.UUID) (bool, error)

	ListByOrder(ctx context.Context, orderID kernel.UUID) ([]proof.ScanRecord, error)
}
