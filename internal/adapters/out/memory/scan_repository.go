package memory

import (
	"context"
	"sort"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/proof"
)

type scanRepository struct {
	uow *UnitOfWork
}

// Add rejects a second valid scan by the same courier with
// proof.ErrAlreadyRedeemed. Rejected scans are always appended.
func (r *scanRepository) Add(ctx context.Context, rec proof.ScanRecord) error {
	if !r.uow.active {
		return ErrNoTransaction
	}
	if rec.IsValid {
		has, _ := r.HasValidScan(ctx, rec.OrderID, rec.ScannedBy)
		if has {
			return proof.ErrAlreadyRedeemed
		}
	}
	r.uow.scans = append(r.uow.scans, rec)
	return nil
}

// HasValidScan sees this unit of work's pending scans too.
func (r *scanRepository) HasValidScan(_ context.Context, orderID, scannedBy kernel.UUID) (bool, error) {
	if hasValidScan(r.uow.scans, orderID, scannedBy) {
		return true, nil
	}
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	return r.uow.store.hasValidScanLocked(orderID, scannedBy), nil
}

func (r *scanRepository) ListByOrder(_ context.Context, orderID kernel.UUID) ([]proof.ScanRecord, error) {
	var out []proof.ScanRecord
	r.uow.store.mu.Lock()
	for _, rec := range r.uow.store.scans {
		if rec.OrderID == orderID {
			out = append(out, rec)
		}
	}
	r.uow.store.mu.Unlock()
	for _, rec := range r.uow.scans {
		if rec.OrderID == orderID {
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScannedAt.Before(out[j].ScannedAt)
	})
	return out, nil
}

func (s *Store) hasValidScanLocked(orderID, scannedBy kernel.UUID) bool {
	return hasValidScan(s.scans, orderID, scannedBy)
}

func hasValidScan(scans []proof.ScanRecord, orderID, scannedBy kernel.UUID) bool {
	for _, rec := range scans {
		if rec.IsValid && rec.OrderID == orderID && rec.ScannedBy == scannedBy {
			return true
		}
	}
	return false
}
