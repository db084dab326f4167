package memory

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/proof"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// UnitOfWorkFactory hands out units of work over one Store.
type UnitOfWorkFactory struct {
	store     *Store
	publisher ports.EventPublisher
	logger    *slog.Logger
}

// NewUnitOfWorkFactory publishes committed events to publisher, which may be
// nil.
func NewUnitOfWorkFactory(store *Store, publisher ports.EventPublisher, logger *slog.Logger) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		store:     store,
		publisher: publisher,
		logger:    logger.With("component", "memory-uow"),
	}
}

// Create returns an inactive unit of work; call Begin before writing.
func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{
		store:     f.store,
		publisher: f.publisher,
		logger:    f.logger,
	}
}

type orderWrite struct {
	snapshot order.Snapshot
	insert   bool
}

// UnitOfWork buffers writes until Commit. Locks taken by Update and
// GetForUpdate are held until Commit or Rollback.
type UnitOfWork struct {
	store     *Store
	publisher ports.EventPublisher
	logger    *slog.Logger

	active   bool
	held     map[rowKey]chan struct{}
	orders   map[kernel.UUID]orderWrite
	scans    []proof.ScanRecord
	accounts map[kernel.UUID]commission.Snapshot
	inserted map[kernel.UUID]bool
	ledger   []commission.Transaction
	tracked  []kernel.EventRecorder
}

// Begin is a no-op on an active unit of work.
func (uow *UnitOfWork) Begin(_ context.Context) error {
	if uow.active {
		return nil
	}
	uow.active = true
	uow.held = make(map[rowKey]chan struct{})
	uow.orders = make(map[kernel.UUID]orderWrite)
	uow.accounts = make(map[kernel.UUID]commission.Snapshot)
	uow.inserted = make(map[kernel.UUID]bool)
	uow.scans = nil
	uow.ledger = nil
	uow.tracked = nil
	return nil
}

// Commit validates the buffered inserts against committed state, applies
// every write atomically, releases the locks and publishes events.
func (uow *UnitOfWork) Commit(ctx context.Context) error {
	if !uow.active {
		return ErrNoTransaction
	}
	defer uow.end()

	s := uow.store
	s.mu.Lock()
	if err := uow.checkLocked(); err != nil {
		s.mu.Unlock()
		uow.discardEvents()
		return err
	}
	for id, w := range uow.orders {
		s.orders[id] = w.snapshot
		if w.insert {
			s.references[w.snapshot.Reference] = id
		}
	}
	s.scans = append(s.scans, uow.scans...)
	for id, a := range uow.accounts {
		s.accounts[id] = a
	}
	for _, tx := range uow.ledger {
		s.ledger[tx.CourierID] = append(s.ledger[tx.CourierID], tx)
	}
	s.mu.Unlock()

	uow.publishTracked(ctx)
	return nil
}

// Rollback drops buffered writes and events and releases the locks.
func (uow *UnitOfWork) Rollback(_ context.Context) error {
	if !uow.active {
		return ErrNoTransaction
	}
	uow.discardEvents()
	uow.end()
	return nil
}

// OrderRepository returns a repository bound to this unit of work.
func (uow *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &orderRepository{uow: uow}
}

// ScanRepository returns a repository bound to this unit of work.
func (uow *UnitOfWork) ScanRepository() ports.ScanRepository {
	return &scanRepository{uow: uow}
}

// CommissionRepository returns a repository bound to this unit of work.
func (uow *UnitOfWork) CommissionRepository() ports.CommissionRepository {
	return &commissionRepository{uow: uow}
}

func (uow *UnitOfWork) end() {
	for _, ch := range uow.held {
		<-ch
	}
	uow.active = false
	uow.held = nil
	uow.orders = nil
	uow.accounts = nil
	uow.inserted = nil
	uow.scans = nil
	uow.ledger = nil
	uow.tracked = nil
}

// lock takes the row lock once per unit of work.
func (uow *UnitOfWork) lock(ctx context.Context, key rowKey) error {
	if _, ok := uow.held[key]; ok {
		return nil
	}
	ch, err := uow.store.acquire(ctx, key)
	if err != nil {
		return err
	}
	uow.held[key] = ch
	return nil
}

func (uow *UnitOfWork) track(aggregate kernel.EventRecorder) {
	uow.tracked = append(uow.tracked, aggregate)
}

// checkLocked enforces the unique constraints. The caller holds store.mu.
func (uow *UnitOfWork) checkLocked() error {
	s := uow.store
	for id, w := range uow.orders {
		if !w.insert {
			continue
		}
		if _, exists := s.orders[id]; exists {
			return errs.NewValueIsInvalidError("order id already exists")
		}
		if _, exists := s.references[w.snapshot.Reference]; exists {
			return errs.NewValueIsInvalidError("order reference already exists")
		}
	}
	for id := range uow.inserted {
		if _, exists := s.accounts[id]; exists {
			return commission.ErrAccountAlreadyExists
		}
	}
	for i, rec := range uow.scans {
		if rec.IsValid && (s.hasValidScanLocked(rec.OrderID, rec.ScannedBy) || hasValidScan(uow.scans[:i], rec.OrderID, rec.ScannedBy)) {
			return proof.ErrAlreadyRedeemed
		}
	}
	for i, tx := range uow.ledger {
		if tx.OrderID == nil {
			continue
		}
		if s.findOrderTxLocked(tx.CourierID, *tx.OrderID, tx.Type) != nil || findOrderTx(uow.ledger[:i], tx.CourierID, *tx.OrderID, tx.Type) != nil {
			if tx.Type == commission.TransactionRefund {
				return commission.ErrAlreadyRefunded
			}
			return errs.NewValueIsInvalidError("order transaction already recorded")
		}
	}
	return nil
}

func (uow *UnitOfWork) discardEvents() {
	for _, a := range uow.tracked {
		a.ClearDomainEvents()
	}
}

func (uow *UnitOfWork) publishTracked(ctx context.Context) {
	seen := make(map[kernel.EventRecorder]struct{}, len(uow.tracked))
	var events []kernel.DomainEvent
	for _, a := range uow.tracked {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		events = append(events, a.DomainEvents()...)
		a.ClearDomainEvents()
	}
	if len(events) == 0 || uow.publisher == nil {
		return
	}
	if err := uow.publisher.Publish(ctx, events...); err != nil {
		uow.logger.ErrorContext(ctx, "failed to publish committed events",
			"count", len(events),
			"error", err,
		)
	}
}
