// Package postgres provides the GORM implementation of the unit of work.
//
// A unit of work wraps one database transaction. Repositories obtained from it
// run inside that transaction once Begin was called, and against the plain
// connection otherwise, which is what read-only callers use.
//
// Aggregates written through the repositories are tracked. After a successful
// Commit their domain events are handed to the EventPublisher in write order;
// on Rollback they are dropped. Events therefore never describe state that was
// not committed.
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() { _ = uow.Rollback(ctx) }()
//
//	if err := uow.OrderRepository().Update(ctx, o); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx)
package postgres

import (
	"context"
	"log/slog"

	"dispatch/internal/adapters/out/postgres/commissionrepo"
	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/adapters/out/postgres/scanrepo"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"gorm.io/gorm"
)

type trackedAggregate struct {
	ID        kernel.UUID
	Aggregate kernel.EventRecorder
}

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one connection
// pool and one event publisher.
type GormUnitOfWorkFactory struct {
	db        *gorm.DB
	publisher ports.EventPublisher
	logger    *slog.Logger
}

// NewGormUnitOfWorkFactory creates a factory over db. Committed events go to
// publisher.
func NewGormUnitOfWorkFactory(db *gorm.DB, publisher ports.EventPublisher, logger *slog.Logger) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{
		db:        db,
		publisher: publisher,
		logger:    logger.With("component", "postgres-uow"),
	}
}

// Create returns a fresh unit of work; nothing is opened until Begin.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		publisher:         f.publisher,
		logger:            f.logger,
		trackedAggregates: make([]trackedAggregate, 0),
	}
}

// GormUnitOfWork is not safe for concurrent use; each operation creates its
// own.
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	publisher         ports.EventPublisher
	logger            *slog.Logger
	trackedAggregates []trackedAggregate
}

// Begin starts the transaction. A second call is a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	return nil
}

// Commit ends the transaction and publishes the events of the tracked
// aggregates. A publication failure is logged, not returned: the state change
// is already durable and clients recover through resync.
func (uow *GormUnitOfWork) Commit(ctx context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	if err != nil {
		uow.trackedAggregates = uow.trackedAggregates[:0]
		return err
	}

	uow.publishTracked(ctx)
	return nil
}

// Rollback discards the transaction. After Commit it returns
// gorm.ErrInvalidTransaction, which deferred rollbacks ignore.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	for _, tracked := range uow.trackedAggregates {
		tracked.Aggregate.ClearDomainEvents()
	}
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return err
}

// OrderRepository returns a repository bound to the open transaction, or to
// the plain connection before Begin.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn(), uow)
}

// ScanRepository returns a scan repository bound like OrderRepository.
func (uow *GormUnitOfWork) ScanRepository() ports.ScanRepository {
	return scanrepo.NewGormScanRepository(uow.conn())
}

// CommissionRepository returns a ledger repository bound like OrderRepository.
func (uow *GormUnitOfWork) CommissionRepository() ports.CommissionRepository {
	return commissionrepo.NewGormCommissionRepository(uow.conn(), uow)
}

// TrackAggregate registers an aggregate written in this unit of work.
func (uow *GormUnitOfWork) TrackAggregate(id kernel.UUID, aggregate kernel.EventRecorder) {
	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:        id,
		Aggregate: aggregate,
	})
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}

func (uow *GormUnitOfWork) publishTracked(ctx context.Context) {
	events := drainEvents(uow.trackedAggregates)
	uow.trackedAggregates = uow.trackedAggregates[:0]
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

// drainEvents collects and clears the pending events of every tracked
// aggregate once, in tracking order.
func drainEvents(tracked []trackedAggregate) []kernel.DomainEvent {
	seen := make(map[kernel.EventRecorder]struct{}, len(tracked))
	var events []kernel.DomainEvent
	for _, t := range tracked {
		if _, dup := seen[t.Aggregate]; dup {
			continue
		}
		seen[t.Aggregate] = struct{}{}
		events = append(events, t.Aggregate.DomainEvents()...)
		t.Aggregate.ClearDomainEvents()
	}
	return events
}
