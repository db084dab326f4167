// Package memory is a process-local storage engine with the same concurrency
// contract as the PostgreSQL adapter: conditional order updates, row locks on
// ledger accounts held until the unit of work ends, and events published only
// after commit. It backs STORAGE=memory and the concurrency tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/proof"
)

// ErrNoTransaction is returned by writes issued before Begin.
var ErrNoTransaction = errors.New("memory: write outside a transaction")

type rowKey struct {
	table string
	id    kernel.UUID
}

// Store holds committed state. Writers buffer their changes in a UnitOfWork
// and apply them under mu at commit.
type Store struct {
	mu         sync.Mutex
	orders     map[kernel.UUID]order.Snapshot
	references map[order.Reference]kernel.UUID
	scans      []proof.ScanRecord
	accounts   map[kernel.UUID]commission.Snapshot
	ledger     map[kernel.UUID][]commission.Transaction
	locks      map[rowKey]chan struct{}
}

// NewStore returns an empty store. Share one Store between all factories of a
// process.
func NewStore() *Store {
	return &Store{
		orders:     make(map[kernel.UUID]order.Snapshot),
		references: make(map[order.Reference]kernel.UUID),
		accounts:   make(map[kernel.UUID]commission.Snapshot),
		ledger:     make(map[kernel.UUID][]commission.Transaction),
		locks:      make(map[rowKey]chan struct{}),
	}
}

func (s *Store) rowLock(key rowKey) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

// acquire blocks until the row lock is free or ctx ends.
func (s *Store) acquire(ctx context.Context, key rowKey) (chan struct{}, error) {
	ch := s.rowLock(key)
	select {
	case ch <- struct{}{}:
		return ch, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
