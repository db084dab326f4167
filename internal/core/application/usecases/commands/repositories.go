// Package commands contains business operations that modify system state.
// Every handler follows the same shape: validate the command, open a unit of
// work, load aggregates, call domain methods, write through conditional
// updates and commit. Domain events leave the process only after commit.
package commands

import (
	"context"
	"time"

	"dispatch/internal/core/ports"
)

type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory exposes the order repository bound to the transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// ScanRepoFactory exposes the proof scan log bound to the transaction.
	ScanRepoFactory interface {
		ScanRepository() ports.ScanRepository
	}

	// CommissionRepoFactory exposes the ledger bound to the transaction.
	CommissionRepoFactory interface {
		CommissionRepository() ports.CommissionRepository
	}

	// OrderUoW manages transactions for order-only operations.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory opens a fresh OrderUoW per operation.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// CommissionUoW manages transactions for ledger-only operations.
	CommissionUoW interface {
		TxManager
		CommissionRepoFactory
	}

	// CommissionUoWFactory opens a fresh CommissionUoW per operation.
	CommissionUoWFactory interface {
		Create() CommissionUoW
	}

	// UoW spans orders, scans and the ledger. Used by assignment, which checks
	// eligibility, and by proof completion, which settles in the same
	// transaction.
	UoW interface {
		TxManager
		OrderRepoFactory
		ScanRepoFactory
		CommissionRepoFactory
	}

	// UoWFactory opens a fresh UoW per operation.
	UoWFactory interface {
		Create() UoW
	}
)

// Clock returns the current time. Handlers default to time.Now.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// FuncOrderUoWFactory adapts a constructor to OrderUoWFactory. Storage
// adapters return ports.UnitOfWork, which satisfies every segment.
type FuncOrderUoWFactory func() OrderUoW

// Create calls f.
func (f FuncOrderUoWFactory) Create() OrderUoW {
	return f()
}

// FuncCommissionUoWFactory adapts a constructor to CommissionUoWFactory.
type FuncCommissionUoWFactory func() CommissionUoW

// Create calls f.
func (f FuncCommissionUoWFactory) Create() CommissionUoW {
	return f()
}

// FuncUoWFactory adapts a constructor to UoWFactory.
type FuncUoWFactory func() UoW

// Create calls f.
func (f FuncUoWFactory) Create() UoW {
	return f()
}
