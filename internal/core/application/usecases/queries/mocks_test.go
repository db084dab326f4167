package queries_test

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockOrderFinder struct{ mock.Mock }

func (m *MockOrderFinder) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderFinder) ListActiveByRequester(ctx context.Context, id kernel.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, id)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

func (m *MockOrderFinder) ListActiveByCourier(ctx context.Context, id kernel.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, id)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

func (m *MockOrderFinder) ListUnassignedPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, cutoff, limit)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

type MockCommissionReader struct{ mock.Mock }

func (m *MockCommissionReader) Get(ctx context.Context, id kernel.UUID) (*commission.Account, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*commission.Account)
	return a, args.Error(1)
}

func (m *MockCommissionReader) ListTransactions(
	ctx context.Context,
	id kernel.UUID,
	page, pageSize int,
) ([]commission.Transaction, int64, error) {
	args := m.Called(ctx, id, page, pageSize)
	txs, _ := args.Get(0).([]commission.Transaction)
	return txs, args.Get(1).(int64), args.Error(2)
}

func (m *MockCommissionReader) AllTransactions(ctx context.Context, id kernel.UUID) ([]commission.Transaction, error) {
	args := m.Called(ctx, id)
	txs, _ := args.Get(0).([]commission.Transaction)
	return txs, args.Error(1)
}

type MockLocationStore struct{ mock.Mock }

func (m *MockLocationStore) Save(ctx context.Context, loc ports.CourierLocation) error {
	return m.Called(ctx, loc).Error(0)
}

func (m *MockLocationStore) Last(ctx context.Context, id kernel.UUID) (ports.CourierLocation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ports.CourierLocation), args.Error(1)
}
