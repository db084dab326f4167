package commands_test

import (
	"context"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/proof"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) ListActiveByRequester(ctx context.Context, id kernel.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, id)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

func (m *MockOrderRepository) ListActiveByCourier(ctx context.Context, id kernel.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, id)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

func (m *MockOrderRepository) ListUnassignedPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, cutoff, limit)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

type MockScanRepository struct{ mock.Mock }

func (m *MockScanRepository) Add(ctx context.Context, rec proof.ScanRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockScanRepository) HasValidScan(ctx context.Context, orderID, scannedBy kernel.UUID) (bool, error) {
	args := m.Called(ctx, orderID, scannedBy)
	return args.Bool(0), args.Error(1)
}

func (m *MockScanRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]proof.ScanRecord, error) {
	args := m.Called(ctx, orderID)
	recs, _ := args.Get(0).([]proof.ScanRecord)
	return recs, args.Error(1)
}

type MockCommissionRepository struct{ mock.Mock }

func (m *MockCommissionRepository) Add(ctx context.Context, a *commission.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockCommissionRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*commission.Account, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*commission.Account)
	return a, args.Error(1)
}

func (m *MockCommissionRepository) Get(ctx context.Context, id kernel.UUID) (*commission.Account, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*commission.Account)
	return a, args.Error(1)
}

func (m *MockCommissionRepository) Update(ctx context.Context, a *commission.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockCommissionRepository) AppendTransaction(ctx context.Context, tx commission.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockCommissionRepository) FindOrderTransaction(
	ctx context.Context,
	courierID, orderID kernel.UUID,
	kind commission.TransactionType,
) (*commission.Transaction, error) {
	args := m.Called(ctx, courierID, orderID, kind)
	tx, _ := args.Get(0).(*commission.Transaction)
	return tx, args.Error(1)
}

func (m *MockCommissionRepository) ListTransactions(
	ctx context.Context,
	id kernel.UUID,
	page, pageSize int,
) ([]commission.Transaction, int64, error) {
	args := m.Called(ctx, id, page, pageSize)
	txs, _ := args.Get(0).([]commission.Transaction)
	return txs, args.Get(1).(int64), args.Error(2)
}

func (m *MockCommissionRepository) AllTransactions(ctx context.Context, id kernel.UUID) ([]commission.Transaction, error) {
	args := m.Called(ctx, id)
	txs, _ := args.Get(0).([]commission.Transaction)
	return txs, args.Error(1)
}

// MockUoW satisfies every unit-of-work shape the handlers ask for.
type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error    { return m.Called(ctx).Error(0) }
func (m *MockUoW) Commit(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *MockUoW) Rollback(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	return m.Called().Get(0).(ports.OrderRepository)
}

func (m *MockUoW) ScanRepository() ports.ScanRepository {
	return m.Called().Get(0).(ports.ScanRepository)
}

func (m *MockUoW) CommissionRepository() ports.CommissionRepository {
	return m.Called().Get(0).(ports.CommissionRepository)
}

// MockUoWFactory hands out the queued units of work in order.
type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	return m.Called().Get(0).(commands.UoW)
}

type orderFactory struct{ *MockUoWFactory }

func (f orderFactory) Create() commands.OrderUoW { return f.MockUoWFactory.Create() }

type commissionFactory struct{ *MockUoWFactory }

func (f commissionFactory) Create() commands.CommissionUoW { return f.MockUoWFactory.Create() }

type MockEstimator struct{ mock.Mock }

func (m *MockEstimator) Estimate(ctx context.Context, pickup, dropoff kernel.GeoPoint, method order.Method) (order.Quote, error) {
	args := m.Called(ctx, pickup, dropoff, method)
	return args.Get(0).(order.Quote), args.Error(1)
}

type MockLocationStore struct{ mock.Mock }

func (m *MockLocationStore) Save(ctx context.Context, loc ports.CourierLocation) error {
	return m.Called(ctx, loc).Error(0)
}

func (m *MockLocationStore) Last(ctx context.Context, id kernel.UUID) (ports.CourierLocation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ports.CourierLocation), args.Error(1)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, events ...kernel.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}
