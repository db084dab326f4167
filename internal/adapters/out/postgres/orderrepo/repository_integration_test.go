package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/adapters/out/postgres/pgtest"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/order/ordertest"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate kernel.EventRecorder) {
	m.Called(id, aggregate)
}

type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	database   *pgtest.Database
	repository *orderrepo.GormOrderRepository
	tracker    *MockAggregateTracker
	now        time.Time
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	database, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.database = database
	suite.now = time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.database.Truncate())
	suite.tracker = new(MockAggregateTracker)
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything).Maybe()
	suite.repository = orderrepo.NewGormOrderRepository(suite.database.DB, suite.tracker)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.database != nil {
		suite.Require().NoError(suite.database.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_ThenGet_RoundTripsEveryField() {
	ctx := context.Background()
	o := ordertest.Pending(suite.T(), kernel.NewUUID(), suite.now)

	suite.Require().NoError(suite.repository.Add(ctx, o))
	suite.tracker.AssertCalled(suite.T(), "TrackAggregate", o.ID(), o)

	got, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)

	want := o.Snapshot()
	have := got.Snapshot()
	suite.Equal(want.Reference, have.Reference)
	suite.Equal(want.Pickup.Text(), have.Pickup.Text())
	suite.InDelta(want.Dropoff.Point().Lat(), have.Dropoff.Point().Lat(), 1e-9)
	suite.Equal(want.Payment.Status, have.Payment.Status)
	suite.Equal(order.Pending, have.Status)
	suite.Equal(int64(1), have.Version)
	suite.True(want.CreatedAt.Equal(have.CreatedAt))
	suite.Empty(got.DomainEvents())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_UnknownOrder_ReturnsNotFound() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_StaleCopy_ReturnsConcurrentModification() {
	ctx := context.Background()
	o := ordertest.Pending(suite.T(), kernel.NewUUID(), suite.now)
	suite.Require().NoError(suite.repository.Add(ctx, o))

	first, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	second, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)

	winner, loser := kernel.NewUUID(), kernel.NewUUID()
	suite.Require().NoError(first.Assign(winner, suite.now))
	suite.Require().NoError(suite.repository.Update(ctx, first))

	suite.Require().NoError(second.Assign(loser, suite.now))
	err = suite.repository.Update(ctx, second)
	suite.Require().ErrorIs(err, ports.ErrConcurrentModification)

	stored, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(winner, *stored.Courier())
	suite.Equal(int64(2), stored.Version())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_SequentialWritesOnSameAggregate() {
	ctx := context.Background()
	courier := kernel.NewUUID()
	o := ordertest.Pending(suite.T(), kernel.NewUUID(), suite.now)
	suite.Require().NoError(suite.repository.Add(ctx, o))

	suite.Require().NoError(o.Assign(courier, suite.now))
	suite.Require().NoError(suite.repository.Update(ctx, o))
	suite.Require().NoError(o.Advance(order.Enroute, courier, suite.now))
	suite.Require().NoError(suite.repository.Update(ctx, o))

	stored, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Enroute, stored.Status())
	suite.Equal(int64(3), stored.Version())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_UnknownOrder_ReturnsNotFound() {
	o := ordertest.Reload(suite.T(), ordertest.Pending(suite.T(), kernel.NewUUID(), suite.now))
	suite.Require().NoError(o.Assign(kernel.NewUUID(), suite.now))

	err := suite.repository.Update(context.Background(), o)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestListUnassignedPendingBefore() {
	ctx := context.Background()
	old := ordertest.Pending(suite.T(), kernel.NewUUID(), suite.now.Add(-2*time.Hour))
	older := ordertest.Pending(suite.T(), kernel.NewUUID(), suite.now.Add(-3*time.Hour))
	fresh := ordertest.Pending(suite.T(), kernel.NewUUID(), suite.now)
	taken := ordertest.Pending(suite.T(), kernel.NewUUID(), suite.now.Add(-4*time.Hour))
	suite.Require().NoError(taken.Assign(kernel.NewUUID(), suite.now))
	for _, o := range []*order.Order{old, older, fresh, taken} {
		suite.Require().NoError(suite.repository.Add(ctx, o))
	}

	got, err := suite.repository.ListUnassignedPendingBefore(ctx, suite.now.Add(-time.Hour), 10)
	suite.Require().NoError(err)
	suite.Require().Len(got, 2)
	suite.Equal(older.ID(), got[0].ID())
	suite.Equal(old.ID(), got[1].ID())

	limited, err := suite.repository.ListUnassignedPendingBefore(ctx, suite.now.Add(-time.Hour), 1)
	suite.Require().NoError(err)
	suite.Len(limited, 1)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestListActive_ExcludesTerminalOrders() {
	ctx := context.Background()
	requester, courier := kernel.NewUUID(), kernel.NewUUID()

	active := ordertest.Pending(suite.T(), requester, suite.now)
	ordertest.Drive(suite.T(), active, courier, suite.now, order.Enroute)
	cancelled := ordertest.Pending(suite.T(), requester, suite.now)
	suite.Require().NoError(cancelled.Cancel(requester, "", suite.now))
	other := ordertest.Pending(suite.T(), kernel.NewUUID(), suite.now)
	for _, o := range []*order.Order{active, cancelled, other} {
		suite.Require().NoError(suite.repository.Add(ctx, o))
	}

	byRequester, err := suite.repository.ListActiveByRequester(ctx, requester)
	suite.Require().NoError(err)
	suite.Require().Len(byRequester, 1)
	suite.Equal(active.ID(), byRequester[0].ID())

	byCourier, err := suite.repository.ListActiveByCourier(ctx, courier)
	suite.Require().NoError(err)
	suite.Require().Len(byCourier, 1)
	suite.Equal(order.Enroute, byCourier[0].Status())
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
