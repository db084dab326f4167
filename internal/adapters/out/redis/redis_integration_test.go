package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	redisadapter "dispatch/internal/adapters/out/redis"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order/ordertest"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/sync/protocol"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RedisIntegrationTestSuite struct {
	suite.Suite
	container testcontainers.Container
	client    *goredis.Client
	now       time.Time
}

func (suite *RedisIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	suite.Require().NoError(err)
	suite.container = container

	endpoint, err := container.Endpoint(ctx, "")
	suite.Require().NoError(err)
	suite.client, err = redisadapter.Connect(ctx, redisadapter.Options{Addr: endpoint})
	suite.Require().NoError(err)
	suite.now = time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
}

func (suite *RedisIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.client.FlushDB(context.Background()).Err())
}

func (suite *RedisIntegrationTestSuite) TearDownSuite() {
	if suite.client != nil {
		_ = suite.client.Close()
	}
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *RedisIntegrationTestSuite) TestLocationStore_KeepsNewest() {
	ctx := context.Background()
	store := redisadapter.NewLocationStore(suite.client, time.Hour)
	courier, orderID := kernel.NewUUID(), kernel.NewUUID()

	_, err := store.Last(ctx, courier)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	newer, err := kernel.NewGeoPoint(48.86, 2.36)
	suite.Require().NoError(err)
	older, err := kernel.NewGeoPoint(48.85, 2.35)
	suite.Require().NoError(err)

	suite.Require().NoError(store.Save(ctx, ports.CourierLocation{CourierID: courier, OrderID: orderID, Point: newer, At: suite.now}))
	suite.Require().NoError(store.Save(ctx, ports.CourierLocation{CourierID: courier, OrderID: orderID, Point: older, At: suite.now.Add(-time.Minute)}))

	last, err := store.Last(ctx, courier)
	suite.Require().NoError(err)
	suite.Equal(orderID, last.OrderID)
	suite.InDelta(48.86, last.Point.Lat(), 1e-9)
	suite.True(last.At.Equal(suite.now))
}

func (suite *RedisIntegrationTestSuite) TestEventBus_DeliversRoutedMessages() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := redisadapter.NewEventBus(suite.client, "dispatch:test", logger)

	received := make(chan protocol.Outbound, 4)
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- bus.Run(ctx, func(msg protocol.Outbound) { received <- msg }, ready)
	}()
	<-ready

	o := ordertest.Pending(suite.T(), kernel.NewUUID(), suite.now)
	suite.Require().NoError(bus.Publish(ctx, o.DomainEvents()...))

	select {
	case msg := <-received:
		suite.Equal(protocol.TypeOrderCreated, msg.Envelope.Type)
		suite.Equal(o.ID().String(), msg.Envelope.OrderID)
		suite.Equal(o.RequesterID().String(), msg.Audience.RequesterID)
		suite.True(msg.Audience.AllCouriers)
	case <-time.After(5 * time.Second):
		suite.Fail("no message received")
	}

	cancel()
	suite.ErrorIs(<-done, context.Canceled)
}

func TestRedisIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(RedisIntegrationTestSuite))
}
