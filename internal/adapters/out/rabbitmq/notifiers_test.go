package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order/ordertest"
	"dispatch/internal/sync/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, exchange, key string, body []byte) error {
	return m.Called(ctx, exchange, key, body).Error(0)
}

var now = time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

func TestCourierBroadcaster_PublishesOrderCreated(t *testing.T) {
	ctx := context.Background()
	pub := new(MockPublisher)
	o := ordertest.Pending(t, kernel.NewUUID(), now)

	pub.On("Publish", ctx, PendingOrdersExchange, "", mock.MatchedBy(func(body []byte) bool {
		var env protocol.Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return false
		}
		return env.Type == protocol.TypeOrderCreated && env.OrderID == o.ID().String() && env.Order != nil &&
			env.Order.RecipientPhone == "" && env.Order.RequesterID == ""
	})).Return(nil).Once()

	require.NoError(t, NewCourierBroadcaster(pub).BroadcastPending(ctx, o.Snapshot()))
	pub.AssertExpectations(t)
}

func TestLowBalanceNotifier_RoutesPerCourier(t *testing.T) {
	ctx := context.Background()
	pub := new(MockPublisher)
	courier := kernel.NewUUID()
	ev := commission.Event{Kind: commission.EventLowBalance, CourierID: courier, Balance: 150, Threshold: 200, At: now}

	pub.On("Publish", ctx, NotificationsExchange, "commission.low_balance."+courier.String(), mock.MatchedBy(func(body []byte) bool {
		var msg lowBalanceMessage
		return json.Unmarshal(body, &msg) == nil && msg.Balance == 150 && msg.Threshold == 200
	})).Return(nil).Once()

	require.NoError(t, NewLowBalanceNotifier(pub).NotifyLowBalance(ctx, ev))
	pub.AssertExpectations(t)
}

func TestLowBalanceNotifier_WrapsPublishError(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(ErrNacked)

	err := NewLowBalanceNotifier(pub).NotifyLowBalance(context.Background(), commission.Event{
		Kind: commission.EventLowBalance, CourierID: kernel.NewUUID(), At: now,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNacked))
}
