package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"dispatch/internal/adapters/out/events"
	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/order/ordertest"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, evs ...kernel.DomainEvent) error {
	return m.Called(ctx, evs).Error(0)
}

type MockBroadcaster struct{ mock.Mock }

func (m *MockBroadcaster) BroadcastPending(ctx context.Context, o order.Snapshot) error {
	return m.Called(ctx, o).Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) NotifyLowBalance(ctx context.Context, ev commission.Event) error {
	return m.Called(ctx, ev).Error(0)
}

func logger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestDispatcher_RoutesByKind(t *testing.T) {
	ctx := context.Background()
	sync, broadcaster, notifier := new(MockPublisher), new(MockBroadcaster), new(MockNotifier)

	o := ordertest.Pending(t, kernel.NewUUID(), now)
	ordertest.Drive(t, o, kernel.NewUUID(), now)
	orderEvents := o.DomainEvents()
	low := commission.Event{Kind: commission.EventLowBalance, CourierID: kernel.NewUUID(), Balance: 50, Threshold: 100, At: now}
	suspended := commission.Event{Kind: commission.EventSuspended, CourierID: low.CourierID, At: now}
	all := append(append([]kernel.DomainEvent{}, orderEvents...), low, suspended)

	sync.On("Publish", ctx, all).Return(nil).Once()
	broadcaster.On("BroadcastPending", ctx, mock.MatchedBy(func(s order.Snapshot) bool {
		return s.ID == o.ID() && s.Status == order.Pending
	})).Return(nil).Once()
	notifier.On("NotifyLowBalance", ctx, low).Return(nil).Once()

	d := events.NewDispatcher(sync, broadcaster, notifier, logger())
	require.NoError(t, d.Publish(ctx, all...))

	sync.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestDispatcher_JoinsFailuresButTriesEveryone(t *testing.T) {
	ctx := context.Background()
	sync, broadcaster := new(MockPublisher), new(MockBroadcaster)
	syncErr, brokerErr := errors.New("redis down"), errors.New("broker down")

	o := ordertest.Pending(t, kernel.NewUUID(), now)
	sync.On("Publish", ctx, mock.Anything).Return(syncErr).Once()
	broadcaster.On("BroadcastPending", ctx, mock.Anything).Return(brokerErr).Once()

	err := events.NewDispatcher(sync, broadcaster, nil, logger()).Publish(ctx, o.DomainEvents()...)
	require.ErrorIs(t, err, syncErr)
	require.ErrorIs(t, err, brokerErr)
}

func TestDispatcher_NilConsumersAreSkipped(t *testing.T) {
	o := ordertest.Pending(t, kernel.NewUUID(), now)
	require.NoError(t, events.NewDispatcher(nil, nil, nil, logger()).Publish(context.Background(), o.DomainEvents()...))
}
