package hub_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/order/ordertest"
	"dispatch/internal/sync/hub"
	"dispatch/internal/sync/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

func newHub(size int) *hub.Hub {
	return hub.New(slog.New(slog.NewTextHandler(io.Discard, nil)), size)
}

func drain(c *hub.Client) []protocol.Envelope {
	var out []protocol.Envelope
	for {
		select {
		case env, ok := <-c.Outbox():
			if !ok {
				return out
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func update(orderID string, version int64, status string) protocol.Outbound {
	return protocol.Outbound{
		Envelope: protocol.Envelope{
			Type:    protocol.TypeDeliveryStatusUpdate,
			OrderID: orderID,
			Version: version,
			Status:  status,
		},
		Audience: protocol.Audience{RequesterID: "requester"},
	}
}

func TestHub_RoutesToParticipants(t *testing.T) {
	h := newHub(16)
	requester, courier := kernel.NewUUID(), kernel.NewUUID()

	reqClient := h.Register(requester.String(), false)
	courierClient := h.Register(courier.String(), true)
	idleCourier := h.Register(kernel.NewUUID().String(), true)
	stranger := h.Register(kernel.NewUUID().String(), false)

	o := ordertest.Pending(t, requester, now)
	require.NoError(t, h.Publish(context.Background(), o.DomainEvents()...))
	o.ClearDomainEvents()

	ordertest.Drive(t, o, courier, now, order.Enroute)
	require.NoError(t, h.Publish(context.Background(), o.DomainEvents()...))

	reqMsgs := drain(reqClient)
	require.Len(t, reqMsgs, 3)
	assert.Equal(t, protocol.TypeOrderCreated, reqMsgs[0].Type)
	assert.Equal(t, protocol.TypeOrderAccepted, reqMsgs[1].Type)
	assert.Equal(t, protocol.TypeDeliveryStatusUpdate, reqMsgs[2].Type)

	assert.Len(t, drain(courierClient), 3)
	idle := drain(idleCourier)
	require.Len(t, idle, 1)
	assert.Equal(t, protocol.TypeOrderCreated, idle[0].Type)
	assert.Empty(t, drain(stranger))
}

func TestHub_BroadcastHidesRecipientUntilAccepted(t *testing.T) {
	h := newHub(16)
	requester := kernel.NewUUID()
	reqClient := h.Register(requester.String(), false)
	courierClient := h.Register(kernel.NewUUID().String(), true)

	o := ordertest.Pending(t, requester, now)
	require.NoError(t, h.Publish(context.Background(), o.DomainEvents()...))

	own := drain(reqClient)
	require.Len(t, own, 1)
	require.NotNil(t, own[0].Order)
	assert.Equal(t, "Camille", own[0].Order.RecipientName)
	assert.Equal(t, requester.String(), own[0].Order.RequesterID)

	offered := drain(courierClient)
	require.Len(t, offered, 1)
	require.NotNil(t, offered[0].Order)
	assert.Empty(t, offered[0].Order.RecipientName)
	assert.Empty(t, offered[0].Order.RecipientPhone)
	assert.Empty(t, offered[0].Order.RequesterID)
	assert.Equal(t, own[0].Order.PriceAmount, offered[0].Order.PriceAmount)
	assert.Equal(t, own[0].Order.Dropoff, offered[0].Order.Dropoff)
}

func TestHub_DropsOlderVersions(t *testing.T) {
	h := newHub(16)
	c := h.Register("requester", false)

	h.Deliver(update("o1", 3, "enroute"))
	h.Deliver(update("o1", 2, "accepted"))
	h.Deliver(update("o1", 3, "enroute"))
	h.Deliver(update("o2", 1, "pending"))

	msgs := drain(c)
	require.Len(t, msgs, 3)
	assert.Equal(t, int64(3), msgs[0].Version)
	assert.Equal(t, int64(3), msgs[1].Version)
	assert.Equal(t, "o2", msgs[2].OrderID)

	stats := h.Stats()
	assert.Equal(t, int64(3), stats.Delivered)
	assert.Equal(t, int64(1), stats.Stale)
}

func TestHub_SnapshotAdvancesVersions(t *testing.T) {
	h := newHub(16)
	c := h.Register("requester", false)

	require.NoError(t, c.Send(protocol.ResyncSnapshot([]protocol.Order{{ID: "o1", Version: 5}}, nil)))
	require.ErrorIs(t, c.Send(update("o1", 4, "picked_up").Envelope), hub.ErrStale)
	require.NoError(t, c.Send(update("o1", 5, "picked_up").Envelope))
}

func TestHub_SlowClientIsClosed(t *testing.T) {
	h := newHub(1)
	c := h.Register("requester", false)
	assert.Equal(t, int64(1), h.Stats().Connections)

	h.Deliver(update("o1", 1, "pending"))
	h.Deliver(update("o1", 2, "accepted"))

	msgs := drain(c)
	require.Len(t, msgs, 1)
	_, open := <-c.Outbox()
	assert.False(t, open)
	assert.Equal(t, int64(0), h.Stats().Connections)
	assert.Equal(t, int64(1), h.Stats().Overflow)
	require.ErrorIs(t, c.Send(update("o1", 3, "enroute").Envelope), hub.ErrClosed)

	h.Unregister(c)
	assert.Equal(t, int64(0), h.Stats().Connections)
}
