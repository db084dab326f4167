package protocol_test

import (
	"encoding/json"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/order/ordertest"
	"dispatch/internal/core/domain/model/proof"
	"dispatch/internal/sync/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

func routed(t *testing.T, o *order.Order) []protocol.Outbound {
	t.Helper()
	var out []protocol.Outbound
	for _, ev := range o.DomainEvents() {
		msg, ok := protocol.Route(ev)
		require.True(t, ok, ev.EventName())
		out = append(out, msg)
	}
	o.ClearDomainEvents()
	return out
}

func TestRoute_Lifecycle(t *testing.T) {
	requester, courier := kernel.NewUUID(), kernel.NewUUID()
	o := ordertest.Pending(t, requester, now)

	created := routed(t, o)
	require.Len(t, created, 1)
	assert.Equal(t, protocol.TypeOrderCreated, created[0].Envelope.Type)
	assert.True(t, created[0].Audience.AllCouriers)
	assert.Equal(t, int64(1), created[0].Envelope.Version)
	assert.Equal(t, requester.String(), created[0].Envelope.Order.RequesterID)

	ordertest.Drive(t, o, courier, now, order.Enroute)
	moved := routed(t, o)
	require.Len(t, moved, 2)
	assert.Equal(t, protocol.TypeOrderAccepted, moved[0].Envelope.Type)
	assert.Equal(t, courier.String(), moved[0].Envelope.Courier.ID)
	assert.Equal(t, protocol.TypeDeliveryStatusUpdate, moved[1].Envelope.Type)
	assert.Equal(t, "enroute", moved[1].Envelope.Status)
	assert.Equal(t, int64(3), moved[1].Envelope.Version)
	assert.Equal(t, courier.String(), moved[1].Audience.CourierID)
	assert.False(t, moved[1].Audience.AllCouriers)

	require.NoError(t, o.Cancel(requester, "wrong address", now))
	cancelled := routed(t, o)
	require.Len(t, cancelled, 1)
	assert.Equal(t, protocol.TypeDeliveryStatusUpdate, cancelled[0].Envelope.Type)
	assert.Equal(t, "cancelled", cancelled[0].Envelope.Status)
	assert.Equal(t, "wrong address", cancelled[0].Envelope.Reason)
	assert.True(t, cancelled[0].Envelope.Order.IsTerminal())
}

func TestRoute_DeclineIsNoDriversAvailable(t *testing.T) {
	o := ordertest.Pending(t, kernel.NewUUID(), now)
	o.ClearDomainEvents()
	require.NoError(t, o.Expire(order.Declined, "no drivers available", now))

	msgs := routed(t, o)
	require.Len(t, msgs, 1)
	assert.Equal(t, protocol.TypeNoDriversAvailable, msgs[0].Envelope.Type)
	assert.Equal(t, "no drivers available", msgs[0].Envelope.Reason)
}

func TestRoute_LocationKeepsVersion(t *testing.T) {
	courier := kernel.NewUUID()
	o := ordertest.Pending(t, kernel.NewUUID(), now)
	ordertest.Drive(t, o, courier, now, order.Enroute)
	point, err := kernel.NewGeoPoint(48.85, 2.35)
	require.NoError(t, err)

	msg, ok := protocol.Route(order.LocationReported{Order: o.Snapshot(), CourierID: courier, Point: point, At: now})
	require.True(t, ok)
	assert.Equal(t, protocol.TypeDeliveryStatusUpdate, msg.Envelope.Type)
	assert.Equal(t, o.Version(), msg.Envelope.Version)
	require.NotNil(t, msg.Envelope.Location)
	assert.InDelta(t, 48.85, msg.Envelope.Location.Lat, 1e-9)
}

func TestEnvelope_IsFlatJSON(t *testing.T) {
	o := ordertest.Pending(t, kernel.NewUUID(), now)
	msgs := routed(t, o)

	raw, err := json.Marshal(msgs[0].Envelope)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "order-created", fields["type"])
	assert.Equal(t, o.ID().String(), fields["orderId"])
	assert.NotContains(t, fields, "locations")
	assert.NotContains(t, fields, "success")
}

func TestAudience_Includes(t *testing.T) {
	a := protocol.Audience{RequesterID: "r", CourierID: "c"}
	assert.True(t, a.Includes("r", false))
	assert.True(t, a.Includes("c", true))
	assert.False(t, a.Includes("x", true))
	assert.False(t, a.Includes("", false))

	a.AllCouriers = true
	assert.True(t, a.Includes("x", true))
	assert.False(t, a.Includes("x", false))
	assert.False(t, a.IsParticipant("x"))
	assert.True(t, a.IsParticipant("c"))
}

func TestEnvelope_Redacted(t *testing.T) {
	o := ordertest.Pending(t, kernel.NewUUID(), now)
	msgs := routed(t, o)
	full := msgs[0].Envelope

	redacted := full.Redacted()
	require.NotNil(t, redacted.Order)
	assert.Empty(t, redacted.Order.RecipientName)
	assert.Empty(t, redacted.Order.RecipientPhone)
	assert.Empty(t, redacted.Order.RequesterID)
	assert.Equal(t, full.Version, redacted.Version)
	assert.Equal(t, "Camille", full.Order.RecipientName, "original untouched")

	raw, err := json.Marshal(redacted)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "recipientPhone")
}

func TestCreateOrderAck(t *testing.T) {
	token := proof.Token{OrderID: "order-1", Signature: "ab12"}
	ok := protocol.CreateOrderAck("req-1", "order-1", token)
	require.NotNil(t, ok.Success)
	assert.True(t, *ok.Success)
	assert.Empty(t, ok.Reason)
	require.NotNil(t, ok.Token)
	assert.Equal(t, token, *ok.Token)

	raw, err := json.Marshal(ok)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"signature":"ab12"`)

	failed := protocol.CreateOrderFailed("req-2", "method is invalid")
	require.NotNil(t, failed.Success)
	assert.False(t, *failed.Success)
	assert.Nil(t, failed.Token)
	assert.Equal(t, "method is invalid", failed.Reason)
}
