// Package ordertest builds orders for tests outside the order package.
package ordertest

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
)

// Pending returns a fresh pending order with its creation event still
// recorded, as a handler would hand it to a repository.
func Pending(tb testing.TB, requester kernel.UUID, createdAt time.Time) *order.Order {
	tb.Helper()
	pickup := address(tb, "12 Rue de Rivoli", 48.8556, 2.3600)
	dropoff := address(tb, "5 Avenue Anatole France", 48.8584, 2.2945)
	payment, err := order.NewPayment(order.PayerRequester, 1000, nil)
	require.NoError(tb, err)

	o, err := order.NewOrder(order.NewOrderParams{
		ID:             kernel.NewUUID(),
		Reference:      order.NewReference(),
		RequesterID:    requester,
		Pickup:         pickup,
		Dropoff:        dropoff,
		Method:         order.MethodStandard,
		Quote:          order.Quote{PriceAmount: 1000, DistanceKm: 4.9, EstimatedMinutes: 22},
		Payment:        payment,
		RecipientName:  "Camille",
		RecipientPhone: "+33611111111",
		CreatedAt:      createdAt,
	})
	require.NoError(tb, err)
	return o
}

// Drive assigns courier and walks the order through the given physical
// handling statuses.
func Drive(tb testing.TB, o *order.Order, courier kernel.UUID, now time.Time, through ...order.Status) {
	tb.Helper()
	require.NoError(tb, o.Assign(courier, now))
	for _, s := range through {
		require.NoError(tb, o.Advance(s, courier, now))
	}
}

// Reload round-trips the order through its snapshot, which is what a
// repository read returns.
func Reload(tb testing.TB, o *order.Order) *order.Order {
	tb.Helper()
	restored, err := order.RestoreOrder(o.Snapshot())
	require.NoError(tb, err)
	return restored
}

func address(tb testing.TB, text string, lat, lng float64) kernel.Address {
	tb.Helper()
	point, err := kernel.NewGeoPoint(lat, lng)
	require.NoError(tb, err)
	addr, err := kernel.NewAddress(text, point)
	require.NoError(tb, err)
	return addr
}
