package queries_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

func newOrder(t *testing.T, requester kernel.UUID, createdAt time.Time) *order.Order {
	t.Helper()
	point, err := kernel.NewGeoPoint(45.764, 4.8357)
	require.NoError(t, err)
	addr, err := kernel.NewAddress("Place Bellecour", point)
	require.NoError(t, err)
	payment, err := order.NewPayment(order.PayerRequester, 900, nil)
	require.NoError(t, err)

	o, err := order.NewOrder(order.NewOrderParams{
		ID:             kernel.NewUUID(),
		Reference:      order.NewReference(),
		RequesterID:    requester,
		Pickup:         addr,
		Dropoff:        addr,
		Method:         order.MethodStandard,
		Quote:          order.Quote{PriceAmount: 900, DistanceKm: 2.5, EstimatedMinutes: 15},
		Payment:        payment,
		RecipientName:  "Hugo",
		RecipientPhone: "+33600000000",
		CreatedAt:      createdAt,
	})
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}

func geo(t *testing.T, lat, lng float64) kernel.GeoPoint {
	t.Helper()
	p, err := kernel.NewGeoPoint(lat, lng)
	require.NoError(t, err)
	return p
}
