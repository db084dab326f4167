package commands_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSigner(t *testing.T) services.ProofSigner {
	t.Helper()
	s, err := services.NewProofSigner([]byte("test-secret-test-secret"), 0)
	require.NoError(t, err)
	return s
}

func newPendingOrder(t *testing.T, price int64) *order.Order {
	t.Helper()
	point, err := kernel.NewGeoPoint(48.8566, 2.3522)
	require.NoError(t, err)
	addr, err := kernel.NewAddress("Place de l'Hotel de Ville", point)
	require.NoError(t, err)
	payment, err := order.NewPayment(order.PayerRequester, price, nil)
	require.NoError(t, err)

	o, err := order.NewOrder(order.NewOrderParams{
		ID:             kernel.NewUUID(),
		Reference:      order.NewReference(),
		RequesterID:    kernel.NewUUID(),
		Pickup:         addr,
		Dropoff:        addr,
		Method:         order.MethodLight,
		Quote:          order.Quote{PriceAmount: price, DistanceKm: 1, EstimatedMinutes: 10},
		Payment:        payment,
		RecipientName:  "Lea",
		RecipientPhone: "+33100000000",
		CreatedAt:      fixedNow.Add(-time.Hour),
	})
	require.NoError(t, err)
	return reload(t, o)
}

// reload mimics a repository read: no pending events and the
// compare-and-swap guard set to the current state.
func reload(t *testing.T, o *order.Order) *order.Order {
	t.Helper()
	restored, err := order.RestoreOrder(o.Snapshot())
	require.NoError(t, err)
	return restored
}

func newDeliveringOrder(t *testing.T, courier kernel.UUID, price int64) *order.Order {
	t.Helper()
	o := newPendingOrder(t, price)
	require.NoError(t, o.Assign(courier, fixedNow))
	for _, s := range []order.Status{order.Enroute, order.PickedUp, order.Delivering} {
		require.NoError(t, o.Advance(s, courier, fixedNow))
	}
	return reload(t, o)
}
