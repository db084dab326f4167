package services_test

import (
	"context"
	"testing"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTariffEstimator_Estimate(t *testing.T) {
	e := services.NewTariffEstimator(map[order.Method]services.Tariff{
		order.MethodLight: {BaseFare: 100, PerKm: 10, SpeedKmh: 60, HandlingMin: 2},
	})
	a, err := kernel.NewGeoPoint(0, 0)
	require.NoError(t, err)
	b, err := kernel.NewGeoPoint(0, 1)
	require.NoError(t, err)

	q, err := e.Estimate(context.Background(), a, b, order.MethodLight)

	require.NoError(t, err)
	// one degree of longitude at the equator
	assert.InDelta(t, 111.195, q.DistanceKm, 0.01)
	assert.Equal(t, int64(100+1112), q.PriceAmount)
	assert.Equal(t, 2+112, q.EstimatedMinutes)

	_, err = e.Estimate(context.Background(), a, b, order.MethodBulk)
	require.Error(t, err)
}

func TestTariffEstimator_DefaultTable(t *testing.T) {
	e := services.NewTariffEstimator(nil)
	p, err := kernel.NewGeoPoint(10, 10)
	require.NoError(t, err)

	for _, m := range []order.Method{order.MethodLight, order.MethodStandard, order.MethodBulk} {
		q, err := e.Estimate(context.Background(), p, p, m)
		require.NoError(t, err)
		assert.Positive(t, q.PriceAmount)
		assert.Zero(t, q.DistanceKm)
	}
}
