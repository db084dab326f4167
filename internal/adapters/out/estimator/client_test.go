package estimator_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"dispatch/internal/adapters/out/estimator"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func points(t *testing.T) (kernel.GeoPoint, kernel.GeoPoint) {
	t.Helper()
	a, err := kernel.NewGeoPoint(48.8556, 2.3600)
	require.NoError(t, err)
	b, err := kernel.NewGeoPoint(48.8584, 2.2945)
	require.NoError(t, err)
	return a, b
}

func logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRemoteEstimator_UsesRemoteQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/estimate", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "bulk", body["method"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"priceAmount":4200,"distanceKm":5.1,"estimatedMinutes":31}`))
	}))
	defer srv.Close()

	pickup, dropoff := points(t)
	est := estimator.NewRemoteEstimator(srv.URL, 0, services.NewTariffEstimator(nil), logger())

	quote, err := est.Estimate(context.Background(), pickup, dropoff, order.MethodBulk)
	require.NoError(t, err)
	assert.Equal(t, order.Quote{PriceAmount: 4200, DistanceKm: 5.1, EstimatedMinutes: 31}, quote)
}

func TestRemoteEstimator_FallsBackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	pickup, dropoff := points(t)
	local := services.NewTariffEstimator(nil)
	want, err := local.Estimate(context.Background(), pickup, dropoff, order.MethodLight)
	require.NoError(t, err)

	est := estimator.NewRemoteEstimator(srv.URL, 0, local, logger())
	quote, err := est.Estimate(context.Background(), pickup, dropoff, order.MethodLight)
	require.NoError(t, err)
	assert.Equal(t, want, quote)
}

func TestRemoteEstimator_NoFallbackReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"priceAmount":0,"distanceKm":1,"estimatedMinutes":3}`))
	}))
	defer srv.Close()

	pickup, dropoff := points(t)
	_, err := estimator.NewRemoteEstimator(srv.URL, 0, nil, logger()).Estimate(context.Background(), pickup, dropoff, order.MethodLight)
	require.ErrorContains(t, err, "implausible")
}
