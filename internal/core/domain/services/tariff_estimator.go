package services

import (
	"context"
	"fmt"
	"math"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
)

// Tariff prices one vehicle class. Amounts are in minor units.
type Tariff struct {
	BaseFare    int64
	PerKm       int64
	SpeedKmh    float64
	HandlingMin int
}

// DefaultTariffs is used when no tariff table is configured.
func DefaultTariffs() map[order.Method]Tariff {
	return map[order.Method]Tariff{
		order.MethodLight:    {BaseFare: 300, PerKm: 120, SpeedKmh: 25, HandlingMin: 5},
		order.MethodStandard: {BaseFare: 500, PerKm: 180, SpeedKmh: 30, HandlingMin: 8},
		order.MethodBulk:     {BaseFare: 1500, PerKm: 350, SpeedKmh: 22, HandlingMin: 20},
	}
}

// TariffEstimator prices an order from the great-circle distance between
// pickup and dropoff. It is the local fallback of the remote estimator.
type TariffEstimator struct {
	tariffs map[order.Method]Tariff
}

// NewTariffEstimator uses DefaultTariffs when tariffs is empty.
func NewTariffEstimator(tariffs map[order.Method]Tariff) TariffEstimator {
	if len(tariffs) == 0 {
		tariffs = DefaultTariffs()
	}
	return TariffEstimator{tariffs: tariffs}
}

// Estimate charges BaseFare plus PerKm for the distance, rounded to minor units,
// and derives the travel time from SpeedKmh plus HandlingMin.
func (e TariffEstimator) Estimate(_ context.Context, pickup, dropoff kernel.GeoPoint, method order.Method) (order.Quote, error) {
	t, ok := e.tariffs[method]
	if !ok {
		return order.Quote{}, errs.NewValueIsInvalidErrorWithCause("method is invalid", fmt.Errorf("no tariff for %q", method))
	}

	km, err := pickup.DistanceKm(dropoff)
	if err != nil {
		return order.Quote{}, err
	}

	minutes := t.HandlingMin
	if t.SpeedKmh > 0 {
		minutes += int(math.Ceil(km / t.SpeedKmh * 60))
	}

	return order.Quote{
		PriceAmount:      t.BaseFare + int64(math.Round(km*float64(t.PerKm))),
		DistanceKm:       math.Round(km*1000) / 1000,
		EstimatedMinutes: minutes,
	}, nil
}
