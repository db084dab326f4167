// Package estimator prices routes through a remote estimation service and
// falls back to a local estimator when the service is unavailable.
package estimator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/go-resty/resty/v2"
)

const (
	estimatePath   = "/api/v1/estimate"
	DefaultTimeout = 2 * time.Second
)

type point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type estimateRequest struct {
	Pickup  point  `json:"pickup"`
	Dropoff point  `json:"dropoff"`
	Method  string `json:"method"`
}

type estimateResponse struct {
	PriceAmount      int64   `json:"priceAmount"`
	DistanceKm       float64 `json:"distanceKm"`
	EstimatedMinutes int     `json:"estimatedMinutes"`
}

// RemoteEstimator implements ports.Estimator over HTTP.
type RemoteEstimator struct {
	client   *resty.Client
	fallback ports.Estimator
	logger   *slog.Logger
}

// NewRemoteEstimator calls baseURL and uses fallback on transport errors,
// non-200 answers and implausible quotes.
func NewRemoteEstimator(baseURL string, timeout time.Duration, fallback ports.Estimator, logger *slog.Logger) *RemoteEstimator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &RemoteEstimator{
		client:   client,
		fallback: fallback,
		logger:   logger.With("component", "remote-estimator"),
	}
}

// Estimate asks the pricing service. On any failure it falls back to the local
// tariffs when a fallback is configured, and logs a warning.
func (e *RemoteEstimator) Estimate(
	ctx context.Context,
	pickup, dropoff kernel.GeoPoint,
	method order.Method,
) (order.Quote, error) {
	quote, err := e.remote(ctx, pickup, dropoff, method)
	if err == nil {
		return quote, nil
	}
	if e.fallback == nil {
		return order.Quote{}, err
	}

	e.logger.WarnContext(ctx, "remote estimate failed, using local tariffs",
		"method", method.String(),
		"error", err,
	)
	return e.fallback.Estimate(ctx, pickup, dropoff, method)
}

func (e *RemoteEstimator) remote(
	ctx context.Context,
	pickup, dropoff kernel.GeoPoint,
	method order.Method,
) (order.Quote, error) {
	var answer estimateResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(estimateRequest{
			Pickup:  point{Lat: pickup.Lat(), Lng: pickup.Lng()},
			Dropoff: point{Lat: dropoff.Lat(), Lng: dropoff.Lng()},
			Method:  method.String(),
		}).
		SetResult(&answer).
		Post(estimatePath)
	if err != nil {
		return order.Quote{}, err
	}

	if resp.StatusCode() != http.StatusOK {
		return order.Quote{}, fmt.Errorf("estimate request status: %d", resp.StatusCode())
	}
	if answer.PriceAmount <= 0 || answer.DistanceKm < 0 || answer.EstimatedMinutes <= 0 {
		return order.Quote{}, fmt.Errorf("implausible estimate %+v", answer)
	}

	return order.Quote{
		PriceAmount:      answer.PriceAmount,
		DistanceKm:       answer.DistanceKm,
		EstimatedMinutes: answer.EstimatedMinutes,
	}, nil
}
