package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

const (
	locationKeyPrefix  = "dispatch:courier:location:"
	DefaultLocationTTL = 24 * time.Hour
)

// saveIfNewer keeps the newest report when two instances write concurrently.
var saveIfNewer = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'at')
if current and tonumber(current) > tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'at', ARGV[1], 'payload', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

type locationPayload struct {
	CourierID string    `json:"courierId"`
	OrderID   string    `json:"orderId"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	At        time.Time `json:"at"`
}

// LocationStore implements ports.LocationStore on Redis hashes.
type LocationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocationStore expires positions after ttl, DefaultLocationTTL when ttl is
// not positive.
func NewLocationStore(client *redis.Client, ttl time.Duration) *LocationStore {
	if ttl <= 0 {
		ttl = DefaultLocationTTL
	}
	return &LocationStore{client: client, ttl: ttl}
}

// Save keeps the newest report. The comparison runs in a Lua script so two
// instances racing on the same courier cannot overwrite a newer position.
func (s *LocationStore) Save(ctx context.Context, loc ports.CourierLocation) error {
	payload, err := json.Marshal(locationPayload{
		CourierID: loc.CourierID.String(),
		OrderID:   loc.OrderID.String(),
		Lat:       loc.Point.Lat(),
		Lng:       loc.Point.Lng(),
		At:        loc.At.UTC(),
	})
	if err != nil {
		return err
	}

	err = saveIfNewer.Run(ctx, s.client,
		[]string{locationKeyPrefix + loc.CourierID.String()},
		loc.At.UnixMilli(), payload, s.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to save courier location: %w", err)
	}
	return nil
}

// Last fails with errs.ErrObjectNotFound when the courier never reported or
// the position expired.
func (s *LocationStore) Last(ctx context.Context, courierID kernel.UUID) (ports.CourierLocation, error) {
	raw, err := s.client.HGet(ctx, locationKeyPrefix+courierID.String(), "payload").Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.CourierLocation{}, errs.NewObjectNotFoundError("courier location", courierID.String())
	}
	if err != nil {
		return ports.CourierLocation{}, fmt.Errorf("failed to read courier location: %w", err)
	}

	var p locationPayload
	if err = json.Unmarshal(raw, &p); err != nil {
		return ports.CourierLocation{}, err
	}
	return p.toPort()
}

func (p locationPayload) toPort() (ports.CourierLocation, error) {
	courierID, err := kernel.UUIDFromString(p.CourierID)
	if err != nil {
		return ports.CourierLocation{}, err
	}
	orderID, err := kernel.UUIDFromString(p.OrderID)
	if err != nil {
		return ports.CourierLocation{}, err
	}
	point, err := kernel.NewGeoPoint(p.Lat, p.Lng)
	if err != nil {
		return ports.CourierLocation{}, err
	}
	return ports.CourierLocation{CourierID: courierID, OrderID: orderID, Point: point, At: p.At}, nil
}
