package memory

import (
	"context"
	"sync"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// LocationStore keeps the last reported position per courier in process.
type LocationStore struct {
	mu   sync.RWMutex
	last map[kernel.UUID]ports.CourierLocation
}

// NewLocationStore returns an empty store.
func NewLocationStore() *LocationStore {
	return &LocationStore{last: make(map[kernel.UUID]ports.CourierLocation)}
}

// Save ignores reports older than the one already stored.
func (s *LocationStore) Save(_ context.Context, loc ports.CourierLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.last[loc.CourierID]; ok && loc.At.Before(prev.At) {
		return nil
	}
	s.last[loc.CourierID] = loc
	return nil
}

// Last fails with errs.ErrObjectNotFound until the courier reported once.
func (s *LocationStore) Last(_ context.Context, courierID kernel.UUID) (ports.CourierLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.last[courierID]
	if !ok {
		return ports.CourierLocation{}, errs.NewObjectNotFoundError("courier location", courierID.String())
	}
	return loc, nil
}
