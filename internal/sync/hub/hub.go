// Package hub fans committed order events out to the open sync channel
// connections of the order's participants.
//
// Delivery is at-least-once per connection and ordered per order: a
// connection never receives a lower order version after a higher one. A
// connection whose outbox is full is closed; the client reconnects and
// resyncs.
package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/metrics"
	"dispatch/internal/sync/protocol"

	"go.uber.org/atomic"
)

// DefaultOutboxSize is the per-connection buffer when none is configured.
const DefaultOutboxSize = 64

// Hub tracks the open connections of this instance. Deliver is safe for
// concurrent use and never blocks on a slow connection.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	outboxSize int
	logger     *slog.Logger

	connected *atomic.Int64
	delivered *atomic.Int64
	stale     *atomic.Int64
	overflow  *atomic.Int64
}

// Stats is a point-in-time view of the hub counters.
type Stats struct {
	Connections int64 `json:"connections"`
	Delivered   int64 `json:"delivered"`
	Stale       int64 `json:"stale"`
	Overflow    int64 `json:"overflow"`
}

// New creates an empty hub. A non-positive outboxSize selects
// DefaultOutboxSize.
func New(logger *slog.Logger, outboxSize int) *Hub {
	if outboxSize <= 0 {
		outboxSize = DefaultOutboxSize
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		outboxSize: outboxSize,
		logger:     logger.With("component", "sync-hub"),
		connected:  atomic.NewInt64(0),
		delivered:  atomic.NewInt64(0),
		stale:      atomic.NewInt64(0),
		overflow:   atomic.NewInt64(0),
	}
}

// Register opens a client for an authenticated actor.
func (h *Hub) Register(actorID string, isCourier bool) *Client {
	c := &Client{
		actorID:   actorID,
		isCourier: isCourier,
		outbox:    make(chan protocol.Envelope, h.outboxSize),
		versions:  make(map[string]int64),
		hub:       h,
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	metrics.SyncConnections.Set(float64(h.connected.Inc()))
	return c
}

// Unregister removes the client and closes its outbox. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	c.close()
	if ok {
		metrics.SyncConnections.Set(float64(h.connected.Dec()))
	}
}

// Publish routes committed domain events to connected clients. It implements
// ports.EventPublisher for single-instance deployments.
func (h *Hub) Publish(_ context.Context, events ...kernel.DomainEvent) error {
	for _, ev := range events {
		if msg, ok := protocol.Route(ev); ok {
			h.Deliver(msg)
		}
	}
	return nil
}

// Deliver offers msg to every client in its audience. Couriers reached only
// through the broadcast get the redacted envelope.
func (h *Hub) Deliver(msg protocol.Outbound) {
	h.mu.RLock()
	targets := make([]*Client, 0, 2)
	for c := range h.clients {
		if msg.Audience.Includes(c.actorID, c.isCourier) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	var redacted *protocol.Envelope
	for _, c := range targets {
		env := msg.Envelope
		if !msg.Audience.IsParticipant(c.actorID) {
			if redacted == nil {
				r := msg.Envelope.Redacted()
				redacted = &r
			}
			env = *redacted
		}
		if err := c.Send(env); errors.Is(err, ErrOutboxFull) {
			h.logger.Warn("sync client too slow, closing",
				"actorId", c.actorID,
				"type", string(msg.Envelope.Type),
			)
			h.Unregister(c)
		}
	}
}

// Stats returns the connection and delivery counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Connections: h.connected.Load(),
		Delivered:   h.delivered.Load(),
		Stale:       h.stale.Load(),
		Overflow:    h.overflow.Load(),
	}
}

func (h *Hub) count(err error) {
	switch {
	case err == nil:
		h.delivered.Inc()
		metrics.SyncMessagesTotal.WithLabelValues("delivered").Inc()
	case errors.Is(err, ErrStale):
		h.stale.Inc()
		metrics.SyncMessagesTotal.WithLabelValues("stale").Inc()
	case errors.Is(err, ErrOutboxFull):
		h.overflow.Inc()
		metrics.SyncMessagesTotal.WithLabelValues("overflow").Inc()
	}
}
