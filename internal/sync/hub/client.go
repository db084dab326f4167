package hub

import (
	"errors"
	"sync"

	"dispatch/internal/sync/protocol"
)

var (
	// ErrStale is returned for an order message older than one already sent.
	ErrStale = errors.New("stale order version")

	// ErrOutboxFull is returned when the transport is not draining fast enough.
	ErrOutboxFull = errors.New("outbox full")

	// ErrClosed is returned when sending to an unregistered client.
	ErrClosed = errors.New("client closed")
)

// Client is one sync connection. The transport drains Outbox and calls
// Hub.Unregister when the socket ends.
type Client struct {
	actorID   string
	isCourier bool
	hub       *Hub

	mu       sync.Mutex
	outbox   chan protocol.Envelope
	versions map[string]int64
	closed   bool
}

// ActorID returns the authenticated actor of the connection.
func (c *Client) ActorID() string { return c.actorID }

// IsCourier reports whether the connection receives pending order broadcasts.
func (c *Client) IsCourier() bool { return c.isCourier }

// Outbox is closed when the client is unregistered.
func (c *Client) Outbox() <-chan protocol.Envelope {
	return c.outbox
}

// Send queues env without blocking. Order-scoped messages older than the
// last version sent for that order are dropped with ErrStale.
func (c *Client) Send(env protocol.Envelope) error {
	err := c.send(env)
	c.hub.count(err)
	return err
}

func (c *Client) send(env protocol.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if env.IsOrderScoped() && env.Version < c.versions[env.OrderID] {
		return ErrStale
	}

	select {
	case c.outbox <- env:
	default:
		return ErrOutboxFull
	}

	c.observe(env)
	return nil
}

// observe records the versions a message makes known to the client. The
// caller holds mu.
func (c *Client) observe(env protocol.Envelope) {
	if env.IsOrderScoped() && env.Version > c.versions[env.OrderID] {
		c.versions[env.OrderID] = env.Version
	}
	for _, o := range env.Orders {
		if o.Version > c.versions[o.ID] {
			c.versions[o.ID] = o.Version
		}
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.outbox)
}
