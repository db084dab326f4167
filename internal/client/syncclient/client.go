// Package syncclient is the client end of the sync channel. It keeps a
// WebSocket session open, asks for a resync snapshot on every (re)connect and
// feeds server messages into a reconciler.
package syncclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/client/reconciler"
	"dispatch/internal/sync/protocol"

	"golang.org/x/net/websocket"
)

// ErrNotConnected is returned by Send between sessions.
var ErrNotConnected = errors.New("sync channel not connected")

// Reconnect backoff bounds used when Config leaves them unset.
const (
	DefaultMinBackoff = 500 * time.Millisecond
	DefaultMaxBackoff = 30 * time.Second
)

// Config describes the server endpoint and the session identity.
type Config struct {
	URL         string
	Origin      string
	Token       string
	RequesterID string
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
}

// Client owns one logical sync session across reconnects.
type Client struct {
	cfg        Config
	reconciler *reconciler.Reconciler
	logger     *slog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	onMessage func(protocol.Envelope)
	connected chan struct{}
}

// New returns a client feeding r. Run starts it.
func New(cfg Config, r *reconciler.Reconciler, logger *slog.Logger) *Client {
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = DefaultMinBackoff
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.Origin == "" {
		cfg.Origin = "http://localhost/"
	}
	return &Client{
		cfg:        cfg,
		reconciler: r,
		logger:     logger.With("component", "sync-client"),
		connected:  make(chan struct{}, 1),
	}
}

// OnMessage registers a hook called for every server message after the
// reconciler has seen it. Order errors and the proof token carried by a
// create-order ack only reach the hook.
func (c *Client) OnMessage(fn func(protocol.Envelope)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = fn
}

// Connected signals each successful (re)connect.
func (c *Client) Connected() <-chan struct{} {
	return c.connected
}

// Run keeps the session alive until ctx ends, backing off exponentially
// between failed attempts.
func (c *Client) Run(ctx context.Context) error {
	backoff := c.cfg.MinBackoff
	for {
		established, err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if established {
			backoff = c.cfg.MinBackoff
		}
		c.logger.WarnContext(ctx, "sync session ended",
			"error", err,
			"retryIn", backoff.String(),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, c.cfg.MaxBackoff)
	}
}

// Send writes a client message on the current session.
func (c *Client) Send(env protocol.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	return websocket.JSON.Send(c.conn, env)
}

func (c *Client) session(ctx context.Context) (bool, error) {
	wsCfg, err := websocket.NewConfig(c.cfg.URL, c.cfg.Origin)
	if err != nil {
		return false, err
	}
	if c.cfg.Token != "" {
		wsCfg.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	conn, err := wsCfg.DialContext(ctx)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer c.detach(conn)

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err = c.Send(protocol.Envelope{Type: protocol.TypeResyncRequest, RequesterID: c.cfg.RequesterID}); err != nil {
		return false, fmt.Errorf("resync request: %w", err)
	}
	select {
	case c.connected <- struct{}{}:
	default:
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var env protocol.Envelope
		if err = websocket.JSON.Receive(conn, &env); err != nil {
			return true, err
		}
		c.reconciler.Apply(env)

		c.mu.Lock()
		hook := c.onMessage
		c.mu.Unlock()
		if hook != nil {
			hook(env)
		}
	}
}

func (c *Client) detach(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close()
}
