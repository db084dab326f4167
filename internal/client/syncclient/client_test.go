package syncclient_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dispatch/internal/client/reconciler"
	"dispatch/internal/client/syncclient"
	"dispatch/internal/sync/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

// fakeServer answers each resync-request with a snapshot, pushes one update
// and drops the first connection to force a reconnect.
type fakeServer struct {
	requests chan protocol.Envelope
	headers  chan string
}

func (s *fakeServer) handle(conn *websocket.Conn) {
	s.headers <- conn.Request().Header.Get("Authorization")

	var req protocol.Envelope
	if err := websocket.JSON.Receive(conn, &req); err != nil {
		return
	}
	s.requests <- req

	order := protocol.Order{ID: "o1", Version: 2, Status: "accepted", RequesterID: req.RequesterID}
	_ = websocket.JSON.Send(conn, protocol.ResyncSnapshot([]protocol.Order{order}, nil))

	order.Version, order.Status = 3, "enroute"
	_ = websocket.JSON.Send(conn, protocol.Envelope{
		Type: protocol.TypeDeliveryStatusUpdate, OrderID: "o1", Version: 3, Status: "enroute", Order: &order,
	})

	var ignored protocol.Envelope
	_ = websocket.JSON.Receive(conn, &ignored)
}

func TestClient_ResyncsOnEveryConnect(t *testing.T) {
	fake := &fakeServer{requests: make(chan protocol.Envelope, 4), headers: make(chan string, 4)}
	srv := httptest.NewServer(websocket.Handler(fake.handle))
	defer srv.Close()

	rec := reconciler.New(reconciler.Options{})
	client := syncclient.New(syncclient.Config{
		URL:         "ws" + strings.TrimPrefix(srv.URL, "http"),
		Token:       "token-1",
		RequesterID: "requester-1",
		MinBackoff:  10 * time.Millisecond,
		MaxBackoff:  20 * time.Millisecond,
	}, rec, slog.New(slog.NewTextHandler(io.Discard, nil)))

	updates := make(chan protocol.Envelope, 8)
	client.OnMessage(func(env protocol.Envelope) { updates <- env })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	select {
	case header := <-fake.headers:
		assert.Equal(t, "Bearer token-1", header)
	case <-time.After(5 * time.Second):
		t.Fatal("client never connected")
	}
	select {
	case req := <-fake.requests:
		assert.Equal(t, protocol.TypeResyncRequest, req.Type)
		assert.Equal(t, "requester-1", req.RequesterID)
	case <-time.After(5 * time.Second):
		t.Fatal("no resync request")
	}

	require.Eventually(t, func() bool {
		o, ok := rec.Get("o1")
		return ok && o.Version == 3
	}, 5*time.Second, 10*time.Millisecond)

	// The server ends the first session once the client says anything.
	require.NoError(t, client.Send(protocol.Envelope{Type: protocol.TypeResyncRequest, RequesterID: "requester-1"}))
	select {
	case <-fake.requests:
	case <-time.After(5 * time.Second):
		t.Fatal("client did not reconnect")
	}

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestClient_SendWithoutSession(t *testing.T) {
	client := syncclient.New(syncclient.Config{URL: "ws://127.0.0.1:1/"}, reconciler.New(reconciler.Options{}),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.ErrorIs(t, client.Send(protocol.Envelope{Type: protocol.TypeResyncRequest}), syncclient.ErrNotConnected)
}
