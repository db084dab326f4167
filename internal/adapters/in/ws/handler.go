// Package ws serves the sync channel: one WebSocket per authenticated actor,
// fed by the hub and answering resync and create-order requests.
package ws

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"dispatch/internal/adapters/in/auth"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/sync/hub"
	"dispatch/internal/sync/protocol"

	"github.com/labstack/echo/v4"
	"golang.org/x/net/websocket"
)

// Handler upgrades authenticated requests to sync sessions. Every session is
// registered with the hub for pushed order events and answers two client
// requests: resync-request with a snapshot of the actor's active orders, and
// create-order with an ack carrying the new order's proof token.
type Handler struct {
	hub          *hub.Hub
	auth         *auth.Authenticator
	activeOrders queries.GetActiveOrdersQueryHandler
	createOrder  commands.CreateOrderCommandHandler
	logger       *slog.Logger
}

// NewHandler wires the handler to the hub and the two use cases it serves.
func NewHandler(
	h *hub.Hub,
	a *auth.Authenticator,
	activeOrders queries.GetActiveOrdersQueryHandler,
	createOrder commands.CreateOrderCommandHandler,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		hub:          h,
		auth:         a,
		activeOrders: activeOrders,
		createOrder:  createOrder,
		logger:       logger.With("component", "sync-channel"),
	}
}

// Serve handles GET /api/v1/sync. The token comes from the Authorization
// header or, for browsers, the token query parameter. Any origin is accepted:
// the channel is authorized by token, never by cookie.
func (h *Handler) Serve(ctx echo.Context) error {
	actor, err := h.auth.FromRequest(ctx.Request())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	server := websocket.Server{
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler: func(conn *websocket.Conn) {
			h.session(conn.Request().Context(), conn, actor)
		},
	}
	server.ServeHTTP(ctx.Response(), ctx.Request())
	return nil
}

func (h *Handler) session(ctx context.Context, conn *websocket.Conn, actor auth.Actor) {
	client := h.hub.Register(actor.ID.String(), actor.IsCourier())
	logger := h.logger.With("actorId", client.ActorID())
	logger.InfoContext(ctx, "sync session opened")

	written := make(chan struct{})
	go func() {
		defer close(written)
		h.write(conn, client, logger)
	}()

	h.read(ctx, conn, client, actor, logger)

	h.hub.Unregister(client)
	_ = conn.Close()
	<-written
	logger.InfoContext(ctx, "sync session closed")
}

// write drains the outbox. A closed outbox means the hub dropped the client,
// so the socket is closed to end the read loop too.
func (h *Handler) write(conn *websocket.Conn, client *hub.Client, logger *slog.Logger) {
	for env := range client.Outbox() {
		if err := websocket.JSON.Send(conn, env); err != nil {
			logger.Debug("sync write failed", "error", err)
			h.hub.Unregister(client)
			break
		}
	}
	_ = conn.Close()
	for range client.Outbox() {
	}
}

func (h *Handler) read(ctx context.Context, conn *websocket.Conn, client *hub.Client, actor auth.Actor, logger *slog.Logger) {
	for {
		var env protocol.Envelope
		if err := websocket.JSON.Receive(conn, &env); err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Debug("sync read ended", "error", err)
			}
			return
		}

		var reply protocol.Envelope
		switch env.Type {
		case protocol.TypeResyncRequest:
			reply = h.resync(ctx, actor)
		case protocol.TypeCreateOrder:
			reply = h.create(ctx, actor, env)
		default:
			reply = protocol.OrderError(env.OrderID, "unsupported message type "+string(env.Type))
		}

		if err := client.Send(reply); errors.Is(err, hub.ErrClosed) {
			return
		} else if errors.Is(err, hub.ErrOutboxFull) {
			h.hub.Unregister(client)
			return
		}
	}
}

func (h *Handler) resync(ctx context.Context, actor auth.Actor) protocol.Envelope {
	query, err := queries.NewGetActiveOrdersQuery(actor.ID)
	if err != nil {
		return protocol.OrderError("", err.Error())
	}
	views, err := h.activeOrders.Handle(ctx, query)
	if err != nil {
		h.logger.ErrorContext(ctx, "resync failed", "actorId", actor.ID.String(), "error", err)
		return protocol.OrderError("", "resync failed")
	}

	orders := make([]protocol.Order, 0, len(views))
	var locations []protocol.Location
	for _, v := range views {
		orders = append(orders, protocol.FromSnapshot(v.Order))
		if v.Location != nil {
			locations = append(locations, protocol.Location{
				CourierID: v.Location.CourierID.String(),
				OrderID:   v.Location.OrderID.String(),
				Lat:       v.Location.Point.Lat(),
				Lng:       v.Location.Point.Lng(),
				At:        v.Location.At,
			})
		}
	}
	return protocol.ResyncSnapshot(orders, locations)
}

func (h *Handler) create(ctx context.Context, actor auth.Actor, env protocol.Envelope) protocol.Envelope {
	if env.CreateOrder == nil {
		return protocol.CreateOrderFailed(env.RequestID, "createOrder payload is required")
	}
	p := env.CreateOrder
	cmd, err := commands.NewCreateOrderCommand(commands.CreateOrderParams{
		RequesterID:    actor.ID,
		IssuerName:     p.IssuerName,
		Pickup:         commands.AddressInput{Text: p.Pickup.Text, Lat: p.Pickup.Lat, Lng: p.Pickup.Lng},
		Dropoff:        commands.AddressInput{Text: p.Dropoff.Text, Lat: p.Dropoff.Lat, Lng: p.Dropoff.Lng},
		Method:         p.Method,
		RecipientName:  p.RecipientName,
		RecipientPhone: p.RecipientPhone,
		PayerType:      p.PayerType,
		PartialAmount:  p.PartialAmount,
	})
	if err != nil {
		return h.createFailed(ctx, actor, env.RequestID, err)
	}

	result, err := h.createOrder.Handle(ctx, cmd)
	if err != nil {
		return h.createFailed(ctx, actor, env.RequestID, err)
	}
	return protocol.CreateOrderAck(env.RequestID, result.Order.ID.String(), result.Token)
}

func (h *Handler) createFailed(ctx context.Context, actor auth.Actor, requestID string, err error) protocol.Envelope {
	reason, internal := failureReason(err)
	if internal {
		h.logger.ErrorContext(ctx, "create-order over sync failed", "actorId", actor.ID.String(), "error", err)
	}
	return protocol.CreateOrderFailed(requestID, reason)
}
