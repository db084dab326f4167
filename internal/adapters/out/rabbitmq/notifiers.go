package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/sync/protocol"
)

type publisher interface {
	Publish(ctx context.Context, exchange, key string, body []byte) error
}

// CourierBroadcaster implements ports.CourierBroadcaster. The message body
// is the redacted order-created envelope broadcast couriers receive over the
// sync channel.
type CourierBroadcaster struct {
	pub publisher
}

// NewCourierBroadcaster publishes through pub, normally a *Client.
func NewCourierBroadcaster(pub publisher) *CourierBroadcaster {
	return &CourierBroadcaster{pub: pub}
}

// BroadcastPending offers a pending order to every courier consumer.
func (b *CourierBroadcaster) BroadcastPending(ctx context.Context, s order.Snapshot) error {
	wire := protocol.FromSnapshot(s)
	body, err := json.Marshal(protocol.Envelope{
		Type:    protocol.TypeOrderCreated,
		OrderID: wire.ID,
		Version: wire.Version,
		Status:  wire.Status,
		Order:   &wire,
	}.Redacted())
	if err != nil {
		return err
	}
	if err = b.pub.Publish(ctx, PendingOrdersExchange, "", body); err != nil {
		return fmt.Errorf("failed to broadcast order %s: %w", wire.ID, err)
	}
	return nil
}

type lowBalanceMessage struct {
	Type      string    `json:"type"`
	CourierID string    `json:"courierId"`
	Balance   int64     `json:"balance"`
	Threshold int64     `json:"threshold"`
	At        time.Time `json:"at"`
}

// LowBalanceNotifier implements ports.LowBalanceNotifier. Messages are routed
// with key commission.low_balance.<courierId>.
type LowBalanceNotifier struct {
	pub publisher
}

// NewLowBalanceNotifier publishes through pub, usually a *Client.
func NewLowBalanceNotifier(pub publisher) *LowBalanceNotifier {
	return &LowBalanceNotifier{pub: pub}
}

// NotifyLowBalance sends the warning to the courier's routing key.
func (n *LowBalanceNotifier) NotifyLowBalance(ctx context.Context, ev commission.Event) error {
	body, err := json.Marshal(lowBalanceMessage{
		Type:      string(ev.Kind),
		CourierID: ev.CourierID.String(),
		Balance:   ev.Balance,
		Threshold: ev.Threshold,
		At:        ev.At.UTC(),
	})
	if err != nil {
		return err
	}
	key := string(commission.EventLowBalance) + "." + ev.CourierID.String()
	if err = n.pub.Publish(ctx, NotificationsExchange, key, body); err != nil {
		return fmt.Errorf("failed to notify courier %s: %w", ev.CourierID, err)
	}
	return nil
}
