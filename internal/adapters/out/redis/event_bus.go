package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/sync/protocol"

	"github.com/redis/go-redis/v9"
)

// DefaultSyncChannel is used when no channel is configured.
const DefaultSyncChannel = "dispatch:sync"

// EventBus carries routed sync messages between instances over Redis pub/sub.
// Publish is the ports.EventPublisher side; Run feeds every instance's hub.
type EventBus struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewEventBus uses DefaultSyncChannel when channel is empty.
func NewEventBus(client *redis.Client, channel string, logger *slog.Logger) *EventBus {
	if channel == "" {
		channel = DefaultSyncChannel
	}
	return &EventBus{
		client:  client,
		channel: channel,
		logger:  logger.With("component", "redis-event-bus"),
	}
}

// Publish routes each event to its audience and publishes the result. Events
// with no sync message, such as ledger events, are skipped.
func (b *EventBus) Publish(ctx context.Context, events ...kernel.DomainEvent) error {
	for _, ev := range events {
		msg, ok := protocol.Route(ev)
		if !ok {
			continue
		}
		body, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", ev.EventName(), err)
		}
		if err = b.client.Publish(ctx, b.channel, body).Err(); err != nil {
			return fmt.Errorf("failed to publish %s: %w", ev.EventName(), err)
		}
	}
	return nil
}

// Run subscribes and hands every message to deliver until ctx ends.
// ready, when not nil, is closed once the subscription is confirmed.
func (b *EventBus) Run(ctx context.Context, deliver func(protocol.Outbound), ready chan<- struct{}) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer func() {
		_ = sub.Close()
	}()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	if ready != nil {
		close(ready)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-messages:
			if !ok {
				return nil
			}
			var msg protocol.Outbound
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				b.logger.ErrorContext(ctx, "dropping malformed sync message", "error", err)
				continue
			}
			deliver(msg)
		}
	}
}
