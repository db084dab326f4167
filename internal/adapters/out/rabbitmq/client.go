// Package rabbitmq publishes dispatch notifications to RabbitMQ: new pending
// orders offered to the courier pool and low-balance alerts for the
// notification service.
package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// PendingOrdersExchange fans a new order out to every courier-facing
	// consumer.
	PendingOrdersExchange = "dispatch.orders.pending"

	// NotificationsExchange routes per-courier alerts by topic.
	NotificationsExchange = "dispatch.notifications"
)

var ErrNacked = errors.New("publish NACK from broker")

// Client owns one connection and one confirm-mode channel.
type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	acks <-chan amqp.Confirmation
	mu   sync.Mutex // serializes Publish so confirms match
}

// Dial connects and puts the channel into confirm mode.
func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err = ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	return &Client{conn: conn, ch: ch, acks: acks}, nil
}

// DeclareTopology creates the exchanges this service publishes to.
func (c *Client) DeclareTopology() error {
	if err := c.ch.ExchangeDeclare(PendingOrdersExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return err
	}
	return c.ch.ExchangeDeclare(NotificationsExchange, amqp.ExchangeTopic, true, false, false, false, nil)
}

// Channel exposes the confirm-mode channel for tests.
func (c *Client) Channel() *amqp.Channel { return c.ch }

// Ping backs the health check.
func (c *Client) Ping() error {
	if c.conn == nil || c.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

// Publish sends a persistent JSON message and waits for the broker confirm.
func (c *Client) Publish(ctx context.Context, exchange, key string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return err
	}

	select {
	case conf := <-c.acks:
		if conf.Ack {
			return nil
		}
		return ErrNacked
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the channel and the connection, ignoring errors.
func (c *Client) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
