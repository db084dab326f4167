// Package events routes committed domain events to their consumers: the sync
// channel, the courier pool broadcast and the low-balance notifier.
package events

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/metrics"
)

// Dispatcher implements ports.EventPublisher. Every consumer is attempted;
// failures are joined into the returned error.
type Dispatcher struct {
	sync        ports.EventPublisher
	broadcaster ports.CourierBroadcaster
	notifier    ports.LowBalanceNotifier
	logger      *slog.Logger
}

// NewDispatcher wires the consumers. broadcaster and notifier may be nil when
// no broker is configured.
func NewDispatcher(
	sync ports.EventPublisher,
	broadcaster ports.CourierBroadcaster,
	notifier ports.LowBalanceNotifier,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		sync:        sync,
		broadcaster: broadcaster,
		notifier:    notifier,
		logger:      logger.With("component", "event-dispatcher"),
	}
}

// Publish fans events out to the sync bus first, then to the side channels:
// new orders to the courier broadcast, low balance warnings to the
// notification exchange. Every sink is attempted; failures are joined.
func (d *Dispatcher) Publish(ctx context.Context, events ...kernel.DomainEvent) error {
	var failures []error
	if d.sync != nil {
		if err := d.sync.Publish(ctx, events...); err != nil {
			failures = append(failures, err)
		}
	}

	for _, ev := range events {
		switch e := ev.(type) {
		case order.Event:
			metrics.OrderEventsTotal.WithLabelValues(string(e.Kind)).Inc()
			if e.Kind == order.EventCreated && d.broadcaster != nil {
				if err := d.broadcaster.BroadcastPending(ctx, e.Order); err != nil {
					failures = append(failures, err)
				}
			}
		case commission.Event:
			metrics.CommissionEventsTotal.WithLabelValues(string(e.Kind)).Inc()
			if e.Kind == commission.EventLowBalance && d.notifier != nil {
				if err := d.notifier.NotifyLowBalance(ctx, e); err != nil {
					failures = append(failures, err)
				}
			}
		}
	}

	if err := errors.Join(failures...); err != nil {
		d.logger.ErrorContext(ctx, "event delivery incomplete", "error", err)
		return err
	}
	return nil
}
