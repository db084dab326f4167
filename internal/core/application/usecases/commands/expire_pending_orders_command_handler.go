package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// ExpirePendingOrdersCommandHandler runs a sweep. Each candidate is expired
// in its own short transaction through the same conditional update as every
// other transition, so a courier accepting concurrently either wins (the
// sweep skips the order) or loses (assignment reports an invalid transition).
type ExpirePendingOrdersCommandHandler struct {
	uowFactory OrderUoWFactory
	now        Clock
	logger     *slog.Logger
}

// NewExpirePendingOrdersCommandHandler creates the handler shared by both
// sweeps.
func NewExpirePendingOrdersCommandHandler(uowFactory OrderUoWFactory, logger *slog.Logger) ExpirePendingOrdersCommandHandler {
	return ExpirePendingOrdersCommandHandler{
		uowFactory: uowFactory,
		now:        systemClock,
		logger:     logger.With("component", "expire-pending"),
	}
}

// WithClock replaces the time source used to compute candidate age.
func (h ExpirePendingOrdersCommandHandler) WithClock(now Clock) ExpirePendingOrdersCommandHandler {
	h.now = now
	return h
}

// Handle returns how many orders were expired. Failures on single orders are
// logged and skipped. A failed candidate query or a cancelled context ends
// the run early.
func (h ExpirePendingOrdersCommandHandler) Handle(ctx context.Context, cmd ExpirePendingOrdersCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	cutoff := h.now().Add(-cmd.OlderThan())
	candidates, err := h.uowFactory.Create().OrderRepository().ListUnassignedPendingBefore(ctx, cutoff, cmd.Batch())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, candidate := range candidates {
		if err = ctx.Err(); err != nil {
			return expired, err
		}

		ok, expireErr := h.expireOne(ctx, candidate, cmd)
		if expireErr != nil {
			h.logger.ErrorContext(ctx, "failed to expire order",
				"orderId", candidate.ID().String(),
				"target", cmd.Target().String(),
				"error", expireErr,
			)
			continue
		}
		if ok {
			expired++
		}
	}

	if expired > 0 {
		h.logger.InfoContext(ctx, "pending orders expired",
			"target", cmd.Target().String(),
			"count", expired,
		)
	}
	return expired, nil
}

// expireOne reports false without error when the order moved on in the
// meantime.
func (h ExpirePendingOrdersCommandHandler) expireOne(
	ctx context.Context,
	candidate *order.Order,
	cmd ExpirePendingOrdersCommand,
) (bool, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := candidate.Expire(cmd.Target(), cmd.Reason(), h.now()); err != nil {
		if errors.Is(err, order.ErrInvalidTransition) {
			return false, nil
		}
		return false, err
	}

	if err := uow.OrderRepository().Update(ctx, candidate); err != nil {
		if errors.Is(err, ports.ErrConcurrentModification) {
			return false, nil
		}
		return false, err
	}

	if err := uow.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
