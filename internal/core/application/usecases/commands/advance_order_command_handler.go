package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/order"
)

// AdvanceOrderCommandHandler applies a participant transition with a single
// conditional update keyed on the status and version that were read.
type AdvanceOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	now        Clock
	logger     *slog.Logger
}

// NewAdvanceOrderCommandHandler creates the handler.
func NewAdvanceOrderCommandHandler(uowFactory OrderUoWFactory, logger *slog.Logger) AdvanceOrderCommandHandler {
	return AdvanceOrderCommandHandler{
		uowFactory: uowFactory,
		now:        systemClock,
		logger:     logger.With("component", "advance-order"),
	}
}

// WithClock replaces the time source.
func (h AdvanceOrderCommandHandler) WithClock(now Clock) AdvanceOrderCommandHandler {
	h.now = now
	return h
}

// Handle moves the order to cmd.Target. Cancellation goes through
// order.Cancel, every other target through order.Advance; both reject actors
// who are not participants with order.ErrUnauthorized.
//
// A concurrent writer makes the conditional update fail with
// ports.ErrConcurrentModification and nothing is written.
func (h AdvanceOrderCommandHandler) Handle(ctx context.Context, cmd AdvanceOrderCommand) (order.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return order.Snapshot{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return order.Snapshot{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return order.Snapshot{}, err
	}
	from := o.Status()

	if cmd.Target() == order.Cancelled {
		err = o.Cancel(cmd.ActorID(), cmd.Reason(), h.now())
	} else {
		err = o.Advance(cmd.Target(), cmd.ActorID(), h.now())
	}
	if err != nil {
		return order.Snapshot{}, err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return order.Snapshot{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return order.Snapshot{}, err
	}

	h.logger.InfoContext(ctx, "order advanced",
		"orderId", o.ID().String(),
		"from", from.String(),
		"to", o.Status().String(),
		"actorId", cmd.ActorID().String(),
	)
	return o.Snapshot(), nil
}
