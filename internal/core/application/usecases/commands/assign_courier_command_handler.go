package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// AssignCourierCommandHandler lets the first eligible courier claim a pending
// order. Two couriers racing for the same order both pass the in-memory
// checks; the conditional update lets exactly one through and the loser gets
// order.ErrAlreadyAssigned.
type AssignCourierCommandHandler struct {
	uowFactory UoWFactory
	now        Clock
	logger     *slog.Logger
}

// NewAssignCourierCommandHandler creates a handler for courier acceptance.
// It needs a UoWFactory spanning orders and the ledger, because eligibility is
// checked in the same transaction as the claim.
func NewAssignCourierCommandHandler(uowFactory UoWFactory, logger *slog.Logger) AssignCourierCommandHandler {
	return AssignCourierCommandHandler{
		uowFactory: uowFactory,
		now:        systemClock,
		logger:     logger.With("component", "assign-courier"),
	}
}

// WithClock replaces the time source.
func (h AssignCourierCommandHandler) WithClock(now Clock) AssignCourierCommandHandler {
	h.now = now
	return h
}

// Handle claims the order for cmd.CourierID.
//
// Errors:
//   - commission.ErrCourierIneligible when the ledger forbids new work
//   - order.ErrAlreadyAssigned when another courier got there first
//   - an order.TransitionError when the order is no longer pending
//   - errs.ErrObjectNotFound for an unknown order
func (h AssignCourierCommandHandler) Handle(ctx context.Context, cmd AssignCourierCommand) (order.Snapshot, error) {
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

	if err := checkEligible(ctx, uow.CommissionRepository(), cmd); err != nil {
		return order.Snapshot{}, err
	}

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return order.Snapshot{}, err
	}

	if err = o.Assign(cmd.CourierID(), h.now()); err != nil {
		return order.Snapshot{}, err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		if errors.Is(err, ports.ErrConcurrentModification) {
			return order.Snapshot{}, h.explainLostRace(ctx, cmd)
		}
		return order.Snapshot{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return order.Snapshot{}, err
	}

	h.logger.InfoContext(ctx, "courier assigned",
		"orderId", cmd.OrderID().String(),
		"courierId", cmd.CourierID().String(),
	)
	return o.Snapshot(), nil
}

// explainLostRace reloads the order outside the failed transaction to tell an
// earlier claim apart from a sweep that expired the order.
func (h AssignCourierCommandHandler) explainLostRace(ctx context.Context, cmd AssignCourierCommand) error {
	current, err := h.uowFactory.Create().OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	if current.Courier() != nil && !current.IsTerminal() {
		return order.ErrAlreadyAssigned
	}
	return order.NewTransitionError(current.Status(), order.Accepted)
}

// checkEligible applies canAcceptWork. Couriers without a ledger account are
// employed and always eligible.
func checkEligible(ctx context.Context, repo ports.CommissionRepository, cmd AssignCourierCommand) error {
	account, err := repo.Get(ctx, cmd.CourierID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !account.CanAcceptWork() {
		return commission.ErrCourierIneligible
	}
	return nil
}
