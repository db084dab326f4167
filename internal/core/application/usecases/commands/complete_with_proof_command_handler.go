package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/proof"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

// ReasonInsufficientBalance is the scan rejection code when settlement fails.
const ReasonInsufficientBalance = "insufficient_balance"

// CompleteWithProofResult reports the completed order and, for revenue-share
// couriers, the commission deduction.
type CompleteWithProofResult struct {
	Order      order.Snapshot
	Settlement *commission.Transaction
}

// CompleteWithProofCommandHandler redeems a proof-of-delivery token.
//
// The order update, the commission settlement and the valid scan record are
// written in one transaction: if any of them fails nothing is kept and the
// order stays delivering. Every rejected attempt is then appended as an
// invalid scan record in a separate transaction.
type CompleteWithProofCommandHandler struct {
	uowFactory UoWFactory
	signer     services.ProofSigner
	now        Clock
	logger     *slog.Logger
}

// NewCompleteWithProofCommandHandler creates the handler. signer verifies the
// scanned token and must share the key used at order creation.
func NewCompleteWithProofCommandHandler(
	uowFactory UoWFactory,
	signer services.ProofSigner,
	logger *slog.Logger,
) CompleteWithProofCommandHandler {
	return CompleteWithProofCommandHandler{
		uowFactory: uowFactory,
		signer:     signer,
		now:        systemClock,
		logger:     logger.With("component", "complete-with-proof"),
	}
}

// WithClock replaces the time source used for expiry checks and timestamps.
func (h CompleteWithProofCommandHandler) WithClock(now Clock) CompleteWithProofCommandHandler {
	h.now = now
	return h
}

// Handle verifies the token, completes the order and settles the courier's
// commission. Rejections are returned as proof errors or
// commission.ErrInsufficientBalance and leave the order delivering; the
// attempt is still recorded with its rejection reason.
func (h CompleteWithProofCommandHandler) Handle(
	ctx context.Context,
	cmd CompleteWithProofCommand,
) (CompleteWithProofResult, error) {
	if err := cmd.Validate(); err != nil {
		return CompleteWithProofResult{}, err
	}

	result, err := h.complete(ctx, cmd)
	if err == nil {
		h.logger.InfoContext(ctx, "order completed with proof",
			"orderId", cmd.OrderID().String(),
			"courierId", cmd.ScannedBy().String(),
		)
		return result, nil
	}

	reason := rejectionReason(err)
	if reason == "" {
		return CompleteWithProofResult{}, err
	}

	if recErr := h.recordRejection(ctx, cmd, reason); recErr != nil {
		h.logger.ErrorContext(ctx, "failed to record rejected scan",
			"orderId", cmd.OrderID().String(),
			"reason", reason,
			"error", recErr,
		)
	}
	h.logger.InfoContext(ctx, "proof rejected",
		"orderId", cmd.OrderID().String(),
		"scannedBy", cmd.ScannedBy().String(),
		"reason", reason,
	)
	return CompleteWithProofResult{}, err
}

func (h CompleteWithProofCommandHandler) complete(
	ctx context.Context,
	cmd CompleteWithProofCommand,
) (CompleteWithProofResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return CompleteWithProofResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	scanRepo := uow.ScanRepository()

	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return CompleteWithProofResult{}, err
	}

	redeemed, err := scanRepo.HasValidScan(ctx, cmd.OrderID(), cmd.ScannedBy())
	if err != nil {
		return CompleteWithProofResult{}, err
	}

	now := h.now()
	if err = h.signer.CheckRedemption(cmd.Token(), o, cmd.ScannedBy(), redeemed, now); err != nil {
		return CompleteWithProofResult{}, err
	}

	if err = o.Complete(cmd.ScannedBy(), cmd.Token().Signature, now); err != nil {
		return CompleteWithProofResult{}, err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		if errors.Is(err, ports.ErrConcurrentModification) {
			return CompleteWithProofResult{}, h.explainLostRace(ctx, cmd)
		}
		return CompleteWithProofResult{}, err
	}

	settlement, err := settle(ctx, uow.CommissionRepository(), o, now)
	if err != nil {
		return CompleteWithProofResult{}, err
	}

	if err = scanRepo.Add(ctx, proof.NewValidScan(o.ID(), cmd.ScannedBy(), cmd.Token(), cmd.ScanContext(), now)); err != nil {
		return CompleteWithProofResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return CompleteWithProofResult{}, err
	}

	return CompleteWithProofResult{Order: o.Snapshot(), Settlement: settlement}, nil
}

// explainLostRace re-runs the redemption checks against the state that won
// the race, so a concurrent duplicate scan reports ErrAlreadyRedeemed.
func (h CompleteWithProofCommandHandler) explainLostRace(ctx context.Context, cmd CompleteWithProofCommand) error {
	uow := h.uowFactory.Create()
	o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	redeemed, err := uow.ScanRepository().HasValidScan(ctx, cmd.OrderID(), cmd.ScannedBy())
	if err != nil {
		return err
	}
	if err = h.signer.CheckRedemption(cmd.Token(), o, cmd.ScannedBy(), redeemed, h.now()); err != nil {
		return err
	}
	return ports.ErrConcurrentModification
}

func (h CompleteWithProofCommandHandler) recordRejection(ctx context.Context, cmd CompleteWithProofCommand, reason string) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	rec := proof.NewRejectedScan(cmd.OrderID(), cmd.ScannedBy(), cmd.Token(), cmd.ScanContext(), h.now(), reason)
	if err := uow.ScanRepository().Add(ctx, rec); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

func rejectionReason(err error) string {
	switch {
	case services.IsRejection(err):
		return proof.ReasonCode(err)
	case errors.Is(err, commission.ErrInsufficientBalance):
		return ReasonInsufficientBalance
	default:
		return ""
	}
}
