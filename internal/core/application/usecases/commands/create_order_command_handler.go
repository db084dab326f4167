package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/proof"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

// CreateOrderResult is what the requester receives.
type CreateOrderResult struct {
	Order order.Snapshot
	Token proof.Token
}

// CreateOrderCommandHandler prices the route, persists a pending order and
// issues its proof-of-delivery token.
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	estimator  ports.Estimator
	signer     services.ProofSigner
	now        Clock
	logger     *slog.Logger
}

// NewCreateOrderCommandHandler wires the tariff estimator that prices the
// route and the signer that issues proof tokens.
func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory,
	estimator ports.Estimator,
	signer services.ProofSigner,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		estimator:  estimator,
		signer:     signer,
		now:        systemClock,
		logger:     logger.With("component", "create-order"),
	}
}

// WithClock replaces the time source.
func (h CreateOrderCommandHandler) WithClock(now Clock) CreateOrderCommandHandler {
	h.now = now
	return h
}

// Handle quotes the route, builds the order with its payment and signs the
// token before anything is written, so a failed estimate or signature leaves
// no order behind. The unit of work publishes EventCreated on commit.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (CreateOrderResult, error) {
	if err := cmd.Validate(); err != nil {
		return CreateOrderResult{}, err
	}

	quote, err := h.estimator.Estimate(ctx, cmd.Pickup().Point(), cmd.Dropoff().Point(), cmd.Method())
	if err != nil {
		return CreateOrderResult{}, err
	}

	payment, err := order.NewPayment(cmd.PayerType(), quote.PriceAmount, cmd.PartialAmount())
	if err != nil {
		return CreateOrderResult{}, err
	}

	now := h.now()
	o, err := order.NewOrder(order.NewOrderParams{
		ID:             kernel.NewUUID(),
		Reference:      order.NewReference(),
		RequesterID:    cmd.RequesterID(),
		Pickup:         cmd.Pickup(),
		Dropoff:        cmd.Dropoff(),
		Method:         cmd.Method(),
		Quote:          quote,
		Payment:        payment,
		RecipientName:  cmd.RecipientName(),
		RecipientPhone: cmd.RecipientPhone(),
		CreatedAt:      now,
	})
	if err != nil {
		return CreateOrderResult{}, err
	}

	token, err := h.signer.Issue(o, cmd.IssuerName(), now)
	if err != nil {
		return CreateOrderResult{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return CreateOrderResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return CreateOrderResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return CreateOrderResult{}, err
	}

	h.logger.InfoContext(ctx, "order created",
		"orderId", o.ID().String(),
		"reference", o.Reference().String(),
		"method", o.Method().String(),
		"price", o.PriceAmount(),
	)

	return CreateOrderResult{Order: o.Snapshot(), Token: token}, nil
}
