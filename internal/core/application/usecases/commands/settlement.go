package commands

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// settle deducts the commission of a completed order inside the caller's
// transaction. Couriers without an account are employed and settle as a
// no-op, as do accounts that are not revenue-share.
func settle(
	ctx context.Context,
	repo ports.CommissionRepository,
	o *order.Order,
	now time.Time,
) (*commission.Transaction, error) {
	courier := o.Courier()
	if courier == nil {
		return nil, errs.NewValueIsRequiredError("courier id")
	}

	account, err := repo.GetForUpdate(ctx, *courier)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, nil //nolint:nilnil // employed courier
	}
	if err != nil {
		return nil, err
	}

	tx, err := account.Settle(o.ID(), o.PriceAmount(), now)
	if err != nil || tx == nil {
		return nil, err
	}

	if err = repo.Update(ctx, account); err != nil {
		return nil, err
	}
	if err = repo.AppendTransaction(ctx, *tx); err != nil {
		return nil, err
	}
	return tx, nil
}
