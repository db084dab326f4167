package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrGetCommissionAccountQueryIsNotConstructed is returned by Validate on a zero
// value.
var ErrGetCommissionAccountQueryIsNotConstructed = errors.New(
	"GetCommissionAccountQuery must be created via NewGetCommissionAccountQuery constructor",
)

// GetCommissionAccountQuery reads one courier's ledger account. The
// eligibility check takes the same query.
type GetCommissionAccountQuery struct {
	courierID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetCommissionAccountQuery requires the courier.
func NewGetCommissionAccountQuery(courierID kernel.UUID) (GetCommissionAccountQuery, error) {
	if courierID.Validate() != nil {
		return GetCommissionAccountQuery{}, errs.NewValueIsRequiredError("courier id")
	}
	return GetCommissionAccountQuery{courierID: courierID, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetCommissionAccountQuery) Validate() error {
	return q.guard.Validate(ErrGetCommissionAccountQueryIsNotConstructed)
}

// CourierID returns the courier whose account is read.
func (q GetCommissionAccountQuery) CourierID() kernel.UUID { return q.courierID }

// CommissionAccountView is the reporting shape of a ledger account.
type CommissionAccountView struct {
	CourierID           kernel.UUID
	Balance             int64
	MinimumBalance      int64
	RatePercent         float64
	IsSuspended         bool
	IsRevenueShare      bool
	LowBalanceThreshold int64
	CanAcceptWork       bool
}
