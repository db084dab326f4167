package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrListCommissionTransactionsQueryIsNotConstructed is returned by Validate on
// a zero value.
var ErrListCommissionTransactionsQueryIsNotConstructed = errors.New(
	"ListCommissionTransactionsQuery must be created via NewListCommissionTransactionsQuery constructor",
)

// Paging limits of the ledger listing.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListCommissionTransactionsQuery pages a courier's ledger, newest first.
// A zero page or page size selects the default.
type ListCommissionTransactionsQuery struct {
	courierID kernel.UUID
	page      int
	pageSize  int

	guard guard.ConstructorGuard
}

// NewListCommissionTransactionsQuery applies the defaults and rejects page
// sizes above MaxPageSize.
func NewListCommissionTransactionsQuery(courierID kernel.UUID, page, pageSize int) (ListCommissionTransactionsQuery, error) {
	q := ListCommissionTransactionsQuery{page: page, pageSize: pageSize, guard: guard.NewConstructorGuard()}
	if q.page == 0 {
		q.page = 1
	}
	if q.pageSize == 0 {
		q.pageSize = DefaultPageSize
	}

	var idErr, pageErr, sizeErr error
	if courierID.Validate() != nil {
		idErr = errs.NewValueIsRequiredError("courier id")
	}
	if q.page < 1 {
		pageErr = errs.NewValueIsOutOfRangeError("page", page, 1, "unbounded")
	}
	if q.pageSize < 1 || q.pageSize > MaxPageSize {
		sizeErr = errs.NewValueIsOutOfRangeError("page size", pageSize, 1, MaxPageSize)
	}
	if err := errors.Join(idErr, pageErr, sizeErr); err != nil {
		return ListCommissionTransactionsQuery{}, err
	}
	q.courierID = courierID
	return q, nil
}

// Validate ensures the query was created through the constructor.
func (q ListCommissionTransactionsQuery) Validate() error {
	return q.guard.Validate(ErrListCommissionTransactionsQueryIsNotConstructed)
}

// CourierID returns the ledger owner.
func (q ListCommissionTransactionsQuery) CourierID() kernel.UUID { return q.courierID }

// Page is one-based.
func (q ListCommissionTransactionsQuery) Page() int { return q.page }

// PageSize returns the number of lines per page.
func (q ListCommissionTransactionsQuery) PageSize() int { return q.pageSize }

// TransactionPage is one page of ledger lines plus the total line count.
type TransactionPage struct {
	Transactions []commission.Transaction
	Total        int64
	Page         int
	PageSize     int
}
