package queries_test

import (
	"testing"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func account(t *testing.T, courier kernel.UUID, revenueShare bool, balance int64) *commission.Account {
	t.Helper()
	a, err := commission.NewAccount(commission.NewAccountParams{
		CourierID: courier, RatePercent: 12.5, IsRevenueShare: revenueShare, LowBalanceThreshold: 200, CreatedAt: fixedNow,
	})
	require.NoError(t, err)
	if balance > 0 {
		_, err = a.Recharge(balance, fixedNow)
		require.NoError(t, err)
	}
	return a
}

func TestGetCommissionAccountQueryHandler_Handle(t *testing.T) {
	ctx := t.Context()
	courier := kernel.NewUUID()
	reader := new(MockCommissionReader)
	reader.On("Get", ctx, courier).Return(account(t, courier, true, 0), nil).Once()

	q, err := queries.NewGetCommissionAccountQuery(courier)
	require.NoError(t, err)
	view, err := queries.NewGetCommissionAccountQueryHandler(reader).Handle(ctx, q)

	require.NoError(t, err)
	assert.Zero(t, view.Balance)
	assert.True(t, view.IsSuspended)
	assert.False(t, view.CanAcceptWork)
	assert.InDelta(t, 12.5, view.RatePercent, 1e-9)
}

func TestCanAcceptWorkQueryHandler_Handle(t *testing.T) {
	tests := []struct {
		name    string
		account func(t *testing.T, id kernel.UUID) (*commission.Account, error)
		want    bool
	}{
		{
			name: "funded revenue share",
			account: func(t *testing.T, id kernel.UUID) (*commission.Account, error) {
				return account(t, id, true, 500), nil
			},
			want: true,
		},
		{
			name: "empty revenue share",
			account: func(t *testing.T, id kernel.UUID) (*commission.Account, error) {
				return account(t, id, true, 0), nil
			},
			want: false,
		},
		{
			name: "salaried account",
			account: func(t *testing.T, id kernel.UUID) (*commission.Account, error) {
				return account(t, id, false, 0), nil
			},
			want: true,
		},
		{
			name: "no account",
			account: func(_ *testing.T, id kernel.UUID) (*commission.Account, error) {
				return nil, errs.NewObjectNotFoundError("commission account", id)
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			courier := kernel.NewUUID()
			a, getErr := tt.account(t, courier)
			reader := new(MockCommissionReader)
			reader.On("Get", ctx, courier).Return(a, getErr)

			q, err := queries.NewGetCommissionAccountQuery(courier)
			require.NoError(t, err)
			ok, err := queries.NewCanAcceptWorkQueryHandler(reader).Handle(ctx, q)

			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestNewListCommissionTransactionsQuery(t *testing.T) {
	q, err := queries.NewListCommissionTransactionsQuery(kernel.NewUUID(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Page())
	assert.Equal(t, queries.DefaultPageSize, q.PageSize())

	_, err = queries.NewListCommissionTransactionsQuery(kernel.NewUUID(), -1, 500)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}

func TestListCommissionTransactionsQueryHandler_Handle(t *testing.T) {
	ctx := t.Context()
	courier := kernel.NewUUID()
	a := account(t, courier, true, 0)
	tx, err := a.Recharge(300, fixedNow)
	require.NoError(t, err)

	reader := new(MockCommissionReader)
	reader.On("Get", ctx, courier).Return(a, nil).Once()
	reader.On("ListTransactions", ctx, courier, 2, 1).Return([]commission.Transaction{*tx}, int64(2), nil).Once()

	q, err := queries.NewListCommissionTransactionsQuery(courier, 2, 1)
	require.NoError(t, err)
	page, err := queries.NewListCommissionTransactionsQueryHandler(reader).Handle(ctx, q)

	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, int64(300), page.Transactions[0].BalanceAfter)
}

func TestListCommissionTransactionsQueryHandler_Handle_UnknownCourier(t *testing.T) {
	ctx := t.Context()
	courier := kernel.NewUUID()
	reader := new(MockCommissionReader)
	reader.On("Get", ctx, courier).Return(nil, errs.NewObjectNotFoundError("commission account", courier)).Once()

	q, err := queries.NewListCommissionTransactionsQuery(courier, 1, 10)
	require.NoError(t, err)
	_, err = queries.NewListCommissionTransactionsQueryHandler(reader).Handle(ctx, q)

	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}
