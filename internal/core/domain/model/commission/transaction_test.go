package commission_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplay(t *testing.T) {
	t.Run("reproduces the account balance", func(t *testing.T) {
		a := newRevenueShareAccount(t, 20, 0)
		var log []commission.Transaction
		at := now
		record := func(tx *commission.Transaction, err error) {
			require.NoError(t, err)
			log = append(log, *tx)
		}

		record(a.Recharge(1000, at))
		at = at.Add(time.Second)
		record(a.Settle(kernel.NewUUID(), 1000, at))
		record(a.Settle(kernel.NewUUID(), 2500, at))
		at = at.Add(time.Second)
		record(a.Recharge(50, at))

		// shuffle to show replay does its own ordering
		log[0], log[3] = log[3], log[0]

		balance, err := commission.Replay(log)

		require.NoError(t, err)
		assert.Equal(t, a.Balance(), balance)
		assert.Equal(t, int64(350), balance)
	})

	t.Run("empty log replays to zero", func(t *testing.T) {
		balance, err := commission.Replay(nil)
		require.NoError(t, err)
		assert.Zero(t, balance)
	})

	t.Run("detects a tampered line", func(t *testing.T) {
		a := newRevenueShareAccount(t, 20, 0)
		tx, err := a.Recharge(1000, now)
		require.NoError(t, err)
		bad := *tx
		bad.Amount = 900

		_, err = commission.Replay([]commission.Transaction{bad})

		require.ErrorIs(t, err, commission.ErrLedgerDrift)
		var drift *commission.DriftError
		require.ErrorAs(t, err, &drift)
		assert.Equal(t, int64(1), drift.Sequence)
	})
}

func TestTransactionType_Validate(t *testing.T) {
	require.NoError(t, commission.TransactionRecharge.Validate())
	require.NoError(t, commission.TransactionDeduction.Validate())
	require.NoError(t, commission.TransactionRefund.Validate())
	require.Error(t, commission.TransactionType("bonus").Validate())
}
