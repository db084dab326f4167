package order_test

import (
	"testing"

	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []order.Status{
	order.Pending, order.Accepted, order.Enroute, order.PickedUp,
	order.Delivering, order.Completed, order.Cancelled, order.Declined,
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   order.Status
		expected string
	}{
		{order.Unknown, "unknown"},
		{order.Pending, "pending"},
		{order.Accepted, "accepted"},
		{order.Enroute, "enroute"},
		{order.PickedUp, "picked_up"},
		{order.Delivering, "delivering"},
		{order.Completed, "completed"},
		{order.Cancelled, "cancelled"},
		{order.Declined, "declined"},
		{order.Status(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range allStatuses {
		parsed, err := order.ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := order.ParseStatus("unknown")
	require.Error(t, err)

	_, err = order.ParseStatus("shipped")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status is invalid")
}

func TestStatus_Validate(t *testing.T) {
	for _, s := range allStatuses {
		require.NoError(t, s.Validate(), s.String())
	}
	require.Error(t, order.Unknown.Validate())
	require.Error(t, order.Status(42).Validate())
}

func TestStatus_TransitionTable(t *testing.T) {
	legal := map[order.Status][]order.Status{
		order.Pending:    {order.Accepted, order.Cancelled, order.Declined},
		order.Accepted:   {order.Enroute, order.Cancelled},
		order.Enroute:    {order.PickedUp, order.Cancelled},
		order.PickedUp:   {order.Delivering},
		order.Delivering: {order.Completed},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			err := from.CanTransitionTo(to)
			if contains(legal[from], to) {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			require.ErrorIs(t, err, order.ErrInvalidTransition, "%s -> %s", from, to)
		}
	}
}

func TestStatus_TerminalStatesHaveNoExit(t *testing.T) {
	for _, from := range []order.Status{order.Completed, order.Cancelled, order.Declined} {
		assert.True(t, from.IsTerminal())
		for _, to := range allStatuses {
			require.ErrorIs(t, from.CanTransitionTo(to), order.ErrInvalidTransition)
		}
	}
}

func TestActiveStatuses_AreExactlyTheNonTerminalOnes(t *testing.T) {
	active := order.ActiveStatuses()
	for _, s := range allStatuses {
		assert.Equal(t, !s.IsTerminal(), contains(active, s), s.String())
	}
}

func TestStatus_ValidateCanHaveCourier(t *testing.T) {
	require.NoError(t, order.Pending.ValidateCanHaveCourier(false))
	require.Error(t, order.Pending.ValidateCanHaveCourier(true))
	require.Error(t, order.Accepted.ValidateCanHaveCourier(false))
	require.NoError(t, order.Delivering.ValidateCanHaveCourier(true))
	require.NoError(t, order.Cancelled.ValidateCanHaveCourier(true))
	require.NoError(t, order.Cancelled.ValidateCanHaveCourier(false))
	require.Error(t, order.Declined.ValidateCanHaveCourier(true))
}

func TestStatus_TextRoundTrip(t *testing.T) {
	text, err := order.PickedUp.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "picked_up", string(text))

	var s order.Status
	require.NoError(t, s.UnmarshalText(text))
	assert.Equal(t, order.PickedUp, s)
}

func TestTransitionError_Message(t *testing.T) {
	err := order.NewTransitionErrorWithReason(order.Delivering, order.Completed, "requires proof of delivery")

	assert.Equal(t, "invalid transition: delivering -> completed (requires proof of delivery)", err.Error())
	require.ErrorIs(t, err, order.ErrInvalidTransition)
}

func contains(list []order.Status, s order.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
