package auth_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"dispatch/internal/adapters/in/auth"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticator(t *testing.T) {
	a, err := auth.NewAuthenticator("secret")
	require.NoError(t, err)
	actor := auth.Actor{ID: kernel.NewUUID(), Role: auth.RoleCourier}

	t.Run("round trip through the header", func(t *testing.T) {
		token, err := a.Issue(actor, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/orders/active", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		got, err := a.FromRequest(req)
		require.NoError(t, err)
		assert.True(t, got.ID.IsEqual(actor.ID))
		assert.True(t, got.IsCourier())
	})

	t.Run("query parameter fallback", func(t *testing.T) {
		token, err := a.Issue(actor, time.Hour)
		require.NoError(t, err)

		got, err := a.FromRequest(httptest.NewRequest("GET", "/api/v1/sync?token="+token, nil))
		require.NoError(t, err)
		assert.Equal(t, auth.RoleCourier, got.Role)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := a.Issue(actor, -time.Minute)
		require.NoError(t, err)

		_, err = a.Parse(token)
		require.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("foreign secret", func(t *testing.T) {
		other, err := auth.NewAuthenticator("other")
		require.NoError(t, err)
		token, err := other.Issue(actor, time.Hour)
		require.NoError(t, err)

		_, err = a.Parse(token)
		require.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("missing and malformed", func(t *testing.T) {
		_, err := a.FromRequest(httptest.NewRequest("GET", "/", nil))
		require.ErrorIs(t, err, auth.ErrUnauthenticated)

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		_, err = a.FromRequest(req)
		require.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("unknown role is not issued", func(t *testing.T) {
		_, err := a.Issue(auth.Actor{ID: kernel.NewUUID(), Role: "root"}, time.Hour)
		require.Error(t, err)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := auth.NewAuthenticator("")
		require.Error(t, err)
	})
}
