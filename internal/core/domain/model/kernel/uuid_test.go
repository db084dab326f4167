package kernel_test

import (
	"encoding/json"
	"testing"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUUID(t *testing.T) {
	t.Run("should create valid unique identifiers", func(t *testing.T) {
		a := kernel.NewUUID()
		b := kernel.NewUUID()

		require.NoError(t, a.Validate())
		assert.False(t, a.IsEqual(b))
		assert.False(t, a.IsZero())
	})
}

func TestUUIDFromString(t *testing.T) {
	const canonical = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

	t.Run("should accept supported formats", func(t *testing.T) {
		for _, in := range []string{
			canonical,
			"{" + canonical + "}",
			"urn:uuid:" + canonical,
			"6ba7b8109dad11d180b400c04fd430c8",
		} {
			id, err := kernel.UUIDFromString(in)
			require.NoError(t, err, in)
			assert.Equal(t, canonical, id.String())
		}
	})

	t.Run("should reject garbage", func(t *testing.T) {
		_, err := kernel.UUIDFromString("not-a-uuid")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid UUID format")
	})
}

func TestUUIDFromBytes(t *testing.T) {
	t.Run("should round trip through bytes", func(t *testing.T) {
		id := kernel.NewUUID()
		raw := id.Bytes()

		restored, err := kernel.UUIDFromBytes(raw[:])

		require.NoError(t, err)
		assert.True(t, id.IsEqual(restored))
	})

	t.Run("should reject nil uuid bytes", func(t *testing.T) {
		_, err := kernel.UUIDFromBytes(uuid.Nil[:])

		assert.Equal(t, kernel.ErrUUIDIsNotConstructed, err)
	})

	t.Run("should reject wrong length", func(t *testing.T) {
		_, err := kernel.UUIDFromBytes([]byte{1, 2, 3})

		require.Error(t, err)
	})
}

func TestUUID_Validate(t *testing.T) {
	var zero kernel.UUID

	assert.Equal(t, kernel.ErrUUIDIsNotConstructed, zero.Validate())
	assert.True(t, zero.IsZero())
}

func TestUUID_JSON(t *testing.T) {
	type envelope struct {
		OrderID kernel.UUID `json:"orderId"`
	}

	t.Run("should marshal as canonical string", func(t *testing.T) {
		id, _ := kernel.UUIDFromString("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

		data, err := json.Marshal(envelope{OrderID: id})

		require.NoError(t, err)
		assert.JSONEq(t, `{"orderId":"6ba7b810-9dad-11d1-80b4-00c04fd430c8"}`, string(data))
	})

	t.Run("should unmarshal and reject invalid text", func(t *testing.T) {
		var ok envelope
		require.NoError(t, json.Unmarshal([]byte(`{"orderId":"6ba7b810-9dad-11d1-80b4-00c04fd430c8"}`), &ok))
		assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", ok.OrderID.String())

		var bad envelope
		assert.Error(t, json.Unmarshal([]byte(`{"orderId":"nope"}`), &bad))
	})
}
