package proof_test

import (
	"fmt"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/proof"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_Canonical(t *testing.T) {
	issued := time.Date(2025, 1, 2, 3, 4, 5, 6, time.FixedZone("CET", 3600))
	tok := proof.Token{
		OrderID:        "o-1",
		OrderReference: "123456782",
		RecipientName:  "Ann",
		RecipientPhone: "+100",
		IssuerName:     "Shop",
		IssuedAt:       issued,
		ExpiresAt:      issued.Add(48 * time.Hour),
		Signature:      "ignored",
	}

	expected := "o-1\n123456782\nAnn\n+100\nShop\n2025-01-02T02:04:05.000000006Z\n2025-01-04T02:04:05.000000006Z"
	assert.Equal(t, expected, string(tok.Canonical()))

	tok.Signature = "different"
	assert.Equal(t, expected, string(tok.Canonical()), "signature is not part of the canonical form")
}

func TestToken_IsExpired(t *testing.T) {
	exp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tok := proof.Token{ExpiresAt: exp}

	assert.False(t, tok.IsExpired(exp))
	assert.True(t, tok.IsExpired(exp.Add(time.Nanosecond)))
}

func TestReasonCode(t *testing.T) {
	tests := map[error]string{
		proof.ErrTamperedToken:                           "tampered_token",
		proof.ErrExpired:                                 "expired",
		proof.ErrUnauthorizedScanner:                     "unauthorized_scanner",
		proof.ErrAlreadyRedeemed:                         "already_redeemed",
		proof.ErrWrongState:                              "wrong_state",
		fmt.Errorf("verify: %w", proof.ErrTamperedToken): "tampered_token",
		fmt.Errorf("something else"):                     "internal",
	}

	for err, code := range tests {
		assert.Equal(t, code, proof.ReasonCode(err), err.Error())
	}
}

func TestNewRejectedScan(t *testing.T) {
	orderID, courier := kernel.NewUUID(), kernel.NewUUID()
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	rec := proof.NewRejectedScan(orderID, courier, proof.Token{Signature: "ff"}, proof.ScanContext{DeviceInfo: "android"}, at, proof.ReasonCode(proof.ErrExpired))

	require.False(t, rec.IsValid)
	assert.Equal(t, "expired", rec.ValidationError)
	assert.Equal(t, "android", rec.DeviceInfo)
	assert.True(t, rec.OrderID.IsEqual(orderID))
	assert.False(t, rec.ID.IsZero())
}
