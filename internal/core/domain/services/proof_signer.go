package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/proof"
	"dispatch/internal/pkg/errs"
)

// DefaultProofTTL is how long a proof-of-delivery token stays redeemable.
const DefaultProofTTL = 48 * time.Hour

const minSecretLength = 16

// ProofSigner issues and checks HMAC-SHA-256 signed proof-of-delivery tokens.
//
// Redemption checks run in a fixed order: signature and expiry, token/order
// match, scanner identity, prior redemption, order state. A repeated scan by
// the courier who already completed the order therefore reports
// ErrAlreadyRedeemed rather than ErrWrongState.
type ProofSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewProofSigner copies secret, which must be at least 16 bytes. A
// non-positive ttl falls back to DefaultProofTTL.
func NewProofSigner(secret []byte, ttl time.Duration) (ProofSigner, error) {
	if len(secret) < minSecretLength {
		return ProofSigner{}, errs.NewValueIsInvalidErrorWithCause("proof secret", fmt.Errorf("must be at least %d bytes", minSecretLength))
	}
	if ttl <= 0 {
		ttl = DefaultProofTTL
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return ProofSigner{secret: key, ttl: ttl}, nil
}

// Issue creates the token handed to the requester for an order.
func (s ProofSigner) Issue(o *order.Order, issuerName string, now time.Time) (proof.Token, error) {
	if err := o.Validate(); err != nil {
		return proof.Token{}, err
	}
	issuerName = strings.TrimSpace(issuerName)
	if issuerName == "" {
		return proof.Token{}, errs.NewValueIsRequiredError("issuer name")
	}

	issued := now.UTC()
	t := proof.Token{
		OrderID:        o.ID().String(),
		OrderReference: o.Reference().String(),
		RecipientName:  o.RecipientName(),
		RecipientPhone: o.RecipientPhone(),
		IssuerName:     issuerName,
		IssuedAt:       issued,
		ExpiresAt:      issued.Add(s.ttl),
	}
	t.Signature = s.Sign(t)
	return t, nil
}

// Sign returns the lowercase hex MAC of the token's canonical form.
func (s ProofSigner) Sign(t proof.Token) string {
	return hex.EncodeToString(s.mac(t))
}

// Verify checks integrity and expiry. The signature comparison is constant
// time.
func (s ProofSigner) Verify(t proof.Token, now time.Time) error {
	if t.Signature != strings.ToLower(t.Signature) {
		return fmt.Errorf("%w: signature is not lowercase hex", proof.ErrTamperedToken)
	}
	got, err := hex.DecodeString(t.Signature)
	if err != nil {
		return fmt.Errorf("%w: malformed signature", proof.ErrTamperedToken)
	}
	if !hmac.Equal(got, s.mac(t)) {
		return proof.ErrTamperedToken
	}
	if _, err := order.ParseReference(t.OrderReference); err != nil {
		return fmt.Errorf("%w: %w", proof.ErrTamperedToken, err)
	}
	if t.IsExpired(now) {
		return proof.ErrExpired
	}
	return nil
}

// CheckRedemption decides whether scannedBy may redeem t against o.
// alreadyRedeemed tells whether a valid scan by the same courier exists.
func (s ProofSigner) CheckRedemption(
	t proof.Token,
	o *order.Order,
	scannedBy kernel.UUID,
	alreadyRedeemed bool,
	now time.Time,
) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if err := s.Verify(t, now); err != nil {
		return err
	}
	if t.OrderID != o.ID().String() {
		return fmt.Errorf("%w: token belongs to another order", proof.ErrTamperedToken)
	}
	if !o.IsCourier(scannedBy) {
		return proof.ErrUnauthorizedScanner
	}
	if alreadyRedeemed {
		return proof.ErrAlreadyRedeemed
	}
	if o.Status() != order.Delivering {
		return fmt.Errorf("%w: status is %s", proof.ErrWrongState, o.Status())
	}
	return nil
}

// IsRejection reports whether err is one of the proof rejection reasons.
func IsRejection(err error) bool {
	return errors.Is(err, proof.ErrTamperedToken) ||
		errors.Is(err, proof.ErrExpired) ||
		errors.Is(err, proof.ErrUnauthorizedScanner) ||
		errors.Is(err, proof.ErrAlreadyRedeemed) ||
		errors.Is(err, proof.ErrWrongState)
}

func (s ProofSigner) mac(t proof.Token) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write(t.Canonical())
	return h.Sum(nil)
}
