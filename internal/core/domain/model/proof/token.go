package proof

import (
	"strings"
	"time"
)

// Token is the DeliveryProofToken. Every field except Signature is covered by
// the signature; the JSON form is the barcode payload.
type Token struct {
	OrderID        string    `json:"orderId"`
	OrderReference string    `json:"orderReference"`
	RecipientName  string    `json:"recipientName"`
	RecipientPhone string    `json:"recipientPhone"`
	IssuerName     string    `json:"issuerName"`
	IssuedAt       time.Time `json:"issuedAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
	Signature      string    `json:"signature"`
}

// Canonical is the byte sequence the signature is computed over: the signed
// fields joined by a newline in fixed order, timestamps in RFC 3339 with
// nanoseconds in UTC.
func (t Token) Canonical() []byte {
	return []byte(strings.Join([]string{
		t.OrderID,
		t.OrderReference,
		t.RecipientName,
		t.RecipientPhone,
		t.IssuerName,
		t.IssuedAt.UTC().Format(time.RFC3339Nano),
		t.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}, "\n"))
}

// IsExpired reports whether now is strictly after ExpiresAt.
func (t Token) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
