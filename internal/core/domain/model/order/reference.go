package order

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"dispatch/internal/pkg/errs"

	"github.com/theplant/luhn"
)

const (
	referenceBodyMin = 10_000_000
	referenceBodyMax = 99_999_999
)

// Reference is the human-readable order number printed on the proof-of-delivery
// barcode: eight random digits followed by a Luhn check digit, so a mistyped
// or altered reference is caught before any signature work.
type Reference string

// NewReference draws a fresh random reference. Storage enforces uniqueness.
func NewReference() Reference {
	body := rand.IntN(referenceBodyMax-referenceBodyMin+1) + referenceBodyMin //nolint:gosec // not a secret
	return Reference(strconv.Itoa(body*10 + luhn.CalculateLuhn(body)))
}

// ParseReference validates the check digit of a scanned or typed reference.
func ParseReference(s string) (Reference, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", errs.NewValueIsInvalidErrorWithCause("order reference is invalid", fmt.Errorf("%q is not numeric", s))
	}
	if !luhn.Valid(n) {
		return "", errs.NewValueIsInvalidErrorWithCause("order reference is invalid", fmt.Errorf("%q fails the check digit", s))
	}
	return Reference(s), nil
}

func (r Reference) String() string {
	return string(r)
}
