package order

import (
	"errors"
	"fmt"

	"dispatch/internal/pkg/errs"
)

// PaymentStatus tracks money collection for an order. The service sets pending
// and cancelled; the other states come from the payment provider.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentRefused   PaymentStatus = "refused"
	PaymentDelayed   PaymentStatus = "delayed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Validate rejects unknown statuses.
func (s PaymentStatus) Validate() error {
	switch s {
	case PaymentPending, PaymentPaid, PaymentRefused, PaymentDelayed, PaymentRefunded, PaymentCancelled:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("payment status is invalid", fmt.Errorf("%q is unknown", string(s)))
	}
}

// PayerType tells who pays for the delivery.
type PayerType string

const (
	PayerRequester PayerType = "requester"
	PayerRecipient PayerType = "recipient"
)

// Validate rejects unknown payer types.
func (p PayerType) Validate() error {
	switch p {
	case PayerRequester, PayerRecipient:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("payer type is invalid", fmt.Errorf("%q is unknown", string(p)))
	}
}

// Payment groups the payment fields of an order. Amounts are in minor units.
type Payment struct {
	Status          PaymentStatus
	IsPartial       bool
	PartialAmount   *int64
	RemainingAmount *int64
	PayerType       PayerType
}

// NewPayment returns a pending payment. A partial payment splits price into the
// amount collected upfront and the remainder.
func NewPayment(payer PayerType, price int64, partialAmount *int64) (Payment, error) {
	p := Payment{Status: PaymentPending, PayerType: payer}
	if err := payer.Validate(); err != nil {
		return Payment{}, err
	}

	if partialAmount == nil {
		return p, nil
	}

	if *partialAmount <= 0 || *partialAmount >= price {
		return Payment{}, errs.NewValueIsOutOfRangeError("partial amount", *partialAmount, int64(1), price-1)
	}
	remaining := price - *partialAmount
	partial := *partialAmount
	p.IsPartial = true
	p.PartialAmount = &partial
	p.RemainingAmount = &remaining
	return p, nil
}

// Validate checks the enums and that a partial payment carries both amounts.
func (p Payment) Validate() error {
	err := errors.Join(p.Status.Validate(), p.PayerType.Validate())
	if p.IsPartial && (p.PartialAmount == nil || p.RemainingAmount == nil) {
		err = errors.Join(err, errs.NewValueIsRequiredError("partial payment amounts"))
	}
	return err
}
