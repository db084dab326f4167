package ws

import (
	"errors"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
)

// reasonInternal is the only reason clients see for storage, estimator and
// other server-side failures.
const reasonInternal = "internal error"

// failureReason turns a use case error into the reason sent on the wire.
// internal reports errors whose detail stays in the server log.
func failureReason(err error) (reason string, internal bool) {
	switch {
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, order.ErrUnauthorized):
		return err.Error(), false
	default:
		return reasonInternal, true
	}
}
