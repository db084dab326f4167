package http

import (
	"errors"
	"net/http"

	"dispatch/internal/adapters/in/auth"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/proof"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

func errorResponse(ctx echo.Context, status int, message, reason string) error {
	return ctx.JSON(status, Error{Code: status, Message: message, Reason: reason})
}

// statusOf maps a use case error to its HTTP status and reason code.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, ""
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest, ""
	case errors.Is(err, order.ErrUnauthorized):
		return http.StatusForbidden, ""
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound, ""
	case errors.Is(err, commission.ErrInsufficientBalance):
		return http.StatusPaymentRequired, commands.ReasonInsufficientBalance
	case services.IsRejection(err):
		return http.StatusUnprocessableEntity, proof.ReasonCode(err)
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrAlreadyAssigned),
		errors.Is(err, ports.ErrConcurrentModification),
		errors.Is(err, errs.ErrVersionIsInvalid):
		return http.StatusConflict, ""
	case errors.Is(err, commission.ErrCourierIneligible):
		return http.StatusConflict, "courier_ineligible"
	case errors.Is(err, commission.ErrAccountAlreadyExists):
		return http.StatusConflict, "account_exists"
	case errors.Is(err, commission.ErrAlreadyRefunded):
		return http.StatusConflict, "already_refunded"
	default:
		return http.StatusInternalServerError, ""
	}
}

// writeError answers with the mapped status. Internal errors keep their
// detail out of the response body.
func writeError(ctx echo.Context, err error, message string) error {
	status, reason := statusOf(err)
	if status == http.StatusInternalServerError {
		ctx.Logger().Error(err)
		return errorResponse(ctx, status, message, "")
	}
	return errorResponse(ctx, status, message+": "+err.Error(), reason)
}
