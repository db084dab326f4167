package http

import (
	"net/http"
	"strconv"
	"time"

	"dispatch/internal/adapters/in/auth"
	"dispatch/internal/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const actorKey = "actor"

// Authenticate resolves the bearer token into an auth.Actor stored on the
// echo context.
func Authenticate(a *auth.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := a.FromRequest(ctx.Request())
			if err != nil {
				return errorResponse(ctx, http.StatusUnauthorized, "Authentication required", "")
			}
			ctx.Set(actorKey, actor)
			return next(ctx)
		}
	}
}

func actorOf(ctx echo.Context) (auth.Actor, bool) {
	actor, ok := ctx.Get(actorKey).(auth.Actor)
	return actor, ok
}

// RecordDuration observes every request in metrics.HTTPRequestDuration,
// labelled with the route template rather than the raw path.
func RecordDuration() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			status := ctx.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			metrics.HTTPRequestDuration.
				WithLabelValues(ctx.Path(), ctx.Request().Method, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// BodyValidator plugs go-playground/validator into echo.Context.Validate.
type BodyValidator struct {
	validate *validator.Validate
}

// NewBodyValidator enables required checks on nested structs.
func NewBodyValidator() *BodyValidator {
	return &BodyValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator.
func (v *BodyValidator) Validate(i any) error {
	return v.validate.Struct(i)
}
