package http

import (
	"fmt"
	"net/http"

	"dispatch/internal/adapters/in/auth"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RouterConfig carries what NewRouter needs besides the handlers. Spec drives
// request validation and the swagger UI. A nil Gatherer disables /metrics.
type RouterConfig struct {
	Auth     *auth.Authenticator
	Spec     *openapi3.T
	Gatherer prometheus.Gatherer
	// Health, when set, is rendered as the /health body.
	Health func() any
}

// NewRouter builds the echo instance serving the REST API, the swagger UI,
// /metrics and /health. The sync channel is mounted by the caller.
func NewRouter(s *Server, cfg RouterConfig) (*echo.Echo, error) {
	validate, err := RequestValidator(cfg.Spec)
	if err != nil {
		return nil, fmt.Errorf("openapi router: %w", err)
	}
	registerSwaggerDoc(cfg.Spec)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewBodyValidator()
	e.Use(RecordDuration())

	e.GET("/health", func(ctx echo.Context) error {
		if cfg.Health == nil {
			return ctx.String(http.StatusOK, "Healthy")
		}
		return ctx.JSON(http.StatusOK, cfg.Health())
	})
	if cfg.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api/v1", Authenticate(cfg.Auth), validate)

	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/active", s.GetActiveOrders)
	api.GET("/orders/:orderId", s.GetOrder)
	api.POST("/orders/:orderId/assign", s.AssignOrder)
	api.POST("/orders/:orderId/advance", s.AdvanceOrder)
	api.POST("/orders/:orderId/complete", s.CompleteOrder)
	api.POST("/orders/:orderId/location", s.ReportLocation)

	api.GET("/couriers/:courierId/commission", s.GetCommissionAccount)
	api.POST("/couriers/:courierId/commission", s.InitializeCommissionAccount)
	api.POST("/couriers/:courierId/commission/recharge", s.RechargeCommission)
	api.POST("/couriers/:courierId/commission/refund", s.RefundCommission)
	api.GET("/couriers/:courierId/commission/transactions", s.ListCommissionTransactions)
	api.GET("/couriers/:courierId/commission/audit", s.AuditCommissionLedger)
	api.GET("/couriers/:courierId/eligibility", s.GetCourierEligibility)

	return e, nil
}
