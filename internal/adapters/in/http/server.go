package http

import (
	"errors"
	"fmt"
	"net/http"

	"dispatch/internal/adapters/in/auth"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/commission"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/proof"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// Handlers groups the use cases the REST surface calls into.
type Handlers struct {
	CreateOrder       commands.CreateOrderCommandHandler
	AssignCourier     commands.AssignCourierCommandHandler
	AdvanceOrder      commands.AdvanceOrderCommandHandler
	CompleteWithProof commands.CompleteWithProofCommandHandler
	ReportLocation    commands.ReportLocationCommandHandler
	InitializeAccount commands.InitializeCommissionAccountCommandHandler
	Recharge          commands.RechargeCommissionCommandHandler
	Refund            commands.RefundCommissionCommandHandler
	AuditLedger       commands.AuditLedgerCommandHandler

	GetOrder         queries.GetOrderQueryHandler
	GetActiveOrders  queries.GetActiveOrdersQueryHandler
	GetAccount       queries.GetCommissionAccountQueryHandler
	ListTransactions queries.ListCommissionTransactionsQueryHandler
	CanAcceptWork    queries.CanAcceptWorkQueryHandler
}

// Server translates HTTP requests into commands and queries.
type Server struct {
	h Handlers
}

// NewServer wraps the use case handlers. Nil handlers are not checked here;
// the composition root provides all of them.
func NewServer(h Handlers) *Server {
	return &Server{h: h}
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	actor, _ := actorOf(ctx)

	var body NewOrder
	if err := ctx.Bind(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid request body", "")
	}
	if err := ctx.Validate(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid order data: "+err.Error(), "")
	}

	cmd, err := commands.NewCreateOrderCommand(commands.CreateOrderParams{
		RequesterID:    actor.ID,
		IssuerName:     body.IssuerName,
		Pickup:         body.Pickup.input(),
		Dropoff:        body.Dropoff.input(),
		Method:         body.Method,
		RecipientName:  body.RecipientName,
		RecipientPhone: body.RecipientPhone,
		PayerType:      body.PayerType,
		PartialAmount:  body.PartialAmount,
	})
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid order data: "+err.Error(), "")
	}

	result, err := s.h.CreateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err, "Failed to create order")
	}
	return ctx.JSON(http.StatusCreated, CreatedOrder{
		Order: toOrder(queries.OrderView{Order: result.Order}),
		Token: result.Token,
	})
}

// GetActiveOrders handles GET /api/v1/orders/active.
func (s *Server) GetActiveOrders(ctx echo.Context) error {
	actor, _ := actorOf(ctx)

	query, err := queries.NewGetActiveOrdersQuery(actor.ID)
	if err != nil {
		return writeError(ctx, err, "Invalid query")
	}
	views, err := s.h.GetActiveOrders.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err, "Failed to retrieve orders")
	}

	response := make([]Order, len(views))
	for i, v := range views {
		response[i] = toOrder(v)
	}
	return ctx.JSON(http.StatusOK, response)
}

// GetOrder handles GET /api/v1/orders/{orderId}.
func (s *Server) GetOrder(ctx echo.Context) error {
	actor, _ := actorOf(ctx)
	orderID, err := pathID(ctx, "orderId")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error(), "")
	}

	query, err := queries.NewGetOrderQuery(orderID, actor.ID)
	if err != nil {
		return writeError(ctx, err, "Invalid query")
	}
	view, err := s.h.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err, "Failed to retrieve order")
	}
	return ctx.JSON(http.StatusOK, toOrder(view))
}

// AssignOrder handles POST /api/v1/orders/{orderId}/assign. The caller
// accepts the order for themself.
func (s *Server) AssignOrder(ctx echo.Context) error {
	actor, _ := actorOf(ctx)
	if !actor.IsCourier() {
		return errorResponse(ctx, http.StatusForbidden, "Only couriers accept orders", "")
	}
	orderID, err := pathID(ctx, "orderId")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error(), "")
	}

	cmd, err := commands.NewAssignCourierCommand(orderID, actor.ID)
	if err != nil {
		return writeError(ctx, err, "Invalid assignment")
	}
	snapshot, err := s.h.AssignCourier.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err, "Failed to accept order")
	}
	return ctx.JSON(http.StatusOK, toOrder(queries.OrderView{Order: snapshot}))
}

// AdvanceOrder handles POST /api/v1/orders/{orderId}/advance.
func (s *Server) AdvanceOrder(ctx echo.Context) error {
	actor, _ := actorOf(ctx)
	orderID, err := pathID(ctx, "orderId")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error(), "")
	}

	var body AdvanceOrder
	if err := ctx.Bind(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid request body", "")
	}
	if err := ctx.Validate(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid transition data: "+err.Error(), "")
	}

	cmd, err := commands.NewAdvanceOrderCommand(orderID, actor.ID, body.Status, body.Reason)
	if err != nil {
		return writeError(ctx, err, "Invalid transition")
	}
	snapshot, err := s.h.AdvanceOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err, "Failed to advance order")
	}
	return ctx.JSON(http.StatusOK, toOrder(queries.OrderView{Order: snapshot}))
}

// CompleteOrder handles POST /api/v1/orders/{orderId}/complete.
func (s *Server) CompleteOrder(ctx echo.Context) error {
	actor, _ := actorOf(ctx)
	orderID, err := pathID(ctx, "orderId")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error(), "")
	}

	var body CompleteOrder
	if err := ctx.Bind(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid request body", "")
	}

	scan := proof.ScanContext{DeviceInfo: body.DeviceInfo}
	if body.Location != nil {
		point, err := kernel.NewGeoPoint(body.Location.Lat, body.Location.Lng)
		if err != nil {
			return errorResponse(ctx, http.StatusBadRequest, "Invalid scan location: "+err.Error(), "")
		}
		scan.Location = &point
	}

	cmd, err := commands.NewCompleteWithProofCommand(orderID, actor.ID, body.Token, scan)
	if err != nil {
		return writeError(ctx, err, "Invalid proof")
	}
	result, err := s.h.CompleteWithProof.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		metrics.ProofScansTotal.WithLabelValues(scanOutcome(err)).Inc()
		return writeError(ctx, err, "Proof rejected")
	}
	metrics.ProofScansTotal.WithLabelValues("completed").Inc()

	response := CompletedOrder{Order: toOrder(queries.OrderView{Order: result.Order})}
	if result.Settlement != nil {
		tx := toTransaction(*result.Settlement)
		response.Settlement = &tx
	}
	return ctx.JSON(http.StatusOK, response)
}

func scanOutcome(err error) string {
	switch {
	case services.IsRejection(err):
		return proof.ReasonCode(err)
	case errors.Is(err, commission.ErrInsufficientBalance):
		return commands.ReasonInsufficientBalance
	default:
		return "error"
	}
}

// ReportLocation handles POST /api/v1/orders/{orderId}/location.
func (s *Server) ReportLocation(ctx echo.Context) error {
	actor, _ := actorOf(ctx)
	if !actor.IsCourier() {
		return errorResponse(ctx, http.StatusForbidden, "Only couriers report locations", "")
	}
	orderID, err := pathID(ctx, "orderId")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error(), "")
	}

	var body Point
	if err := ctx.Bind(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid request body", "")
	}
	if err := ctx.Validate(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid location: "+err.Error(), "")
	}

	cmd, err := commands.NewReportLocationCommand(orderID, actor.ID, body.Lat, body.Lng)
	if err != nil {
		return writeError(ctx, err, "Invalid location")
	}
	if err := s.h.ReportLocation.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err, "Failed to record location")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// InitializeCommissionAccount handles POST /api/v1/couriers/{courierId}/commission.
func (s *Server) InitializeCommissionAccount(ctx echo.Context) error {
	courierID, fail := s.adminTarget(ctx)
	if fail != nil {
		return ctx.JSON(fail.Code, fail)
	}

	var body NewCommissionAccount
	if err := ctx.Bind(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid request body", "")
	}
	if err := ctx.Validate(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid account data: "+err.Error(), "")
	}

	cmd, err := commands.NewInitializeCommissionAccountCommand(courierID, body.RatePercent, body.IsRevenueShare, body.MinimumBalance)
	if err != nil {
		return writeError(ctx, err, "Invalid account data")
	}
	snapshot, err := s.h.InitializeAccount.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err, "Failed to open account")
	}
	return ctx.JSON(http.StatusCreated, toAccountSnapshot(snapshot))
}

// RechargeCommission handles POST /api/v1/couriers/{courierId}/commission/recharge.
func (s *Server) RechargeCommission(ctx echo.Context) error {
	courierID, fail := s.adminTarget(ctx)
	if fail != nil {
		return ctx.JSON(fail.Code, fail)
	}

	var body Recharge
	if err := ctx.Bind(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid request body", "")
	}
	if err := ctx.Validate(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid recharge: "+err.Error(), "")
	}

	cmd, err := commands.NewRechargeCommissionCommand(courierID, body.Amount)
	if err != nil {
		return writeError(ctx, err, "Invalid recharge")
	}
	result, err := s.h.Recharge.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err, "Failed to recharge")
	}
	return ctx.JSON(http.StatusOK, toLedgerEntry(result))
}

// RefundCommission handles POST /api/v1/couriers/{courierId}/commission/refund.
func (s *Server) RefundCommission(ctx echo.Context) error {
	courierID, fail := s.adminTarget(ctx)
	if fail != nil {
		return ctx.JSON(fail.Code, fail)
	}

	var body Refund
	if err := ctx.Bind(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid request body", "")
	}
	if err := ctx.Validate(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid refund: "+err.Error(), "")
	}
	orderID, err := kernel.UUIDFromString(body.OrderID)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid refund: "+err.Error(), "")
	}

	cmd, err := commands.NewRefundCommissionCommand(courierID, orderID)
	if err != nil {
		return writeError(ctx, err, "Invalid refund")
	}
	result, err := s.h.Refund.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err, "Failed to refund")
	}
	return ctx.JSON(http.StatusOK, toLedgerEntry(result))
}

// AuditCommissionLedger handles GET /api/v1/couriers/{courierId}/commission/audit.
// Drift is a finding, not a failure: it is reported with 200.
func (s *Server) AuditCommissionLedger(ctx echo.Context) error {
	courierID, fail := s.adminTarget(ctx)
	if fail != nil {
		return ctx.JSON(fail.Code, fail)
	}

	cmd, err := commands.NewAuditLedgerCommand(courierID)
	if err != nil {
		return writeError(ctx, err, "Invalid audit")
	}
	result, err := s.h.AuditLedger.Handle(ctx.Request().Context(), cmd)
	response := LedgerAudit{
		Consistent:      err == nil,
		StoredBalance:   result.StoredBalance,
		ReplayedBalance: result.ReplayedBalance,
		Transactions:    result.Transactions,
	}
	if err != nil {
		if !errors.Is(err, commission.ErrLedgerDrift) {
			return writeError(ctx, err, "Failed to audit ledger")
		}
		response.Drift = err.Error()
	}
	return ctx.JSON(http.StatusOK, response)
}

// GetCommissionAccount handles GET /api/v1/couriers/{courierId}/commission.
func (s *Server) GetCommissionAccount(ctx echo.Context) error {
	courierID, fail := s.readTarget(ctx)
	if fail != nil {
		return ctx.JSON(fail.Code, fail)
	}

	query, err := queries.NewGetCommissionAccountQuery(courierID)
	if err != nil {
		return writeError(ctx, err, "Invalid query")
	}
	view, err := s.h.GetAccount.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err, "Failed to retrieve account")
	}
	return ctx.JSON(http.StatusOK, toAccountView(view))
}

// ListCommissionTransactions handles GET /api/v1/couriers/{courierId}/commission/transactions.
func (s *Server) ListCommissionTransactions(ctx echo.Context) error {
	courierID, fail := s.readTarget(ctx)
	if fail != nil {
		return ctx.JSON(fail.Code, fail)
	}

	var page, pageSize *int
	if err := runtime.BindQueryParameter("form", true, false, "page", ctx.QueryParams(), &page); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid format for parameter page: "+err.Error(), "")
	}
	if err := runtime.BindQueryParameter("form", true, false, "pageSize", ctx.QueryParams(), &pageSize); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid format for parameter pageSize: "+err.Error(), "")
	}

	query, err := queries.NewListCommissionTransactionsQuery(courierID, deref(page), deref(pageSize))
	if err != nil {
		return writeError(ctx, err, "Invalid query")
	}
	result, err := s.h.ListTransactions.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err, "Failed to retrieve transactions")
	}

	response := TransactionPage{
		Transactions: make([]Transaction, len(result.Transactions)),
		Total:        result.Total,
		Page:         result.Page,
		PageSize:     result.PageSize,
	}
	for i, t := range result.Transactions {
		response.Transactions[i] = toTransaction(t)
	}
	return ctx.JSON(http.StatusOK, response)
}

// GetCourierEligibility handles GET /api/v1/couriers/{courierId}/eligibility.
func (s *Server) GetCourierEligibility(ctx echo.Context) error {
	courierID, fail := s.readTarget(ctx)
	if fail != nil {
		return ctx.JSON(fail.Code, fail)
	}

	query, err := queries.NewGetCommissionAccountQuery(courierID)
	if err != nil {
		return writeError(ctx, err, "Invalid query")
	}
	ok, err := s.h.CanAcceptWork.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err, "Failed to check eligibility")
	}
	return ctx.JSON(http.StatusOK, Eligibility{CourierID: courierID.String(), CanAcceptWork: ok})
}

// adminTarget binds courierId and requires the admin role.
func (s *Server) adminTarget(ctx echo.Context) (kernel.UUID, *Error) {
	actor, _ := actorOf(ctx)
	if !actor.IsAdmin() {
		return kernel.UUID{}, &Error{Code: http.StatusForbidden, Message: "Ledger changes require the admin role"}
	}
	id, err := pathID(ctx, "courierId")
	if err != nil {
		return kernel.UUID{}, &Error{Code: http.StatusBadRequest, Message: err.Error()}
	}
	return id, nil
}

// readTarget binds courierId; couriers may only read their own ledger.
func (s *Server) readTarget(ctx echo.Context) (kernel.UUID, *Error) {
	actor, _ := actorOf(ctx)
	id, err := pathID(ctx, "courierId")
	if err != nil {
		return kernel.UUID{}, &Error{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if !actor.IsAdmin() && !(actor.Role == auth.RoleCourier && actor.ID.IsEqual(id)) {
		return kernel.UUID{}, &Error{Code: http.StatusForbidden, Message: "Not allowed to read this ledger"}
	}
	return id, nil
}

func pathID(ctx echo.Context, name string) (kernel.UUID, error) {
	var id kernel.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return kernel.UUID{}, fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	if err := id.Validate(); err != nil {
		return kernel.UUID{}, fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return id, nil
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
