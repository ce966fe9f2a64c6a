package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	billingapp "github.com/vendorbill/backend/internal/application/billing"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/interfaces/http/middleware"
)

// PaymentHandler handles payment recording and allocation
type PaymentHandler struct {
	BaseHandler
	paymentService *billingapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *billingapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// AllocationRequest is one requested allocation line
// @Description Amount to apply to one receivable
type AllocationRequest struct {
	ReceivableID uuid.UUID       `json:"receivable_id" binding:"required"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"string" example:"250.00"`
}

// ApplyPaymentRequest represents a payment submission
// @Description Request body for recording a payment. Without allocations the payment is stored unlinked.
type ApplyPaymentRequest struct {
	CustomerID  *uuid.UUID            `json:"customer_id"`
	Amount      decimal.Decimal       `json:"amount" swaggertype:"string" example:"500.00"`
	Type        string                `json:"type" binding:"required,oneof=credit debit" example:"credit"`
	Method      string                `json:"method" binding:"required,oneof=cash bank cheque online upi card other" example:"cash"`
	Details     billing.MethodDetails `json:"details"`
	PaymentDate string                `json:"payment_date" example:"2026-03-31"`
	Reference   string                `json:"reference" binding:"omitempty,max=100"`
	Remark      string                `json:"remark" binding:"omitempty,max=500"`
	Allocations []AllocationRequest   `json:"allocations" binding:"omitempty,max=500,dive"`
}

// PaymentListQuery represents the query parameters of the payment list
type PaymentListQuery struct {
	Search     string `form:"search" binding:"omitempty,max=100"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Type       string `form:"type" binding:"omitempty,oneof=credit debit"`
	Method     string `form:"method" binding:"omitempty,oneof=cash bank cheque online upi card other"`
	From       string `form:"from"`
	To         string `form:"to"`
	OrderBy    string `form:"order_by" binding:"omitempty,oneof=payment_date created_at amount"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SuggestAllocationRequest asks for a FIFO split
// @Description Request body for an allocation suggestion
type SuggestAllocationRequest struct {
	CustomerID uuid.UUID       `json:"customer_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" swaggertype:"string" example:"1000.00"`
}

// Apply godoc
// @ID           applyPayment
// @Summary      Record a payment
// @Description  Store a payment and apply its allocations atomically. A repeated Idempotency-Key is rejected.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client key for safe retries"
// @Param        request body ApplyPaymentRequest true "Payment"
// @Success      201 {object} APIResponse[billingapp.ApplyPaymentResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) Apply(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	var req ApplyPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	paymentDate, ok := h.parsePaymentDate(c, req.PaymentDate)
	if !ok {
		return
	}

	allocations := make([]billingapp.AllocationInput, len(req.Allocations))
	for i, a := range req.Allocations {
		allocations[i] = billingapp.AllocationInput{ReceivableID: a.ReceivableID, Amount: a.Amount}
	}

	result, err := h.paymentService.ApplyPayment(c.Request.Context(), vendorID, billingapp.ApplyPaymentRequest{
		CustomerID:     req.CustomerID,
		Amount:         req.Amount,
		Type:           billing.PaymentType(req.Type),
		Method:         billing.PaymentMethod(req.Method),
		Details:        req.Details,
		PaymentDate:    paymentDate,
		Reference:      req.Reference,
		Remark:         req.Remark,
		Allocations:    allocations,
		IdempotencyKey: c.GetHeader(middleware.IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID godoc
// @ID           getPaymentById
// @Summary      Get payment by ID
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[billingapp.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id} [get]
func (h *PaymentHandler) GetByID(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}
	paymentID, ok := h.parseIDParam(c, "id", "payment")
	if !ok {
		return
	}

	payment, err := h.paymentService.GetByID(c.Request.Context(), vendorID, paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payment)
}

// List godoc
// @ID           listPayments
// @Summary      List payments
// @Tags         payments
// @Produce      json
// @Param        search query string false "Reference or remark fragment"
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        type query string false "credit or debit"
// @Param        method query string false "Payment method"
// @Param        from query string false "Paid on or after (YYYY-MM-DD)"
// @Param        to query string false "Paid on or before (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]billingapp.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	var query PaymentListQuery
	if !h.bindQuery(c, &query) {
		return
	}
	customerID, err := parseOptionalUUID(query.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}
	from, to, ok := h.parseDateRange(c, query.From, query.To)
	if !ok {
		return
	}
	query.Page, query.PageSize = defaultPaging(query.Page, query.PageSize)

	payments, total, err := h.paymentService.List(c.Request.Context(), vendorID, billingapp.PaymentListFilter{
		Search:     query.Search,
		CustomerID: customerID,
		Type:       billing.PaymentType(query.Type),
		Method:     billing.PaymentMethod(query.Method),
		FromDate:   from,
		ToDate:     to,
		OrderBy:    query.OrderBy,
		OrderDir:   query.OrderDir,
		Page:       query.Page,
		PageSize:   query.PageSize,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, payments, total, query.Page, query.PageSize)
}

// Stats godoc
// @ID           getPaymentStats
// @Summary      Payment statistics
// @Description  Credit, debit and per-method totals over an optional date window
// @Tags         payments
// @Produce      json
// @Param        from query string false "Paid on or after (YYYY-MM-DD)"
// @Param        to query string false "Paid on or before (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[billingapp.PaymentStatsResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/stats [get]
func (h *PaymentHandler) Stats(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}
	from, to, ok := h.parseDateRange(c, c.Query("from"), c.Query("to"))
	if !ok {
		return
	}

	stats, err := h.paymentService.Stats(c.Request.Context(), vendorID, from, to)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stats)
}

// SuggestAllocation godoc
// @ID           suggestPaymentAllocation
// @Summary      Suggest an allocation
// @Description  Split an amount over the customer's outstanding receivables, oldest first. Nothing is stored.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body SuggestAllocationRequest true "Amount and customer"
// @Success      200 {object} APIResponse[billing.AllocationSuggestion]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/suggest-allocation [post]
func (h *PaymentHandler) SuggestAllocation(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	var req SuggestAllocationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	suggestion, err := h.paymentService.SuggestAllocation(c.Request.Context(), vendorID, billingapp.SuggestAllocationRequest{
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, suggestion)
}
