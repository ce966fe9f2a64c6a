package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	billingapp "github.com/vendorbill/backend/internal/application/billing"
	"github.com/vendorbill/backend/internal/domain/billing"
)

// ReceivableHandler handles bill and challan endpoints
type ReceivableHandler struct {
	BaseHandler
	receivableService *billingapp.ReceivableService
}

// NewReceivableHandler creates a new ReceivableHandler
func NewReceivableHandler(receivableService *billingapp.ReceivableService) *ReceivableHandler {
	return &ReceivableHandler{
		receivableService: receivableService,
	}
}

// LineItemRequest is one line of a bill or challan
// @Description Bill line item
type LineItemRequest struct {
	Description string          `json:"description" binding:"required,max=500" example:"Cement bags"`
	Quantity    decimal.Decimal `json:"quantity" swaggertype:"string" example:"10"`
	UnitPrice   decimal.Decimal `json:"unit_price" swaggertype:"string" example:"350.00"`
	GSTRate     decimal.Decimal `json:"gst_rate" swaggertype:"string" example:"18"`
}

// CreateReceivableRequest represents a request to create a bill or challan
// @Description Request body for creating a receivable. The display number is assigned by the server.
type CreateReceivableRequest struct {
	CustomerID  uuid.UUID         `json:"customer_id" binding:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Kind        string            `json:"kind" binding:"omitempty,oneof=bill challan" example:"bill"`
	TotalAmount decimal.Decimal   `json:"total_amount" swaggertype:"string" example:"4130.00"`
	Items       []LineItemRequest `json:"items" binding:"omitempty,max=200,dive"`
	Remark      string            `json:"remark" binding:"omitempty,max=500" example:"Site delivery"`
}

// ReceivableListQuery represents the query parameters of the receivable list
type ReceivableListQuery struct {
	Search     string `form:"search" binding:"omitempty,max=100"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Kind       string `form:"kind" binding:"omitempty,oneof=bill challan"`
	Status     string `form:"status" binding:"omitempty,oneof=pending partial paid"`
	From       string `form:"from"`
	To         string `form:"to"`
	OrderBy    string `form:"order_by" binding:"omitempty,oneof=created_at display_number total_amount paid_amount"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// MarkPaidRequest settles a receivable in full
// @Description Request body for marking a receivable paid. Method defaults to cash.
type MarkPaidRequest struct {
	Method      string                `json:"method" binding:"omitempty,oneof=cash bank cheque online upi card other" example:"upi"`
	Details     billing.MethodDetails `json:"details"`
	PaymentDate string                `json:"payment_date" example:"2026-03-31"`
	Reference   string                `json:"reference" binding:"omitempty,max=100"`
}

// Create godoc
// @ID           createReceivable
// @Summary      Create a bill or challan
// @Description  Create a receivable and assign the vendor's next display number
// @Tags         receivables
// @Accept       json
// @Produce      json
// @Param        request body CreateReceivableRequest true "Receivable creation request"
// @Success      201 {object} APIResponse[billingapp.ReceivableResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables [post]
func (h *ReceivableHandler) Create(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	var req CreateReceivableRequest
	if !h.bindJSON(c, &req) {
		return
	}

	kind := billing.ReceivableKind(req.Kind)
	if kind == "" {
		kind = billing.ReceivableKindBill
	}
	items := make([]billingapp.LineItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = billingapp.LineItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			GSTRate:     item.GSTRate,
		}
	}

	receivable, err := h.receivableService.Create(c.Request.Context(), vendorID, billingapp.CreateReceivableRequest{
		CustomerID:  req.CustomerID,
		Kind:        kind,
		TotalAmount: req.TotalAmount,
		Items:       items,
		Remark:      req.Remark,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, receivable)
}

// GetByID godoc
// @ID           getReceivableById
// @Summary      Get receivable by ID
// @Tags         receivables
// @Produce      json
// @Param        id path string true "Receivable ID" format(uuid)
// @Success      200 {object} APIResponse[billingapp.ReceivableResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/{id} [get]
func (h *ReceivableHandler) GetByID(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}
	receivableID, ok := h.parseIDParam(c, "id", "receivable")
	if !ok {
		return
	}

	receivable, err := h.receivableService.GetByID(c.Request.Context(), vendorID, receivableID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, receivable)
}

// List godoc
// @ID           listReceivables
// @Summary      List receivables
// @Description  List bills and challans with optional filters; dates are inclusive
// @Tags         receivables
// @Produce      json
// @Param        search query string false "Display number or remark fragment"
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        kind query string false "bill or challan"
// @Param        status query string false "pending, partial or paid"
// @Param        from query string false "Created on or after (YYYY-MM-DD)"
// @Param        to query string false "Created on or before (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]billingapp.ReceivableResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables [get]
func (h *ReceivableHandler) List(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	var query ReceivableListQuery
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

	receivables, total, err := h.receivableService.List(c.Request.Context(), vendorID, billingapp.ReceivableListFilter{
		Search:     query.Search,
		CustomerID: customerID,
		Kind:       billing.ReceivableKind(query.Kind),
		Status:     billing.ReceivableStatus(query.Status),
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

	h.SuccessWithMeta(c, receivables, total, query.Page, query.PageSize)
}

// Delete godoc
// @ID           deleteReceivable
// @Summary      Delete a receivable
// @Description  Delete a receivable that has no payments allocated to it
// @Tags         receivables
// @Param        id path string true "Receivable ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/{id} [delete]
func (h *ReceivableHandler) Delete(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}
	receivableID, ok := h.parseIDParam(c, "id", "receivable")
	if !ok {
		return
	}

	if err := h.receivableService.Delete(c.Request.Context(), vendorID, receivableID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// MarkPaid godoc
// @ID           markReceivablePaid
// @Summary      Mark a receivable paid
// @Description  Record a credit payment for the full pending amount, allocated to this receivable
// @Tags         receivables
// @Accept       json
// @Produce      json
// @Param        id path string true "Receivable ID" format(uuid)
// @Param        request body MarkPaidRequest false "Payment details"
// @Success      200 {object} APIResponse[billingapp.ApplyPaymentResult]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/{id}/mark-paid [post]
func (h *ReceivableHandler) MarkPaid(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}
	receivableID, ok := h.parseIDParam(c, "id", "receivable")
	if !ok {
		return
	}

	var req MarkPaidRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	paymentDate, ok := h.parsePaymentDate(c, req.PaymentDate)
	if !ok {
		return
	}

	result, err := h.receivableService.MarkPaid(c.Request.Context(), vendorID, receivableID, billingapp.MarkPaidRequest{
		Method:      billing.PaymentMethod(req.Method),
		Details:     req.Details,
		PaymentDate: paymentDate,
		Reference:   req.Reference,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// PendingTotal godoc
// @ID           getReceivablePendingTotal
// @Summary      Vendor-wide pending total
// @Description  Sum of pending amounts across the vendor's receivables, optionally for one kind
// @Tags         receivables
// @Produce      json
// @Param        kind query string false "bill or challan"
// @Success      200 {object} APIResponse[billingapp.PendingTotalResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receivables/pending-total [get]
func (h *ReceivableHandler) PendingTotal(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	kind := billing.ReceivableKind(c.Query("kind"))
	if kind != "" && !kind.IsValid() {
		h.BadRequest(c, "Kind must be bill or challan")
		return
	}

	total, err := h.receivableService.PendingTotal(c.Request.Context(), vendorID, kind)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, total)
}

// parseDateRange parses optional from/to query dates, writing a 400 on failure
func (h *BaseHandler) parseDateRange(c *gin.Context, fromValue, toValue string) (*time.Time, *time.Time, bool) {
	from, err := parseOptionalDate(fromValue)
	if err != nil {
		h.BadRequest(c, "Invalid from date, expected YYYY-MM-DD")
		return nil, nil, false
	}
	to, err := parseOptionalDate(toValue)
	if err != nil {
		h.BadRequest(c, "Invalid to date, expected YYYY-MM-DD")
		return nil, nil, false
	}
	return from, to, true
}

// parsePaymentDate parses an optional payment date; the zero time means today
func (h *BaseHandler) parsePaymentDate(c *gin.Context, value string) (time.Time, bool) {
	date, err := parseOptionalDate(value)
	if err != nil {
		h.BadRequest(c, "Invalid payment date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	if date == nil {
		return time.Time{}, true
	}
	return *date, true
}
