package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/vendorbill/backend/internal/application/billing"
)

// LedgerHandler serves the per-customer balance views
type LedgerHandler struct {
	BaseHandler
	ledgerService  *billingapp.LedgerService
	paymentService *billingapp.PaymentService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *billingapp.LedgerService, paymentService *billingapp.PaymentService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService:  ledgerService,
		paymentService: paymentService,
	}
}

// Outstanding godoc
// @ID           getCustomerOutstanding
// @Summary      Customer outstanding total
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[billingapp.OutstandingResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/outstanding [get]
func (h *LedgerHandler) Outstanding(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}
	customerID, ok := h.parseIDParam(c, "id", "customer")
	if !ok {
		return
	}

	outstanding, err := h.ledgerService.OutstandingTotal(c.Request.Context(), vendorID, customerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, outstanding)
}

// PendingReceivables godoc
// @ID           listCustomerPendingReceivables
// @Summary      Customer pending receivables
// @Description  Outstanding receivables of the customer, oldest first
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[[]billingapp.ReceivableResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/pending-receivables [get]
func (h *LedgerHandler) PendingReceivables(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}
	customerID, ok := h.parseIDParam(c, "id", "customer")
	if !ok {
		return
	}

	receivables, err := h.paymentService.CustomerPendingReceivables(c.Request.Context(), vendorID, customerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, receivables)
}

// Summary godoc
// @ID           getCustomerLedgerSummary
// @Summary      Customer ledger summary
// @Description  Invoiced, paid and outstanding totals over an inclusive window. Defaults to the last month.
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        from query string false "Start date (YYYY-MM-DD)"
// @Param        to query string false "End date (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[billingapp.LedgerSummaryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/ledger [get]
func (h *LedgerHandler) Summary(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}
	customerID, ok := h.parseIDParam(c, "id", "customer")
	if !ok {
		return
	}
	from, to, ok := h.parseDateRange(c, c.Query("from"), c.Query("to"))
	if !ok {
		return
	}

	summary, err := h.ledgerService.Summary(c.Request.Context(), vendorID, billingapp.LedgerSummaryRequest{
		CustomerID: customerID,
		From:       from,
		To:         to,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}
