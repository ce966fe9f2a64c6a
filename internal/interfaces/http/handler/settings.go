package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/vendorbill/backend/internal/application/billing"
)

// SettingsHandler handles invoice numbering settings
type SettingsHandler struct {
	BaseHandler
	sequenceService *billingapp.SequenceService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(sequenceService *billingapp.SequenceService) *SettingsHandler {
	return &SettingsHandler{
		sequenceService: sequenceService,
	}
}

// UpdateInvoiceSettingsRequest changes the numbering prefix and start count
// @Description Request body for invoice numbering settings. A start count change needs confirm_reset.
type UpdateInvoiceSettingsRequest struct {
	Prefix       string `json:"prefix" binding:"required,max=10" example:"INV"`
	StartCount   int64  `json:"start_count" example:"1"`
	ConfirmReset bool   `json:"confirm_reset" example:"false"`
}

// GetInvoiceSettings godoc
// @ID           getInvoiceSettings
// @Summary      Get invoice numbering settings
// @Tags         settings
// @Produce      json
// @Success      200 {object} APIResponse[billingapp.SequenceConfigResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settings/invoice [get]
func (h *SettingsHandler) GetInvoiceSettings(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	config, err := h.sequenceService.GetConfig(c.Request.Context(), vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, config)
}

// UpdateInvoiceSettings godoc
// @ID           updateInvoiceSettings
// @Summary      Update invoice numbering settings
// @Description  Change the prefix and start count. Changing the start count resets numbering.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request body UpdateInvoiceSettingsRequest true "Numbering settings"
// @Success      200 {object} APIResponse[billingapp.UpdateSequenceConfigResult]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settings/invoice [put]
func (h *SettingsHandler) UpdateInvoiceSettings(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	var req UpdateInvoiceSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.sequenceService.UpdateConfig(c.Request.Context(), vendorID, billingapp.UpdateSequenceConfigRequest{
		Prefix:       req.Prefix,
		StartCount:   req.StartCount,
		ConfirmReset: req.ConfirmReset,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// NextNumber godoc
// @ID           previewNextInvoiceNumber
// @Summary      Preview the next display number
// @Description  The number the next receivable would get. Nothing is reserved.
// @Tags         settings
// @Produce      json
// @Success      200 {object} APIResponse[NumberData]
// @Security     BearerAuth
// @Router       /settings/invoice/next-number [get]
func (h *SettingsHandler) NextNumber(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	number, err := h.sequenceService.PreviewNext(c.Request.Context(), vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, NumberData{Number: number})
}

// CheckNumber godoc
// @ID           checkInvoiceNumber
// @Summary      Check whether a display number was issued
// @Tags         settings
// @Produce      json
// @Param        number query string true "Display number"
// @Success      200 {object} APIResponse[billingapp.CheckNumberResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settings/invoice/check-number [get]
func (h *SettingsHandler) CheckNumber(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	number := c.Query("number")
	if number == "" {
		h.BadRequest(c, "Query parameter number is required")
		return
	}

	result, err := h.sequenceService.CheckNumber(c.Request.Context(), vendorID, number)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
