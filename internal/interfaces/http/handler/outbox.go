package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vendorbill/backend/internal/application/event"
)

// OutboxHandler exposes the vendor's event delivery state
type OutboxHandler struct {
	BaseHandler
	outboxService *event.OutboxService
}

// NewOutboxHandler creates a new outbox handler
func NewOutboxHandler(outboxService *event.OutboxService) *OutboxHandler {
	return &OutboxHandler{
		outboxService: outboxService,
	}
}

// GetDeadLetterEntries godoc
// @ID           getOutboxDeadLetterEntries
// @Summary      List dead letter entries
// @Description  Events that exhausted their delivery retries
// @Tags         events
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]event.OutboxEntryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /events/dead [get]
func (h *OutboxHandler) GetDeadLetterEntries(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	var filter event.OutboxFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	result, err := h.outboxService.ListDeadLetters(c.Request.Context(), vendorID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// RetryDeadEntry godoc
// @ID           retryDeadEntryOutbox
// @Summary      Retry a dead letter entry
// @Description  Reset a dead letter entry for redelivery
// @Tags         events
// @Produce      json
// @Param        id path string true "Outbox Entry ID" format(uuid)
// @Success      200 {object} APIResponse[event.OutboxEntryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /events/dead/{id}/retry [post]
func (h *OutboxHandler) RetryDeadEntry(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id", "entry")
	if !ok {
		return
	}

	entry, err := h.outboxService.RetryDeadLetter(c.Request.Context(), vendorID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entry)
}

// RetryAllDeadEntries godoc
// @ID           retryAllDeadEntriesOutbox
// @Summary      Retry all dead letter entries
// @Tags         events
// @Produce      json
// @Success      200 {object} APIResponse[CountData]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /events/dead/retry-all [post]
func (h *OutboxHandler) RetryAllDeadEntries(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	count, err := h.outboxService.RetryAllDeadLetters(c.Request.Context(), vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, CountData{Count: count})
}

// GetStats godoc
// @ID           getOutboxStats
// @Summary      Get event delivery statistics
// @Tags         events
// @Produce      json
// @Success      200 {object} APIResponse[event.OutboxStatsResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /events/stats [get]
func (h *OutboxHandler) GetStats(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	stats, err := h.outboxService.Stats(c.Request.Context(), vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stats)
}
