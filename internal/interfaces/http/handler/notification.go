package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/vendorbill/backend/internal/application/billing"
)

// NotificationHandler handles the vendor's in-app notifications
type NotificationHandler struct {
	BaseHandler
	notificationService *billingapp.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *billingapp.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// NotificationListQuery represents the query parameters of the notification list
type NotificationListQuery struct {
	UnreadOnly bool `form:"unread_only"`
	Page       int  `form:"page" binding:"omitempty,min=1"`
	PageSize   int  `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// List godoc
// @ID           listNotifications
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Param        unread_only query bool false "Only unread notifications"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]billingapp.NotificationResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	var query NotificationListQuery
	if !h.bindQuery(c, &query) {
		return
	}
	query.Page, query.PageSize = defaultPaging(query.Page, query.PageSize)

	notifications, total, err := h.notificationService.List(c.Request.Context(), vendorID, query.UnreadOnly, query.Page, query.PageSize)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, notifications, total, query.Page, query.PageSize)
}

// MarkRead godoc
// @ID           markNotificationRead
// @Summary      Mark a notification read
// @Tags         notifications
// @Param        id path string true "Notification ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}
	notificationID, ok := h.parseIDParam(c, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), vendorID, notificationID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// MarkAllRead godoc
// @ID           markAllNotificationsRead
// @Summary      Mark all notifications read
// @Tags         notifications
// @Produce      json
// @Success      200 {object} APIResponse[CountData]
// @Security     BearerAuth
// @Router       /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	count, err := h.notificationService.MarkAllRead(c.Request.Context(), vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, CountData{Count: count})
}

// UnreadCount godoc
// @ID           countUnreadNotifications
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Success      200 {object} APIResponse[CountData]
// @Security     BearerAuth
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	vendorID, ok := h.requireVendor(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, CountData{Count: count})
}
