package billing

import (
	"context"
	"fmt"

	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// NotificationHandler turns receivable status changes and recorded payments
// into in-app notifications. Redelivered events are ignored by the repository,
// which keeps one notification per source event.
type NotificationHandler struct {
	repo   billing.NotificationRepository
	logger *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(repo billing.NotificationRepository, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		repo:   repo,
		logger: logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		billing.EventTypeReceivableStatusChanged,
		billing.EventTypePaymentRecorded,
	}
}

// Handle creates the notification for one event
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var notification *billing.Notification
	switch e := event.(type) {
	case *billing.ReceivableStatusChangedEvent:
		notification = billing.NotificationForStatusChange(e)
	case *billing.PaymentRecordedEvent:
		notification = billing.NotificationForPayment(e)
	default:
		h.logger.Error("unexpected event type",
			zap.Strings("expected", h.EventTypes()),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	if err := h.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to store notification for event %s: %w", event.EventID(), err)
	}

	h.logger.Debug("notification created",
		zap.String("vendor_id", event.VendorID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("kind", string(notification.Kind)),
	)
	return nil
}

var _ shared.EventHandler = (*NotificationHandler)(nil)
