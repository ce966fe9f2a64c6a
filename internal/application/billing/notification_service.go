package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/vendorbill/backend/internal/domain/billing"
)

// NotificationService lists and acknowledges in-app notifications
type NotificationService struct {
	repo billing.NotificationRepository
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo billing.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List lists the vendor's notifications, newest first
func (s *NotificationService) List(ctx context.Context, vendorID uuid.UUID, unreadOnly bool, page, pageSize int) ([]NotificationResponse, int64, error) {
	filter := billing.NotificationFilter{
		Filter:     pageFilter(page, pageSize, "created_at", "desc"),
		UnreadOnly: unreadOnly,
	}
	notifications, err := s.repo.FindAllForVendor(ctx, vendorID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForVendor(ctx, vendorID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]NotificationResponse, len(notifications))
	for i := range notifications {
		responses[i] = *toNotificationResponse(&notifications[i])
	}
	return responses, total, nil
}

// MarkRead marks one notification as read
func (s *NotificationService) MarkRead(ctx context.Context, vendorID, notificationID uuid.UUID) error {
	return s.repo.MarkRead(ctx, vendorID, notificationID)
}

// MarkAllRead marks every unread notification of the vendor as read
func (s *NotificationService) MarkAllRead(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, vendorID)
}

// UnreadCount returns the number of unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	return s.repo.CountForVendor(ctx, vendorID, billing.NotificationFilter{UnreadOnly: true})
}
