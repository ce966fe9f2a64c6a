package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
	"github.com/vendorbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormNotificationRepository implements billing.NotificationRepository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create inserts a notification. A row for an already-seen source event is skipped.
func (r *GormNotificationRepository) Create(ctx context.Context, n *billing.Notification) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_event"}},
			DoNothing: true,
		}).
		Create(models.NotificationModelFromDomain(n)).Error
}

// FindAllForVendor lists a vendor's notifications, newest first
func (r *GormNotificationRepository) FindAllForVendor(ctx context.Context, vendorID uuid.UUID, filter billing.NotificationFilter) ([]billing.Notification, error) {
	var rows []models.NotificationModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.NotificationModel{}).Where("vendor_id = ?", vendorID), filter)
	if err := applyPaging(query, filter.Filter, nil, "created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]billing.Notification, len(rows))
	for i := range rows {
		result[i] = *rows[i].ToDomain()
	}
	return result, nil
}

// CountForVendor counts a vendor's notifications matching the filter
func (r *GormNotificationRepository) CountForVendor(ctx context.Context, vendorID uuid.UUID, filter billing.NotificationFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.NotificationModel{}).Where("vendor_id = ?", vendorID), filter).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification as read
func (r *GormNotificationRepository) MarkRead(ctx context.Context, vendorID, id uuid.UUID) error {
	var model models.NotificationModel
	db := r.db.WithContext(ctx)
	if err := db.Where("vendor_id = ? AND id = ?", vendorID, id).First(&model).Error; err != nil {
		return translateNotFound(err, shared.NewDomainError(shared.ErrNotFound.Code, "Notification not found"))
	}
	n := model.ToDomain()
	n.MarkRead()
	return db.Model(&models.NotificationModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"read": n.Read, "read_at": n.ReadAt}).Error
}

// MarkAllRead marks every unread notification of the vendor as read
func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("vendor_id = ? AND read = ?", vendorID, false).
		Updates(map[string]any{"read": true, "read_at": time.Now()})
	return result.RowsAffected, result.Error
}

// HasReminderSince reports whether a reminder for the receivable was created after since
func (r *GormNotificationRepository) HasReminderSince(ctx context.Context, receivableID uuid.UUID, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("receivable_id = ? AND kind = ? AND created_at > ?", receivableID, billing.NotificationKindPaymentReminder, since).
		Count(&count).Error
	return count > 0, err
}

func (r *GormNotificationRepository) applyFilter(query *gorm.DB, filter billing.NotificationFilter) *gorm.DB {
	if filter.UnreadOnly {
		query = query.Where("read = ?", false)
	}
	return query
}

var _ billing.NotificationRepository = (*GormNotificationRepository)(nil)
