package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/vendorbill/backend/internal/domain/billing"
)

// NotificationModel is the persistence model for vendor notifications.
// source_event is unique so a redelivered event cannot notify twice.
type NotificationModel struct {
	ID           uuid.UUID                `gorm:"type:uuid;primaryKey"`
	VendorID     uuid.UUID                `gorm:"type:uuid;not null;index:idx_notification_vendor_read,priority:1"`
	Kind         billing.NotificationKind `gorm:"type:varchar(40);not null"`
	Title        string                   `gorm:"type:varchar(200);not null"`
	Message      string                   `gorm:"type:text"`
	ReceivableID *uuid.UUID               `gorm:"type:uuid;index"`
	PaymentID    *uuid.UUID               `gorm:"type:uuid"`
	SourceEvent  *uuid.UUID               `gorm:"type:uuid;uniqueIndex"`
	Read         bool                     `gorm:"not null;default:false;index:idx_notification_vendor_read,priority:2"`
	ReadAt       *time.Time
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Notification.
func (m *NotificationModel) ToDomain() *billing.Notification {
	return &billing.Notification{
		ID:           m.ID,
		VendorID:     m.VendorID,
		Kind:         m.Kind,
		Title:        m.Title,
		Message:      m.Message,
		ReceivableID: m.ReceivableID,
		PaymentID:    m.PaymentID,
		SourceEvent:  m.SourceEvent,
		Read:         m.Read,
		ReadAt:       m.ReadAt,
		CreatedAt:    m.CreatedAt,
	}
}

// NotificationModelFromDomain creates a new persistence model from a domain Notification.
func NotificationModelFromDomain(n *billing.Notification) *NotificationModel {
	return &NotificationModel{
		ID:           n.ID,
		VendorID:     n.VendorID,
		Kind:         n.Kind,
		Title:        n.Title,
		Message:      n.Message,
		ReceivableID: n.ReceivableID,
		PaymentID:    n.PaymentID,
		SourceEvent:  n.SourceEvent,
		Read:         n.Read,
		ReadAt:       n.ReadAt,
		CreatedAt:    n.CreatedAt,
	}
}
