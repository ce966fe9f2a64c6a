package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationKind identifies what a notification is about
type NotificationKind string

const (
	NotificationKindPaymentRecorded NotificationKind = "payment_recorded"
	NotificationKindStatusChanged   NotificationKind = "receivable_status_changed"
	NotificationKindPaymentReminder NotificationKind = "payment_reminder"
)

// Notification is an in-app message for the vendor
type Notification struct {
	ID           uuid.UUID
	VendorID     uuid.UUID
	Kind         NotificationKind
	Title        string
	Message      string
	ReceivableID *uuid.UUID
	PaymentID    *uuid.UUID
	SourceEvent  *uuid.UUID
	Read         bool
	ReadAt       *time.Time
	CreatedAt    time.Time
}

// NewNotification creates an unread notification
func NewNotification(vendorID uuid.UUID, kind NotificationKind, title, message string) *Notification {
	return &Notification{
		ID:        uuid.New(),
		VendorID:  vendorID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// MarkRead marks the notification as read; repeated calls keep the first ReadAt
func (n *Notification) MarkRead() {
	if n.Read {
		return
	}
	now := time.Now()
	n.Read = true
	n.ReadAt = &now
}

// NotificationForStatusChange builds the notification for a status transition
func NotificationForStatusChange(e *ReceivableStatusChangedEvent) *Notification {
	var title string
	switch e.ToStatus {
	case ReceivableStatusPaid:
		title = fmt.Sprintf("%s fully paid", e.DisplayNumber)
	default:
		title = fmt.Sprintf("%s partially paid", e.DisplayNumber)
	}
	n := NewNotification(e.VendorID(), NotificationKindStatusChanged, title, fmt.Sprintf(
		"%s moved from %s to %s. Paid %s of %s, pending %s.",
		e.DisplayNumber, e.FromStatus, e.ToStatus,
		e.PaidAmount.StringFixed(MoneyPlaces), e.TotalAmount.StringFixed(MoneyPlaces), e.PendingAmount.StringFixed(MoneyPlaces),
	))
	receivableID, paymentID, eventID := e.ReceivableID, e.PaymentID, e.EventID()
	n.ReceivableID = &receivableID
	n.PaymentID = &paymentID
	n.SourceEvent = &eventID
	return n
}

// NotificationForPayment builds the notification for a recorded payment
func NotificationForPayment(e *PaymentRecordedEvent) *Notification {
	verb := "received"
	if e.Type == PaymentTypeDebit {
		verb = "paid out"
	}
	message := fmt.Sprintf("%s %s via %s", e.Amount.StringFixed(MoneyPlaces), verb, e.Method)
	if e.Linked {
		message = fmt.Sprintf("%s, applied to %d receivable(s)", message, len(e.Allocations))
	}
	n := NewNotification(e.VendorID(), NotificationKindPaymentRecorded, "Payment recorded", message)
	paymentID, eventID := e.PaymentID, e.EventID()
	n.PaymentID = &paymentID
	n.SourceEvent = &eventID
	return n
}

// NotificationForReminder builds a payment reminder for an outstanding receivable
func NotificationForReminder(r *Receivable, age time.Duration) *Notification {
	days := int(age.Hours() / 24)
	n := NewNotification(r.VendorID, NotificationKindPaymentReminder,
		fmt.Sprintf("Payment pending on %s", r.DisplayNumber),
		fmt.Sprintf("%s has %s pending for %d day(s).", r.DisplayNumber, r.PendingAmount().StringFixed(MoneyPlaces), days),
	)
	receivableID := r.ID
	n.ReceivableID = &receivableID
	return n
}
