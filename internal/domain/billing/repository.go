package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendorbill/backend/internal/domain/shared"
)

// VendorRepository defines the interface for vendor persistence
type VendorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vendor, error)
	Save(ctx context.Context, vendor *Vendor) error
}

// CustomerFilter defines filtering options for customer queries
type CustomerFilter struct {
	shared.Filter
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer regardless of vendor, for ownership checks
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByIDForVendor(ctx context.Context, vendorID, id uuid.UUID) (*Customer, error)
	FindAllForVendor(ctx context.Context, vendorID uuid.UUID, filter CustomerFilter) ([]Customer, error)
	CountForVendor(ctx context.Context, vendorID uuid.UUID, filter CustomerFilter) (int64, error)
	Save(ctx context.Context, customer *Customer) error
}

// ReceivableFilter defines filtering options for receivable queries
type ReceivableFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Kind       ReceivableKind
	Status     ReceivableStatus
	FromDate   *time.Time // created at or after
	ToDate     *time.Time // created at or before
}

// ReceivableTotals aggregates a set of receivables
type ReceivableTotals struct {
	TotalInvoiced decimal.Decimal
	TotalPaid     decimal.Decimal
	Outstanding   decimal.Decimal
	Count         int64
}

// ReceivableRepository defines the interface for receivable persistence
type ReceivableRepository interface {
	FindByIDForVendor(ctx context.Context, vendorID, id uuid.UUID) (*Receivable, error)

	// FindByIDsForUpdate loads and row-locks the given receivables in id order.
	// It is not vendor-scoped so that the caller can tell a missing receivable
	// from one owned by another vendor. Missing ids are simply absent.
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*Receivable, error)

	FindAllForVendor(ctx context.Context, vendorID uuid.UUID, filter ReceivableFilter) ([]Receivable, error)
	CountForVendor(ctx context.Context, vendorID uuid.UUID, filter ReceivableFilter) (int64, error)

	// FindOutstandingByCustomer returns the customer's receivables with pending > 0, oldest first
	FindOutstandingByCustomer(ctx context.Context, vendorID, customerID uuid.UUID) ([]Receivable, error)

	// FindOutstandingCreatedBefore returns outstanding receivables of all vendors created before
	// the cutoff that have had no payment reminder after remindedSince, oldest first
	FindOutstandingCreatedBefore(ctx context.Context, cutoff, remindedSince time.Time, limit int) ([]Receivable, error)

	Create(ctx context.Context, receivable *Receivable) error

	// SaveWithLock persists paid amount changes only if the stored version is
	// receivable.Version-1, failing with shared.ErrConcurrencyConflict otherwise
	SaveWithLock(ctx context.Context, receivable *Receivable) error

	// DeleteForVendor deletes a receivable that has nothing paid
	DeleteForVendor(ctx context.Context, vendorID, id uuid.UUID) error

	// SumByCustomer totals the customer's receivables, optionally restricted to a creation window
	SumByCustomer(ctx context.Context, vendorID, customerID uuid.UUID, from, to *time.Time) (ReceivableTotals, error)

	// SumPendingForVendor totals pending amounts, optionally for one kind
	SumPendingForVendor(ctx context.Context, vendorID uuid.UUID, kind ReceivableKind) (ReceivableTotals, error)
}

// SequenceRepository defines the interface for numbering state persistence
type SequenceRepository interface {
	// FindByVendor returns the stored configuration or shared.ErrNotFound
	FindByVendor(ctx context.Context, vendorID uuid.UUID) (*SequenceConfig, error)

	// FindForUpdate creates the default configuration if absent and returns it row-locked
	FindForUpdate(ctx context.Context, vendorID uuid.UUID) (*SequenceConfig, error)

	// Save persists the configuration if the stored version is config.Version-1
	Save(ctx context.Context, config *SequenceConfig) error

	// AppendUsedNumber records an issued number; a duplicate fails with DUPLICATE_NUMBER
	AppendUsedNumber(ctx context.Context, used UsedNumber) error

	IsNumberUsed(ctx context.Context, vendorID uuid.UUID, displayNumber string) (bool, error)
	CountUsedNumbers(ctx context.Context, vendorID uuid.UUID) (int64, error)
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Type       PaymentType
	Method     PaymentMethod
	FromDate   *time.Time // payment date at or after
	ToDate     *time.Time // payment date at or before
}

// PaymentTotals aggregates payments by type
type PaymentTotals struct {
	Credit decimal.Decimal
	Debit  decimal.Decimal
	Count  int64
}

// MethodTotal aggregates payments for one method
type MethodTotal struct {
	Method PaymentMethod
	Amount decimal.Decimal
	Count  int64
}

// PaymentRepository defines the interface for payment persistence.
// Payments are immutable, so there is no update or delete.
type PaymentRepository interface {
	// Create stores the payment and its allocation lines
	Create(ctx context.Context, payment *Payment) error
	FindByIDForVendor(ctx context.Context, vendorID, id uuid.UUID) (*Payment, error)
	FindAllForVendor(ctx context.Context, vendorID uuid.UUID, filter PaymentFilter) ([]Payment, error)
	CountForVendor(ctx context.Context, vendorID uuid.UUID, filter PaymentFilter) (int64, error)

	// SumByCustomer totals the customer's payments by payment date window (nil bounds are open)
	SumByCustomer(ctx context.Context, vendorID, customerID uuid.UUID, from, to *time.Time) (PaymentTotals, error)

	// Totals aggregates the vendor's payments by type and by method
	Totals(ctx context.Context, vendorID uuid.UUID, from, to *time.Time) (PaymentTotals, []MethodTotal, error)
}

// NotificationFilter defines filtering options for notification queries
type NotificationFilter struct {
	shared.Filter
	UnreadOnly bool
}

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	// Create stores a notification; a second notification for the same source event is ignored
	Create(ctx context.Context, n *Notification) error
	FindAllForVendor(ctx context.Context, vendorID uuid.UUID, filter NotificationFilter) ([]Notification, error)
	CountForVendor(ctx context.Context, vendorID uuid.UUID, filter NotificationFilter) (int64, error)
	MarkRead(ctx context.Context, vendorID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, vendorID uuid.UUID) (int64, error)

	// HasReminderSince reports whether a reminder for the receivable was created after since
	HasReminderSince(ctx context.Context, receivableID uuid.UUID, since time.Time) (bool, error)
}
