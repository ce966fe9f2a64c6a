package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendorbill/backend/internal/domain/shared"
)

// ReceivableKind distinguishes bills from challans
type ReceivableKind string

const (
	ReceivableKindBill    ReceivableKind = "bill"
	ReceivableKindChallan ReceivableKind = "challan"
)

// IsValid checks if the kind is a valid ReceivableKind
func (k ReceivableKind) IsValid() bool {
	return k == ReceivableKindBill || k == ReceivableKindChallan
}

// ReceivableStatus is derived from the pending amount and never set directly
type ReceivableStatus string

const (
	ReceivableStatusPending ReceivableStatus = "pending" // nothing paid yet
	ReceivableStatusPartial ReceivableStatus = "partial" // 0 < pending < total
	ReceivableStatusPaid    ReceivableStatus = "paid"    // pending == 0
)

// IsValid checks if the status is a valid ReceivableStatus
func (s ReceivableStatus) IsValid() bool {
	switch s {
	case ReceivableStatusPending, ReceivableStatusPartial, ReceivableStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of ReceivableStatus
func (s ReceivableStatus) String() string {
	return string(s)
}

// StatusFor derives the status from a total and a paid amount
func StatusFor(total, paid decimal.Decimal) ReceivableStatus {
	pending := total.Sub(paid)
	switch {
	case !pending.IsPositive():
		return ReceivableStatusPaid
	case pending.Equal(total):
		return ReceivableStatusPending
	default:
		return ReceivableStatusPartial
	}
}

// StatusTransition describes the status change caused by one allocation
type StatusTransition struct {
	From ReceivableStatus
	To   ReceivableStatus
}

// Changed reports whether the allocation moved the receivable to a new status
func (t StatusTransition) Changed() bool {
	return t.From != t.To
}

// LineItem is the bill/challan extension record. It is informational only;
// the receivable's TotalAmount is authoritative.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	GSTRate     decimal.Decimal `json:"gst_rate"`
}

// Amount returns quantity * unit price including GST
func (l LineItem) Amount() decimal.Decimal {
	base := l.Quantity.Mul(l.UnitPrice)
	tax := base.Mul(l.GSTRate).Div(decimal.NewFromInt(100))
	return RoundMoney(base.Add(tax))
}

// LineItems implements GORM Scanner/Valuer for JSONB storage
type LineItems []LineItem

// Value implements driver.Valuer
func (items LineItems) Value() (driver.Value, error) {
	if items == nil {
		return "[]", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (items *LineItems) Scan(value any) error {
	if value == nil {
		*items = LineItems{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan LineItems: unsupported type")
	}
	if len(raw) == 0 {
		*items = LineItems{}
		return nil
	}
	return json.Unmarshal(raw, items)
}

// Total sums the item amounts
func (items LineItems) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount())
	}
	return RoundMoney(total)
}

// Receivable is a bill or challan owed by a customer to the vendor.
// PaidAmount only grows, and only through ApplyAllocation.
type Receivable struct {
	shared.VendorAggregateRoot
	CustomerID    uuid.UUID
	Kind          ReceivableKind
	DisplayNumber string
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	Items         LineItems
	Remark        string
}

// NewReceivable creates an unnumbered receivable with nothing paid.
// The display number is stamped by the sequencer via AssignNumber.
func NewReceivable(vendorID, customerID uuid.UUID, kind ReceivableKind, total decimal.Decimal, items []LineItem, remark string) (*Receivable, error) {
	if vendorID == uuid.Nil {
		return nil, invalidInput("Vendor ID is required")
	}
	if customerID == uuid.Nil {
		return nil, invalidInput("Customer ID is required")
	}
	if !kind.IsValid() {
		return nil, invalidInput("Invalid receivable kind: %q", kind)
	}
	if total.IsNegative() {
		return nil, shared.NewDomainError(CodeInvalidAmount, "Total amount cannot be negative")
	}

	return &Receivable{
		VendorAggregateRoot: shared.NewVendorAggregateRoot(vendorID),
		CustomerID:          customerID,
		Kind:                kind,
		TotalAmount:         RoundMoney(total),
		PaidAmount:          decimal.Zero,
		Items:               LineItems(items),
		Remark:              strings.TrimSpace(remark),
	}, nil
}

// AssignNumber stamps the display number. A number is assigned exactly once.
func (r *Receivable) AssignNumber(displayNumber string) error {
	if r.DisplayNumber != "" {
		return shared.NewDomainError(shared.ErrInvalidState.Code,
			fmt.Sprintf("Receivable already numbered %s", r.DisplayNumber))
	}
	if displayNumber == "" {
		return invalidInput("Display number cannot be empty")
	}
	r.DisplayNumber = displayNumber
	r.AddDomainEvent(NewReceivableCreatedEvent(r))
	return nil
}

// PendingAmount returns TotalAmount - PaidAmount
func (r *Receivable) PendingAmount() decimal.Decimal {
	return r.TotalAmount.Sub(r.PaidAmount)
}

// Status returns the status derived from the pending amount
func (r *Receivable) Status() ReceivableStatus {
	return StatusFor(r.TotalAmount, r.PaidAmount)
}

// IsOutstanding reports whether anything remains to be paid
func (r *Receivable) IsOutstanding() bool {
	return r.PendingAmount().IsPositive()
}

// ApplyAllocation adds amount to PaidAmount. It rejects non-positive amounts and
// amounts above the current pending amount, leaving the receivable untouched.
// A status change event is recorded only when the status actually changes.
func (r *Receivable) ApplyAllocation(amount decimal.Decimal, paymentID uuid.UUID) (StatusTransition, error) {
	amount = RoundMoney(amount)
	if !amount.IsPositive() {
		return StatusTransition{}, shared.NewDomainError(CodeInvalidAmount,
			fmt.Sprintf("Allocation to receivable %s must be greater than zero", r.DisplayNumber))
	}
	if amount.GreaterThan(r.PendingAmount()) {
		return StatusTransition{}, NewOverAllocationError(r, amount)
	}

	transition := StatusTransition{From: r.Status()}
	r.PaidAmount = r.PaidAmount.Add(amount)
	transition.To = r.Status()

	if transition.Changed() {
		r.AddDomainEvent(NewReceivableStatusChangedEvent(r, transition, paymentID))
	}
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return transition, nil
}

// EnsureDeletable rejects deletion once any amount has been paid
func (r *Receivable) EnsureDeletable() error {
	if r.PaidAmount.IsPositive() {
		return shared.NewDomainError(shared.ErrInvalidState.Code,
			fmt.Sprintf("Receivable %s has payments applied and cannot be deleted", r.DisplayNumber))
	}
	return nil
}
