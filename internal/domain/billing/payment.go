package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendorbill/backend/internal/domain/shared"
)

// Payment is money received from or paid to a customer. It is immutable once
// created; corrections are recorded as new payments.
type Payment struct {
	shared.VendorAggregateRoot
	CustomerID  *uuid.UUID
	Amount      decimal.Decimal
	Type        PaymentType
	Method      PaymentMethod
	Details     MethodDetails
	PaymentDate time.Time
	Reference   string
	Remark      string
	allocation  Allocation
}

// NewPaymentParams holds the inputs of NewPayment
type NewPaymentParams struct {
	VendorID    uuid.UUID
	CustomerID  *uuid.UUID
	Amount      decimal.Decimal
	Type        PaymentType
	Method      PaymentMethod
	Details     MethodDetails
	PaymentDate time.Time
	Reference   string
	Remark      string
	Allocation  Allocation
}

// NewPayment validates the inputs and builds a payment. Storage-dependent
// checks (receivable ownership and pending amounts) happen in the allocator.
func NewPayment(p NewPaymentParams) (*Payment, error) {
	amount := RoundMoney(p.Amount)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if p.VendorID == uuid.Nil {
		return nil, invalidInput("Vendor ID is required")
	}
	if p.CustomerID != nil && *p.CustomerID == uuid.Nil {
		p.CustomerID = nil
	}
	if !p.Type.IsValid() {
		return nil, invalidInput("Invalid payment type: %q", p.Type)
	}
	if !p.Method.IsValid() {
		return nil, invalidInput("Invalid payment method: %q", p.Method)
	}
	details := p.Details.Normalize()
	if err := details.Validate(p.Method); err != nil {
		return nil, err
	}

	paymentDate := p.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}
	if isFutureDate(paymentDate, time.Now()) {
		return nil, invalidInput("Payment date cannot be in the future")
	}

	if err := p.Allocation.validate(amount); err != nil {
		return nil, err
	}
	if p.Allocation.IsExplicit() && p.Type != PaymentTypeCredit {
		return nil, invalidInput("Only credit payments can be allocated to receivables")
	}

	payment := &Payment{
		VendorAggregateRoot: shared.NewVendorAggregateRoot(p.VendorID),
		CustomerID:          p.CustomerID,
		Amount:              amount,
		Type:                p.Type,
		Method:              p.Method,
		Details:             details,
		PaymentDate:         paymentDate,
		Reference:           strings.TrimSpace(p.Reference),
		Remark:              strings.TrimSpace(p.Remark),
		allocation:          p.Allocation,
	}
	payment.AddDomainEvent(NewPaymentRecordedEvent(payment))
	return payment, nil
}

// RehydratePayment rebuilds a stored payment without re-running validation
func RehydratePayment(p *Payment, allocation Allocation) *Payment {
	p.allocation = allocation
	return p
}

// Allocation returns how the payment was applied
func (p *Payment) Allocation() Allocation {
	return p.allocation
}

// IsLinked reports whether the payment was applied to specific receivables
func (p *Payment) IsLinked() bool {
	return p.allocation.IsExplicit()
}

// isFutureDate compares calendar days in UTC, so any time today is accepted
func isFutureDate(d, now time.Time) bool {
	dy, dm, dd := d.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	day := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return day.After(today)
}
