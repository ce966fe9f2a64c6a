package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendorbill/backend/internal/domain/shared"
)

// Event types
const (
	EventTypeReceivableCreated       = "ReceivableCreated"
	EventTypeReceivableStatusChanged = "ReceivableStatusChanged"
	EventTypePaymentRecorded         = "PaymentRecorded"
)

// Aggregate type names
const (
	AggregateTypeReceivable = "Receivable"
	AggregateTypePayment    = "Payment"
)

// ReceivableCreatedEvent is raised when a receivable is numbered and stored
type ReceivableCreatedEvent struct {
	shared.BaseDomainEvent
	ReceivableID  uuid.UUID       `json:"receivable_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Kind          ReceivableKind  `json:"kind"`
	DisplayNumber string          `json:"display_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewReceivableCreatedEvent creates a new ReceivableCreatedEvent
func NewReceivableCreatedEvent(r *Receivable) *ReceivableCreatedEvent {
	return &ReceivableCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceivableCreated, AggregateTypeReceivable, r.ID, r.VendorID),
		ReceivableID:    r.ID,
		CustomerID:      r.CustomerID,
		Kind:            r.Kind,
		DisplayNumber:   r.DisplayNumber,
		TotalAmount:     r.TotalAmount,
	}
}

// ReceivableStatusChangedEvent is raised once per status transition
// (pending→partial, partial→paid, pending→paid).
type ReceivableStatusChangedEvent struct {
	shared.BaseDomainEvent
	ReceivableID  uuid.UUID        `json:"receivable_id"`
	CustomerID    uuid.UUID        `json:"customer_id"`
	DisplayNumber string           `json:"display_number"`
	PaymentID     uuid.UUID        `json:"payment_id"`
	FromStatus    ReceivableStatus `json:"from_status"`
	ToStatus      ReceivableStatus `json:"to_status"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	PaidAmount    decimal.Decimal  `json:"paid_amount"`
	PendingAmount decimal.Decimal  `json:"pending_amount"`
}

// NewReceivableStatusChangedEvent creates a new ReceivableStatusChangedEvent
func NewReceivableStatusChangedEvent(r *Receivable, t StatusTransition, paymentID uuid.UUID) *ReceivableStatusChangedEvent {
	return &ReceivableStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceivableStatusChanged, AggregateTypeReceivable, r.ID, r.VendorID),
		ReceivableID:    r.ID,
		CustomerID:      r.CustomerID,
		DisplayNumber:   r.DisplayNumber,
		PaymentID:       paymentID,
		FromStatus:      t.From,
		ToStatus:        t.To,
		TotalAmount:     r.TotalAmount,
		PaidAmount:      r.PaidAmount,
		PendingAmount:   r.PendingAmount(),
	}
}

// PaymentRecordedEvent is raised when a payment commits
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID   uuid.UUID        `json:"payment_id"`
	CustomerID  *uuid.UUID       `json:"customer_id,omitempty"`
	Amount      decimal.Decimal  `json:"amount"`
	Type        PaymentType      `json:"type"`
	Method      PaymentMethod    `json:"method"`
	Linked      bool             `json:"linked"`
	Allocations []AllocationLine `json:"allocations,omitempty"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID, p.VendorID),
		PaymentID:       p.ID,
		CustomerID:      p.CustomerID,
		Amount:          p.Amount,
		Type:            p.Type,
		Method:          p.Method,
		Linked:          p.Allocation().IsExplicit(),
		Allocations:     p.Allocation().Lines(),
	}
}
