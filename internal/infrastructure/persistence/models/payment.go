package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendorbill/backend/internal/domain/billing"
)

// PaymentModel is the persistence model for the Payment aggregate.
// Payments are insert-only.
type PaymentModel struct {
	VendorAggregateModel
	CustomerID     *uuid.UUID               `gorm:"type:uuid;index"`
	Amount         decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	Type           billing.PaymentType      `gorm:"type:varchar(10);not null"`
	Method         billing.PaymentMethod    `gorm:"type:varchar(20);not null"`
	Details        billing.MethodDetails    `gorm:"type:jsonb"`
	PaymentDate    time.Time                `gorm:"not null;index"`
	Reference      string                   `gorm:"type:varchar(100)"`
	Remark         string                   `gorm:"type:text"`
	AllocationMode billing.AllocationMode   `gorm:"type:varchar(20);not null"`
	Allocations    []PaymentAllocationModel `gorm:"foreignKey:PaymentID"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
// Allocations must be preloaded for a linked payment.
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		CustomerID:  m.CustomerID,
		Amount:      m.Amount,
		Type:        m.Type,
		Method:      m.Method,
		Details:     m.Details,
		PaymentDate: m.PaymentDate,
		Reference:   m.Reference,
		Remark:      m.Remark,
	}
	m.PopulateVendorAggregateRoot(&p.VendorAggregateRoot)

	allocation := billing.Unlinked()
	if m.AllocationMode == billing.AllocationModeExplicit {
		lines := make([]billing.AllocationLine, len(m.Allocations))
		for i, a := range m.Allocations {
			lines[i] = billing.AllocationLine{ReceivableID: a.ReceivableID, Amount: a.Amount}
		}
		allocation = billing.Explicit(lines...)
	}
	return billing.RehydratePayment(p, allocation)
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainVendorAggregateRoot(p.VendorAggregateRoot)
	m.CustomerID = p.CustomerID
	m.Amount = p.Amount
	m.Type = p.Type
	m.Method = p.Method
	m.Details = p.Details
	m.PaymentDate = p.PaymentDate
	m.Reference = p.Reference
	m.Remark = p.Remark
	m.AllocationMode = p.Allocation().Mode()

	lines := p.Allocation().Lines()
	m.Allocations = make([]PaymentAllocationModel, len(lines))
	for i, l := range lines {
		m.Allocations[i] = PaymentAllocationModel{
			PaymentID:    p.ID,
			ReceivableID: l.ReceivableID,
			Position:     i,
			Amount:       l.Amount,
		}
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// PaymentAllocationModel is one allocation line of a linked payment.
// A receivable appears at most once per payment.
type PaymentAllocationModel struct {
	PaymentID    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReceivableID uuid.UUID       `gorm:"type:uuid;primaryKey;index"`
	Position     int             `gorm:"not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (PaymentAllocationModel) TableName() string {
	return "payment_allocations"
}
