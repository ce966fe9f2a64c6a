package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendorbill/backend/internal/domain/billing"
)

// ReceivableModel is the persistence model for the Receivable aggregate.
// Status is not stored; it is derived from total_amount and paid_amount.
type ReceivableModel struct {
	AggregateModel
	VendorID      uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_receivable_vendor_number,priority:1"`
	CustomerID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	Kind          billing.ReceivableKind `gorm:"type:varchar(20);not null"`
	DisplayNumber string                 `gorm:"type:varchar(40);not null;uniqueIndex:idx_receivable_vendor_number,priority:2"`
	TotalAmount   decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	PaidAmount    decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	Items         billing.LineItems      `gorm:"type:jsonb"`
	Remark        string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ReceivableModel) TableName() string {
	return "receivables"
}

// ToDomain converts the persistence model to a domain Receivable.
func (m *ReceivableModel) ToDomain() *billing.Receivable {
	r := &billing.Receivable{
		CustomerID:    m.CustomerID,
		Kind:          m.Kind,
		DisplayNumber: m.DisplayNumber,
		TotalAmount:   m.TotalAmount,
		PaidAmount:    m.PaidAmount,
		Items:         m.Items,
		Remark:        m.Remark,
	}
	m.PopulateAggregateRoot(&r.BaseAggregateRoot)
	r.VendorID = m.VendorID
	return r
}

// FromDomain populates the persistence model from a domain Receivable.
func (m *ReceivableModel) FromDomain(r *billing.Receivable) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.VendorID = r.VendorID
	m.CustomerID = r.CustomerID
	m.Kind = r.Kind
	m.DisplayNumber = r.DisplayNumber
	m.TotalAmount = r.TotalAmount
	m.PaidAmount = r.PaidAmount
	m.Items = r.Items
	m.Remark = r.Remark
}

// ReceivableModelFromDomain creates a new persistence model from a domain Receivable.
func ReceivableModelFromDomain(r *billing.Receivable) *ReceivableModel {
	m := &ReceivableModel{}
	m.FromDomain(r)
	return m
}

// SequenceConfigModel stores one vendor's numbering state. The row is the
// serialization point for number issuance and is read with FOR UPDATE.
type SequenceConfigModel struct {
	VendorID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Prefix       string    `gorm:"type:varchar(10);not null"`
	StartCount   int64     `gorm:"not null"`
	CurrentCount int64     `gorm:"not null"`
	Version      int       `gorm:"not null;default:1"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceConfigModel) TableName() string {
	return "sequence_configs"
}

// ToDomain converts the persistence model to a domain SequenceConfig.
func (m *SequenceConfigModel) ToDomain() *billing.SequenceConfig {
	return &billing.SequenceConfig{
		VendorID:     m.VendorID,
		Prefix:       m.Prefix,
		StartCount:   m.StartCount,
		CurrentCount: m.CurrentCount,
		Version:      m.Version,
		UpdatedAt:    m.UpdatedAt,
	}
}

// SequenceConfigModelFromDomain creates a new persistence model from a domain SequenceConfig.
func SequenceConfigModelFromDomain(c *billing.SequenceConfig) *SequenceConfigModel {
	return &SequenceConfigModel{
		VendorID:     c.VendorID,
		Prefix:       c.Prefix,
		StartCount:   c.StartCount,
		CurrentCount: c.CurrentCount,
		Version:      c.Version,
		UpdatedAt:    c.UpdatedAt,
	}
}

// UsedNumberModel is the append-only log of issued display numbers.
type UsedNumberModel struct {
	VendorID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	DisplayNumber string    `gorm:"type:varchar(40);primaryKey"`
	ReceivableID  uuid.UUID `gorm:"type:uuid;not null"`
	IssuedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UsedNumberModel) TableName() string {
	return "used_numbers"
}

// ToDomain converts the persistence model to a domain UsedNumber.
func (m *UsedNumberModel) ToDomain() billing.UsedNumber {
	return billing.UsedNumber{
		VendorID:      m.VendorID,
		DisplayNumber: m.DisplayNumber,
		ReceivableID:  m.ReceivableID,
		IssuedAt:      m.IssuedAt,
	}
}

// UsedNumberModelFromDomain creates a new persistence model from a domain UsedNumber.
func UsedNumberModelFromDomain(u billing.UsedNumber) *UsedNumberModel {
	return &UsedNumberModel{
		VendorID:      u.VendorID,
		DisplayNumber: u.DisplayNumber,
		ReceivableID:  u.ReceivableID,
		IssuedAt:      u.IssuedAt,
	}
}
