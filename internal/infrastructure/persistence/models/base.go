package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/vendorbill/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel provides common persistence fields for aggregate roots.
// It extends BaseModel with version for optimistic locking.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// PopulateAggregateRoot populates a domain BaseAggregateRoot from persistence model
func (m *AggregateModel) PopulateAggregateRoot(a *shared.BaseAggregateRoot) {
	a.BaseEntity = m.BaseModel.ToDomain()
	a.Version = m.Version
}

// VendorAggregateModel provides common persistence fields for vendor-owned aggregate roots.
type VendorAggregateModel struct {
	AggregateModel
	VendorID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// FromDomainVendorAggregateRoot populates VendorAggregateModel from domain VendorAggregateRoot
func (m *VendorAggregateModel) FromDomainVendorAggregateRoot(v shared.VendorAggregateRoot) {
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	m.VendorID = v.VendorID
}

// PopulateVendorAggregateRoot populates a domain VendorAggregateRoot from persistence model
func (m *VendorAggregateModel) PopulateVendorAggregateRoot(v *shared.VendorAggregateRoot) {
	m.PopulateAggregateRoot(&v.BaseAggregateRoot)
	v.VendorID = m.VendorID
}

// AllModels lists every persisted model, in dependency order
func AllModels() []any {
	return []any{
		&VendorModel{},
		&CustomerModel{},
		&ReceivableModel{},
		&SequenceConfigModel{},
		&UsedNumberModel{},
		&PaymentModel{},
		&PaymentAllocationModel{},
		&NotificationModel{},
		&OutboxEntryModel{},
	}
}
