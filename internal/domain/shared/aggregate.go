package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// VendorAggregateRoot is an aggregate root owned by exactly one vendor.
// Every query against a vendor-owned aggregate is scoped by VendorID.
type VendorAggregateRoot struct {
	BaseAggregateRoot
	VendorID uuid.UUID
}

// NewVendorAggregateRoot creates a new vendor-scoped aggregate root
func NewVendorAggregateRoot(vendorID uuid.UUID) VendorAggregateRoot {
	return VendorAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		VendorID:          vendorID,
	}
}

// BelongsTo reports whether the aggregate is owned by the given vendor
func (v *VendorAggregateRoot) BelongsTo(vendorID uuid.UUID) bool {
	return v.VendorID == vendorID
}
