package billing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/vendorbill/backend/internal/domain/shared"
)

// Vendor owns every other billing entity and scopes every query
type Vendor struct {
	shared.BaseAggregateRoot
	Name  string
	Phone string
}

// NewVendor creates a new vendor
func NewVendor(name, phone string) (*Vendor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("Vendor name is required")
	}
	return &Vendor{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Phone:             strings.TrimSpace(phone),
	}, nil
}

// Customer belongs to exactly one vendor
type Customer struct {
	shared.VendorAggregateRoot
	Name    string
	Phone   string
	Address string
}

// NewCustomer creates a new customer for a vendor
func NewCustomer(vendorID uuid.UUID, name, phone, address string) (*Customer, error) {
	if vendorID == uuid.Nil {
		return nil, invalidInput("Vendor ID is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("Customer name is required")
	}
	return &Customer{
		VendorAggregateRoot: shared.NewVendorAggregateRoot(vendorID),
		Name:                name,
		Phone:               strings.TrimSpace(phone),
		Address:             strings.TrimSpace(address),
	}, nil
}
