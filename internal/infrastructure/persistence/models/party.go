package models

import "github.com/vendorbill/backend/internal/domain/billing"

// VendorModel is the persistence model for the Vendor aggregate.
type VendorModel struct {
	AggregateModel
	Name  string `gorm:"type:varchar(200);not null"`
	Phone string `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (VendorModel) TableName() string {
	return "vendors"
}

// ToDomain converts the persistence model to a domain Vendor.
func (m *VendorModel) ToDomain() *billing.Vendor {
	v := &billing.Vendor{Name: m.Name, Phone: m.Phone}
	m.PopulateAggregateRoot(&v.BaseAggregateRoot)
	return v
}

// FromDomain populates the persistence model from a domain Vendor.
func (m *VendorModel) FromDomain(v *billing.Vendor) {
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	m.Name = v.Name
	m.Phone = v.Phone
}

// VendorModelFromDomain creates a new persistence model from a domain Vendor.
func VendorModelFromDomain(v *billing.Vendor) *VendorModel {
	m := &VendorModel{}
	m.FromDomain(v)
	return m
}

// CustomerModel is the persistence model for the Customer aggregate.
type CustomerModel struct {
	VendorAggregateModel
	Name    string `gorm:"type:varchar(200);not null"`
	Phone   string `gorm:"type:varchar(50);index"`
	Address string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer.
func (m *CustomerModel) ToDomain() *billing.Customer {
	c := &billing.Customer{Name: m.Name, Phone: m.Phone, Address: m.Address}
	m.PopulateVendorAggregateRoot(&c.VendorAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Customer.
func (m *CustomerModel) FromDomain(c *billing.Customer) {
	m.FromDomainVendorAggregateRoot(c.VendorAggregateRoot)
	m.Name = c.Name
	m.Phone = c.Phone
	m.Address = c.Address
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer.
func CustomerModelFromDomain(c *billing.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

