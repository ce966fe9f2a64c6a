package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
)

// VendorService handles vendor registration and lookup
type VendorService struct {
	vendorRepo billing.VendorRepository
}

// NewVendorService creates a new VendorService
func NewVendorService(vendorRepo billing.VendorRepository) *VendorService {
	return &VendorService{vendorRepo: vendorRepo}
}

// Create registers a new vendor
func (s *VendorService) Create(ctx context.Context, req CreateVendorRequest) (*VendorResponse, error) {
	vendor, err := billing.NewVendor(req.Name, req.Phone)
	if err != nil {
		return nil, err
	}
	if err := s.vendorRepo.Save(ctx, vendor); err != nil {
		return nil, err
	}
	return toVendorResponse(vendor), nil
}

// GetByID retrieves a vendor
func (s *VendorService) GetByID(ctx context.Context, vendorID uuid.UUID) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return toVendorResponse(vendor), nil
}

// CustomerService handles customer operations within a vendor
type CustomerService struct {
	vendorRepo   billing.VendorRepository
	customerRepo billing.CustomerRepository
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(vendorRepo billing.VendorRepository, customerRepo billing.CustomerRepository) *CustomerService {
	return &CustomerService{
		vendorRepo:   vendorRepo,
		customerRepo: customerRepo,
	}
}

// Create creates a customer for the vendor
func (s *CustomerService) Create(ctx context.Context, vendorID uuid.UUID, req CreateCustomerRequest) (*CustomerResponse, error) {
	if _, err := s.vendorRepo.FindByID(ctx, vendorID); err != nil {
		return nil, err
	}
	customer, err := billing.NewCustomer(vendorID, req.Name, req.Phone, req.Address)
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// GetByID retrieves one of the vendor's customers
func (s *CustomerService) GetByID(ctx context.Context, vendorID, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForVendor(ctx, vendorID, customerID)
	if err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// List lists the vendor's customers
func (s *CustomerService) List(ctx context.Context, vendorID uuid.UUID, filter CustomerListFilter) ([]CustomerResponse, int64, error) {
	domainFilter := billing.CustomerFilter{Filter: pageFilter(filter.Page, filter.PageSize, "name", "asc")}
	domainFilter.Search = filter.Search

	customers, err := s.customerRepo.FindAllForVendor(ctx, vendorID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.customerRepo.CountForVendor(ctx, vendorID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = *toCustomerResponse(&customers[i])
	}
	return responses, total, nil
}

// pageFilter builds a shared.Filter with list defaults applied
func pageFilter(page, pageSize int, orderBy, orderDir string) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = min(pageSize, 100)
	}
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	if orderDir != "" {
		f.OrderDir = orderDir
	}
	return f
}
