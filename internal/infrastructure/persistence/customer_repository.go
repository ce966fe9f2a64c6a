package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var customerOrderColumns = map[string]string{
	"name":       "name",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// GormCustomerRepository implements billing.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID regardless of vendor
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, billing.ErrCustomerNotFound)
	}
	return model.ToDomain(), nil
}

// FindByIDForVendor finds a customer by ID within a vendor
func (r *GormCustomerRepository) FindByIDForVendor(ctx context.Context, vendorID, id uuid.UUID) (*billing.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND id = ?", vendorID, id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, billing.ErrCustomerNotFound)
	}
	return model.ToDomain(), nil
}

// FindAllForVendor lists a vendor's customers
func (r *GormCustomerRepository) FindAllForVendor(ctx context.Context, vendorID uuid.UUID, filter billing.CustomerFilter) ([]billing.Customer, error) {
	var rows []models.CustomerModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CustomerModel{}).Where("vendor_id = ?", vendorID), filter)
	if err := applyPaging(query, filter.Filter, customerOrderColumns, "name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	customers := make([]billing.Customer, len(rows))
	for i := range rows {
		customers[i] = *rows[i].ToDomain()
	}
	return customers, nil
}

// CountForVendor counts a vendor's customers matching the filter
func (r *GormCustomerRepository) CountForVendor(ctx context.Context, vendorID uuid.UUID, filter billing.CustomerFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.CustomerModel{}).Where("vendor_id = ?", vendorID), filter).
		Count(&count).Error
	return count, err
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *billing.Customer) error {
	return r.db.WithContext(ctx).Save(models.CustomerModelFromDomain(customer)).Error
}

func (r *GormCustomerRepository) applyFilter(query *gorm.DB, filter billing.CustomerFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := searchPattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR phone LIKE ?", pattern, pattern)
	}
	return query
}

var _ billing.CustomerRepository = (*GormCustomerRepository)(nil)
