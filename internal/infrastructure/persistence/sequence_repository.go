package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
	"github.com/vendorbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceRepository implements billing.SequenceRepository using GORM
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// FindByVendor returns the vendor's numbering configuration
func (r *GormSequenceRepository) FindByVendor(ctx context.Context, vendorID uuid.UUID) (*billing.SequenceConfig, error) {
	var model models.SequenceConfigModel
	if err := r.db.WithContext(ctx).First(&model, "vendor_id = ?", vendorID).Error; err != nil {
		return nil, translateNotFound(err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// FindForUpdate inserts the default configuration if the vendor has none,
// then reads the row with SELECT ... FOR UPDATE. Must run inside a transaction.
func (r *GormSequenceRepository) FindForUpdate(ctx context.Context, vendorID uuid.UUID) (*billing.SequenceConfig, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "vendor_id"}},
		DoNothing: true,
	}).Create(models.SequenceConfigModelFromDomain(billing.NewDefaultSequenceConfig(vendorID))).Error; err != nil {
		return nil, fmt.Errorf("failed to initialize sequence config: %w", err)
	}

	var model models.SequenceConfigModel
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "vendor_id = ?", vendorID).Error; err != nil {
		return nil, translateNotFound(err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// Save persists the configuration with optimistic locking (checks version)
func (r *GormSequenceRepository) Save(ctx context.Context, config *billing.SequenceConfig) error {
	result := r.db.WithContext(ctx).
		Model(&models.SequenceConfigModel{}).
		Where("vendor_id = ? AND version = ?", config.VendorID, config.Version-1).
		Updates(map[string]any{
			"prefix":        config.Prefix,
			"start_count":   config.StartCount,
			"current_count": config.CurrentCount,
			"version":       config.Version,
			"updated_at":    config.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.ErrConcurrencyConflict.Code, "Invoice numbering was modified by another transaction")
	}
	return nil
}

// AppendUsedNumber records an issued display number
func (r *GormSequenceRepository) AppendUsedNumber(ctx context.Context, used billing.UsedNumber) error {
	err := r.db.WithContext(ctx).Create(models.UsedNumberModelFromDomain(used)).Error
	if isUniqueViolation(err) {
		return shared.NewDomainError(billing.CodeDuplicateNumber,
			fmt.Sprintf("Display number %s was already issued", used.DisplayNumber))
	}
	return err
}

// IsNumberUsed reports whether the display number was ever issued to the vendor
func (r *GormSequenceRepository) IsNumberUsed(ctx context.Context, vendorID uuid.UUID, displayNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UsedNumberModel{}).
		Where("vendor_id = ? AND display_number = ?", vendorID, displayNumber).
		Count(&count).Error
	return count > 0, err
}

// CountUsedNumbers counts the numbers issued to the vendor
func (r *GormSequenceRepository) CountUsedNumbers(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UsedNumberModel{}).
		Where("vendor_id = ?", vendorID).
		Count(&count).Error
	return count, err
}

var _ billing.SequenceRepository = (*GormSequenceRepository)(nil)
