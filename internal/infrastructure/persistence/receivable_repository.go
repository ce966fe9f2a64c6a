package persistence

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
	"github.com/vendorbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const outstandingCondition = "paid_amount < total_amount"

var receivableOrderColumns = map[string]string{
	"created_at":     "created_at",
	"display_number": "display_number",
	"total_amount":   "total_amount",
	"paid_amount":    "paid_amount",
}

// GormReceivableRepository implements billing.ReceivableRepository using GORM
type GormReceivableRepository struct {
	db *gorm.DB
}

// NewGormReceivableRepository creates a new GormReceivableRepository
func NewGormReceivableRepository(db *gorm.DB) *GormReceivableRepository {
	return &GormReceivableRepository{db: db}
}

// FindByIDForVendor finds a receivable by ID within a vendor
func (r *GormReceivableRepository) FindByIDForVendor(ctx context.Context, vendorID, id uuid.UUID) (*billing.Receivable, error) {
	var model models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND id = ?", vendorID, id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, billing.NewReceivableNotFoundError(id))
	}
	return model.ToDomain(), nil
}

// FindByIDsForUpdate loads the receivables with SELECT ... FOR UPDATE.
// Rows are locked in id order so that concurrent allocators touching
// overlapping receivables cannot deadlock.
func (r *GormReceivableRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*billing.Receivable, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	var rows []models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", sorted).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]*billing.Receivable, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result, nil
}

// FindAllForVendor lists a vendor's receivables
func (r *GormReceivableRepository) FindAllForVendor(ctx context.Context, vendorID uuid.UUID, filter billing.ReceivableFilter) ([]billing.Receivable, error) {
	var rows []models.ReceivableModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ReceivableModel{}).Where("vendor_id = ?", vendorID), filter)
	if err := applyPaging(query, filter.Filter, receivableOrderColumns, "created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return receivablesToDomain(rows), nil
}

// CountForVendor counts a vendor's receivables matching the filter
func (r *GormReceivableRepository) CountForVendor(ctx context.Context, vendorID uuid.UUID, filter billing.ReceivableFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ReceivableModel{}).Where("vendor_id = ?", vendorID), filter).
		Count(&count).Error
	return count, err
}

// FindOutstandingByCustomer returns the customer's unpaid receivables, oldest first
func (r *GormReceivableRepository) FindOutstandingByCustomer(ctx context.Context, vendorID, customerID uuid.UUID) ([]billing.Receivable, error) {
	var rows []models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND customer_id = ?", vendorID, customerID).
		Where(outstandingCondition).
		Order("created_at ASC, display_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return receivablesToDomain(rows), nil
}

// FindOutstandingCreatedBefore returns unpaid receivables of all vendors created before cutoff.
// Receivables reminded after remindedSince are excluded so that a full batch of
// recently reminded rows cannot hide the ones behind it.
func (r *GormReceivableRepository) FindOutstandingCreatedBefore(ctx context.Context, cutoff, remindedSince time.Time, limit int) ([]billing.Receivable, error) {
	var rows []models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Where(outstandingCondition).
		Where("created_at < ?", cutoff).
		Where(`NOT EXISTS (SELECT 1 FROM notifications
			WHERE notifications.receivable_id = receivables.id
			AND notifications.kind = ? AND notifications.created_at > ?)`,
			billing.NotificationKindPaymentReminder, remindedSince).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return receivablesToDomain(rows), nil
}

// Create inserts a numbered receivable
func (r *GormReceivableRepository) Create(ctx context.Context, receivable *billing.Receivable) error {
	err := r.db.WithContext(ctx).Create(models.ReceivableModelFromDomain(receivable)).Error
	if isUniqueViolation(err) {
		return shared.NewDomainError(billing.CodeDuplicateNumber,
			"Display number "+receivable.DisplayNumber+" is already in use")
	}
	return err
}

// SaveWithLock saves the paid amount with optimistic locking (checks version)
func (r *GormReceivableRepository) SaveWithLock(ctx context.Context, receivable *billing.Receivable) error {
	result := r.db.WithContext(ctx).
		Model(&models.ReceivableModel{}).
		Where("id = ? AND version = ?", receivable.ID, receivable.Version-1).
		Updates(map[string]any{
			"paid_amount": receivable.PaidAmount,
			"version":     receivable.Version,
			"updated_at":  receivable.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.ErrConcurrencyConflict.Code,
			"Receivable "+receivable.DisplayNumber+" was modified by another transaction")
	}
	return nil
}

// DeleteForVendor deletes a receivable with nothing paid. A receivable that
// exists but has been paid against is reported as INVALID_STATE.
func (r *GormReceivableRepository) DeleteForVendor(ctx context.Context, vendorID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("vendor_id = ? AND id = ? AND paid_amount = 0", vendorID, id).
		Delete(&models.ReceivableModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReceivableModel{}).
		Where("vendor_id = ? AND id = ?", vendorID, id).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return billing.NewReceivableNotFoundError(id)
	}
	return shared.NewDomainError(shared.ErrInvalidState.Code,
		"Receivable has payments applied and cannot be deleted")
}

type receivableSumRow struct {
	TotalInvoiced decimal.Decimal
	TotalPaid     decimal.Decimal
	Count         int64
}

func (row receivableSumRow) totals() billing.ReceivableTotals {
	invoiced := billing.RoundMoney(row.TotalInvoiced)
	paid := billing.RoundMoney(row.TotalPaid)
	return billing.ReceivableTotals{
		TotalInvoiced: invoiced,
		TotalPaid:     paid,
		Outstanding:   invoiced.Sub(paid),
		Count:         row.Count,
	}
}

const receivableSumSelect = "COALESCE(SUM(total_amount), 0) AS total_invoiced, " +
	"COALESCE(SUM(paid_amount), 0) AS total_paid, COUNT(*) AS count"

// SumByCustomer totals the customer's receivables, optionally within a creation window
func (r *GormReceivableRepository) SumByCustomer(ctx context.Context, vendorID, customerID uuid.UUID, from, to *time.Time) (billing.ReceivableTotals, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ReceivableModel{}).
		Where("vendor_id = ? AND customer_id = ?", vendorID, customerID)
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", *to)
	}

	var row receivableSumRow
	if err := query.Select(receivableSumSelect).Scan(&row).Error; err != nil {
		return billing.ReceivableTotals{}, err
	}
	return row.totals(), nil
}

// SumPendingForVendor totals the vendor's outstanding receivables, optionally for one kind
func (r *GormReceivableRepository) SumPendingForVendor(ctx context.Context, vendorID uuid.UUID, kind billing.ReceivableKind) (billing.ReceivableTotals, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ReceivableModel{}).
		Where("vendor_id = ?", vendorID).
		Where(outstandingCondition)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var row receivableSumRow
	if err := query.Select(receivableSumSelect).Scan(&row).Error; err != nil {
		return billing.ReceivableTotals{}, err
	}
	return row.totals(), nil
}

func (r *GormReceivableRepository) applyFilter(query *gorm.DB, filter billing.ReceivableFilter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	switch filter.Status {
	case billing.ReceivableStatusPending:
		query = query.Where("paid_amount = 0 AND total_amount > 0")
	case billing.ReceivableStatusPartial:
		query = query.Where("paid_amount > 0 AND paid_amount < total_amount")
	case billing.ReceivableStatusPaid:
		query = query.Where("paid_amount >= total_amount")
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(display_number) LIKE ?", searchPattern(filter.Search))
	}
	return query
}

func receivablesToDomain(rows []models.ReceivableModel) []billing.Receivable {
	result := make([]billing.Receivable, len(rows))
	for i := range rows {
		result[i] = *rows[i].ToDomain()
	}
	return result
}

var _ billing.ReceivableRepository = (*GormReceivableRepository)(nil)
