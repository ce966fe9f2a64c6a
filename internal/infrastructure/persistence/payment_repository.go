package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
	"github.com/vendorbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var paymentOrderColumns = map[string]string{
	"payment_date": "payment_date",
	"amount":       "amount",
	"created_at":   "created_at",
}

// GormPaymentRepository implements billing.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts the payment row followed by its allocation lines
func (r *GormPaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	db := r.db.WithContext(ctx)
	if err := db.Omit("Allocations").Create(model).Error; err != nil {
		return err
	}
	if len(model.Allocations) == 0 {
		return nil
	}
	return db.Create(&model.Allocations).Error
}

// FindByIDForVendor finds a payment by ID within a vendor, with its allocations
func (r *GormPaymentRepository) FindByIDForVendor(ctx context.Context, vendorID, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("vendor_id = ? AND id = ?", vendorID, id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, shared.NewDomainError(shared.ErrNotFound.Code, "Payment not found"))
	}
	return model.ToDomain(), nil
}

// FindAllForVendor lists a vendor's payments with their allocations
func (r *GormPaymentRepository) FindAllForVendor(ctx context.Context, vendorID uuid.UUID, filter billing.PaymentFilter) ([]billing.Payment, error) {
	var rows []models.PaymentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("vendor_id = ?", vendorID), filter)
	if err := applyPaging(query, filter.Filter, paymentOrderColumns, "payment_date DESC, created_at DESC").
		Preload("Allocations", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]billing.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, nil
}

// CountForVendor counts a vendor's payments matching the filter
func (r *GormPaymentRepository) CountForVendor(ctx context.Context, vendorID uuid.UUID, filter billing.PaymentFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("vendor_id = ?", vendorID), filter).
		Count(&count).Error
	return count, err
}

type paymentTypeRow struct {
	Type   billing.PaymentType
	Amount decimal.Decimal
	Count  int64
}

type paymentMethodRow struct {
	Method billing.PaymentMethod
	Amount decimal.Decimal
	Count  int64
}

// SumByCustomer totals the customer's payments by type within a payment date window
func (r *GormPaymentRepository) SumByCustomer(ctx context.Context, vendorID, customerID uuid.UUID, from, to *time.Time) (billing.PaymentTotals, error) {
	query := r.windowed(r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("vendor_id = ? AND customer_id = ?", vendorID, customerID), from, to)
	return r.sumByType(query)
}

// Totals aggregates the vendor's payments by type and by method
func (r *GormPaymentRepository) Totals(ctx context.Context, vendorID uuid.UUID, from, to *time.Time) (billing.PaymentTotals, []billing.MethodTotal, error) {
	base := func() *gorm.DB {
		return r.windowed(r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("vendor_id = ?", vendorID), from, to)
	}

	totals, err := r.sumByType(base())
	if err != nil {
		return billing.PaymentTotals{}, nil, err
	}

	var rows []paymentMethodRow
	if err := base().
		Select("method, COALESCE(SUM(amount), 0) AS amount, COUNT(*) AS count").
		Group("method").
		Order("method ASC").
		Scan(&rows).Error; err != nil {
		return billing.PaymentTotals{}, nil, err
	}
	methods := make([]billing.MethodTotal, len(rows))
	for i, row := range rows {
		methods[i] = billing.MethodTotal{Method: row.Method, Amount: billing.RoundMoney(row.Amount), Count: row.Count}
	}
	return totals, methods, nil
}

func (r *GormPaymentRepository) sumByType(query *gorm.DB) (billing.PaymentTotals, error) {
	var rows []paymentTypeRow
	if err := query.
		Select("type, COALESCE(SUM(amount), 0) AS amount, COUNT(*) AS count").
		Group("type").
		Scan(&rows).Error; err != nil {
		return billing.PaymentTotals{}, err
	}

	totals := billing.PaymentTotals{Credit: decimal.Zero, Debit: decimal.Zero}
	for _, row := range rows {
		switch row.Type {
		case billing.PaymentTypeCredit:
			totals.Credit = billing.RoundMoney(row.Amount)
		case billing.PaymentTypeDebit:
			totals.Debit = billing.RoundMoney(row.Amount)
		}
		totals.Count += row.Count
	}
	return totals, nil
}

func (r *GormPaymentRepository) windowed(query *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where("payment_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("payment_date <= ?", *to)
	}
	return query
}

func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter billing.PaymentFilter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(reference) LIKE ?", searchPattern(filter.Search))
	}
	return r.windowed(query, filter.FromDate, filter.ToDate)
}

var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
