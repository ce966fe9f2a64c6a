package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

type fixture struct {
	db       *gorm.DB
	vendor   *billing.Vendor
	customer *billing.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	f := &fixture{db: db}
	f.vendor, f.customer = f.addVendor(t, "Sharma Traders")
	return f
}

func (f *fixture) addVendor(t *testing.T, name string) (*billing.Vendor, *billing.Customer) {
	t.Helper()
	ctx := context.Background()
	vendor, err := billing.NewVendor(name, "9800000000")
	require.NoError(t, err)
	require.NoError(t, NewGormVendorRepository(f.db).Save(ctx, vendor))

	customer, err := billing.NewCustomer(vendor.ID, "Gupta Stores", "9811111111", "MG Road")
	require.NoError(t, err)
	require.NoError(t, NewGormCustomerRepository(f.db).Save(ctx, customer))
	return vendor, customer
}

func (f *fixture) addReceivable(t *testing.T, vendorID, customerID uuid.UUID, number string, total float64, createdAt time.Time) *billing.Receivable {
	t.Helper()
	r, err := billing.NewReceivable(vendorID, customerID, billing.ReceivableKindBill, decimal.NewFromFloat(total), nil, "")
	require.NoError(t, err)
	require.NoError(t, r.AssignNumber(number))
	r.CreatedAt = createdAt
	r.UpdatedAt = createdAt
	r.ClearDomainEvents()
	require.NoError(t, NewGormReceivableRepository(f.db).Create(context.Background(), r))
	return r
}
