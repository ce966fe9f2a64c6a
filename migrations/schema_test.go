package migrations_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendorbill/backend/migrations"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteDialect rewrites the PostgreSQL-only column types and defaults so the
// embedded schema, including every CHECK constraint, can run on SQLite.
var sqliteDialect = strings.NewReplacer(
	"TIMESTAMPTZ", "DATETIME",
	"JSONB", "TEXT",
	"DEFAULT NOW()", "DEFAULT CURRENT_TIMESTAMP",
)

func applyUpMigrations(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	files, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, name := range files {
		body, err := migrations.FS.ReadFile(name)
		require.NoError(t, err)
		require.NoError(t, db.Exec(sqliteDialect.Replace(string(body))).Error, name)
	}
	return db
}

func TestInitSchema_ReceivableTotals(t *testing.T) {
	db := applyUpMigrations(t)
	vendorID, customerID := uuid.NewString(), uuid.NewString()
	require.NoError(t, db.Exec(`INSERT INTO vendors (id, name) VALUES (?, ?)`, vendorID, "Sharma Traders").Error)
	require.NoError(t, db.Exec(`INSERT INTO customers (id, vendor_id, name) VALUES (?, ?, ?)`,
		customerID, vendorID, "Gupta Stores").Error)

	insert := func(number, total, paid string) error {
		return db.Exec(`INSERT INTO receivables (id, vendor_id, customer_id, kind, display_number, total_amount, paid_amount)
			VALUES (?, ?, ?, 'challan', ?, ?, ?)`,
			uuid.NewString(), vendorID, customerID, number, total, paid).Error
	}

	assert.NoError(t, insert("INV1", "0", "0"), "zero totals are allowed")
	assert.NoError(t, insert("INV2", "100.50", "100.50"))
	assert.Error(t, insert("INV3", "-1", "0"), "negative totals are rejected")
	assert.Error(t, insert("INV4", "10", "11"), "paid amount cannot exceed the total")
}
