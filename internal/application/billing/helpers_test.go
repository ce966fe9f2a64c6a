package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	billingapp "github.com/vendorbill/backend/internal/application/billing"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
	"github.com/vendorbill/backend/internal/infrastructure/cache"
	"github.com/vendorbill/backend/internal/infrastructure/event"
	"github.com/vendorbill/backend/internal/infrastructure/persistence"
	"github.com/vendorbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db            *gorm.DB
	vendors       *persistence.GormVendorRepository
	customers     *persistence.GormCustomerRepository
	receivables   *persistence.GormReceivableRepository
	sequences     *persistence.GormSequenceRepository
	payments      *persistence.GormPaymentRepository
	notifications *persistence.GormNotificationRepository
	outbox        *event.GormOutboxRepository
	txScope       *persistence.GormTransactionScope
	idempotency   *cache.InMemoryIdempotencyStore

	vendorService     *billingapp.VendorService
	customerService   *billingapp.CustomerService
	sequenceService   *billingapp.SequenceService
	paymentService    *billingapp.PaymentService
	receivableService *billingapp.ReceivableService
	ledgerService     *billingapp.LedgerService
}

func setupEnv(t *testing.T) *testEnv {
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

	env := &testEnv{
		db:            db,
		vendors:       persistence.NewGormVendorRepository(db),
		customers:     persistence.NewGormCustomerRepository(db),
		receivables:   persistence.NewGormReceivableRepository(db),
		sequences:     persistence.NewGormSequenceRepository(db),
		payments:      persistence.NewGormPaymentRepository(db),
		notifications: persistence.NewGormNotificationRepository(db),
		outbox:        event.NewGormOutboxRepository(db),
		txScope:       persistence.NewGormTransactionScope(db, event.NewOutboxPublisher(event.NewBillingEventSerializer())),
		idempotency:   cache.NewInMemoryIdempotencyStore(),
	}
	t.Cleanup(func() { _ = env.idempotency.Close() })

	env.vendorService = billingapp.NewVendorService(env.vendors)
	env.customerService = billingapp.NewCustomerService(env.vendors, env.customers)
	env.sequenceService = billingapp.NewSequenceService(env.vendors, env.sequences, env.txScope)
	env.paymentService = billingapp.NewPaymentService(env.payments, env.receivables, env.customers, env.txScope,
		billingapp.WithIdempotencyStore(env.idempotency))
	env.receivableService = billingapp.NewReceivableService(env.receivables, env.txScope, env.paymentService)
	env.ledgerService = billingapp.NewLedgerService(env.customers, env.receivables, env.txScope)
	return env
}

func (e *testEnv) vendor(t *testing.T) uuid.UUID {
	t.Helper()
	v, err := e.vendorService.Create(context.Background(), billingapp.CreateVendorRequest{Name: "Sharma Traders", Phone: "9800000000"})
	require.NoError(t, err)
	return v.ID
}

func (e *testEnv) customer(t *testing.T, vendorID uuid.UUID) uuid.UUID {
	t.Helper()
	c, err := e.customerService.Create(context.Background(), vendorID, billingapp.CreateCustomerRequest{Name: "Gupta Stores"})
	require.NoError(t, err)
	return c.ID
}

func (e *testEnv) receivable(t *testing.T, vendorID, customerID uuid.UUID, total string) *billingapp.ReceivableResponse {
	t.Helper()
	r, err := e.receivableService.Create(context.Background(), vendorID, billingapp.CreateReceivableRequest{
		CustomerID:  customerID,
		Kind:        billing.ReceivableKindBill,
		TotalAmount: decimal.RequireFromString(total),
	})
	require.NoError(t, err)
	return r
}

// backdate moves a receivable's creation time into the past
func (e *testEnv) backdate(t *testing.T, receivableID uuid.UUID, age time.Duration) {
	t.Helper()
	require.NoError(t, e.db.Model(&models.ReceivableModel{}).
		Where("id = ?", receivableID).
		Update("created_at", time.Now().Add(-age)).Error)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr, ok := shared.AsDomainError(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	require.Equal(t, code, domainErr.Code)
}

// countingScope wraps a TransactionScope and counts how it is used. The first
// conflicts write transactions run their work and then roll back with a
// concurrency conflict, as a lost commit race would.
type countingScope struct {
	billingapp.TransactionScope
	conflicts int
	writes    int
	reads     int
}

func (s *countingScope) Execute(ctx context.Context, fn func(repos billingapp.TransactionalRepositories) error) error {
	s.writes++
	attempt := s.writes
	return s.TransactionScope.Execute(ctx, func(repos billingapp.TransactionalRepositories) error {
		if err := fn(repos); err != nil {
			return err
		}
		if attempt <= s.conflicts {
			return shared.NewDomainError(shared.ErrConcurrencyConflict.Code, "Transaction conflicted with a concurrent update")
		}
		return nil
	})
}

func (s *countingScope) ExecuteRead(ctx context.Context, fn func(repos billingapp.TransactionalRepositories) error) error {
	s.reads++
	return s.TransactionScope.ExecuteRead(ctx, fn)
}
