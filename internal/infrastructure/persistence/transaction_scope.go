package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	appbilling "github.com/vendorbill/backend/internal/application/billing"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations, including
// the outbox writes for the domain events they produce.
type GormTransactionScope struct {
	db     *gorm.DB
	outbox shared.OutboxEventSaver
}

// NewGormTransactionScope creates a new GormTransactionScope.
// outbox may be nil, in which case recorded events are discarded.
func NewGormTransactionScope(db *gorm.DB, outbox shared.OutboxEventSaver) *GormTransactionScope {
	return &GormTransactionScope{db: db, outbox: outbox}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
// Serialization failures and deadlocks are reported as concurrency conflicts.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, outbox: s.outbox})
	})
	if isSerializationFailure(err) {
		return shared.NewDomainError(shared.ErrConcurrencyConflict.Code, "Transaction conflicted with a concurrent update")
	}
	return err
}

// ExecuteRead runs fn in a read-only REPEATABLE READ transaction so that
// every query in it reads from one snapshot.
func (s *GormTransactionScope) ExecuteRead(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, outbox: s.outbox})
	}, readTxOptions(s.db)...)
	if isSerializationFailure(err) {
		return shared.NewDomainError(shared.ErrConcurrencyConflict.Code, "Transaction conflicted with a concurrent update")
	}
	return err
}

// readTxOptions returns the snapshot options for db's dialect.
// SQLite transactions are already serializable and take no options.
func readTxOptions(db *gorm.DB) []*sql.TxOptions {
	if db.Dialector.Name() == "sqlite" {
		return nil
	}
	return []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead, ReadOnly: true}}
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx     *gorm.DB
	outbox shared.OutboxEventSaver
}

// Vendors returns the vendor repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Vendors() billing.VendorRepository {
	return NewGormVendorRepository(r.tx)
}

// Customers returns the customer repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Customers() billing.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// Receivables returns the receivable repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Receivables() billing.ReceivableRepository {
	return NewGormReceivableRepository(r.tx)
}

// Sequences returns the sequence repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Sequences() billing.SequenceRepository {
	return NewGormSequenceRepository(r.tx)
}

// Payments returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Payments() billing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// Events returns an event recorder writing to the outbox in the current transaction.
func (r *gormTransactionalRepositories) Events() appbilling.EventRecorder {
	return &outboxEventRecorder{tx: r.tx, outbox: r.outbox}
}

// outboxEventRecorder saves domain events through the transaction's outbox
type outboxEventRecorder struct {
	tx     *gorm.DB
	outbox shared.OutboxEventSaver
}

// Record saves events to the outbox table
func (r *outboxEventRecorder) Record(ctx context.Context, events ...shared.DomainEvent) error {
	if r.outbox == nil || len(events) == 0 {
		return nil
	}
	return r.outbox.SaveEvents(ctx, r.tx, events...)
}

// isSerializationFailure reports Postgres serialization_failure (40001) and deadlock_detected (40P01)
func isSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 40001") || strings.Contains(msg, "SQLSTATE 40P01")
}

// Ensure GormTransactionScope implements TransactionScope
var _ appbilling.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appbilling.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
