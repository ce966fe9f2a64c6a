package billing

import (
	"context"

	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
)

// TransactionScope provides transactional access to billing repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error

	// ExecuteRead runs the given function within a read-only transaction.
	// Every read made through repos sees the same snapshot of the database.
	ExecuteRead(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// EventRecorder writes domain events to the outbox of the current transaction
type EventRecorder interface {
	Record(ctx context.Context, events ...shared.DomainEvent) error
}

// TransactionalRepositories provides access to all billing repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// Aggregate boundary notes:
//   - Receivables: the only path that changes paid amounts; rows touched by an
//     allocation are read with FindByIDsForUpdate and written with SaveWithLock.
//   - Sequences: the numbering row is locked for the remainder of the transaction,
//     which serializes number issuance per vendor.
//   - Payments: insert-only.
//   - Events: outbox writes that commit or roll back with the state change.
type TransactionalRepositories interface {
	Vendors() billing.VendorRepository
	Customers() billing.CustomerRepository
	Receivables() billing.ReceivableRepository
	Sequences() billing.SequenceRepository
	Payments() billing.PaymentRepository
	Events() EventRecorder
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	vendors     billing.VendorRepository
	customers   billing.CustomerRepository
	receivables billing.ReceivableRepository
	sequences   billing.SequenceRepository
	payments    billing.PaymentRepository
	events      EventRecorder
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	vendors billing.VendorRepository,
	customers billing.CustomerRepository,
	receivables billing.ReceivableRepository,
	sequences billing.SequenceRepository,
	payments billing.PaymentRepository,
	events EventRecorder,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		vendors:     vendors,
		customers:   customers,
		receivables: receivables,
		sequences:   sequences,
		payments:    payments,
		events:      events,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ExecuteRead runs the function without a real transaction.
func (s *NoOpTransactionScope) ExecuteRead(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Vendors returns the vendor repository.
func (s *NoOpTransactionScope) Vendors() billing.VendorRepository { return s.vendors }

// Customers returns the customer repository.
func (s *NoOpTransactionScope) Customers() billing.CustomerRepository { return s.customers }

// Receivables returns the receivable repository.
func (s *NoOpTransactionScope) Receivables() billing.ReceivableRepository { return s.receivables }

// Sequences returns the sequence repository.
func (s *NoOpTransactionScope) Sequences() billing.SequenceRepository { return s.sequences }

// Payments returns the payment repository.
func (s *NoOpTransactionScope) Payments() billing.PaymentRepository { return s.payments }

// Events returns the event recorder.
func (s *NoOpTransactionScope) Events() EventRecorder { return s.events }

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
