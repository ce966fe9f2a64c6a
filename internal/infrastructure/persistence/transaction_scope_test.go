package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appbilling "github.com/vendorbill/backend/internal/application/billing"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
	"github.com/vendorbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

type recordingSaver struct {
	events []shared.DomainEvent
	err    error
}

func (s *recordingSaver) SaveEvents(_ context.Context, tx any, events ...shared.DomainEvent) error {
	if _, ok := tx.(*gorm.DB); !ok {
		return errors.New("expected a transaction handle")
	}
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, events...)
	return nil
}

func TestGormTransactionScope_CommitsWithEvents(t *testing.T) {
	f := newFixture(t)
	saver := &recordingSaver{}
	scope := NewGormTransactionScope(f.db, saver)
	ctx := context.Background()

	r, err := billing.NewReceivable(f.vendor.ID, f.customer.ID, billing.ReceivableKindChallan, decimal.NewFromInt(10), nil, "")
	require.NoError(t, err)
	require.NoError(t, r.AssignNumber("CH1"))

	err = scope.Execute(ctx, func(repos appbilling.TransactionalRepositories) error {
		if err := repos.Receivables().Create(ctx, r); err != nil {
			return err
		}
		return repos.Events().Record(ctx, r.GetDomainEvents()...)
	})
	require.NoError(t, err)
	assert.Len(t, saver.events, 1)

	_, err = NewGormReceivableRepository(f.db).FindByIDForVendor(ctx, f.vendor.ID, r.ID)
	assert.NoError(t, err)
}

func TestGormTransactionScope_RollsBack(t *testing.T) {
	f := newFixture(t)
	scope := NewGormTransactionScope(f.db, &recordingSaver{err: errors.New("outbox unavailable")})
	ctx := context.Background()

	err := scope.Execute(ctx, func(repos appbilling.TransactionalRepositories) error {
		if err := repos.Sequences().AppendUsedNumber(ctx, billing.UsedNumber{
			VendorID: f.vendor.ID, DisplayNumber: "INV1", ReceivableID: uuid.New(), IssuedAt: time.Now(),
		}); err != nil {
			return err
		}
		return repos.Events().Record(ctx, billing.NewReceivableCreatedEvent(&billing.Receivable{}))
	})
	require.EqualError(t, err, "outbox unavailable")

	var count int64
	require.NoError(t, f.db.Model(&models.UsedNumberModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGormTransactionScope_NilOutboxDropsEvents(t *testing.T) {
	f := newFixture(t)
	scope := NewGormTransactionScope(f.db, nil)

	err := scope.Execute(context.Background(), func(repos appbilling.TransactionalRepositories) error {
		return repos.Events().Record(context.Background(), billing.NewReceivableCreatedEvent(&billing.Receivable{}))
	})
	assert.NoError(t, err)
}
