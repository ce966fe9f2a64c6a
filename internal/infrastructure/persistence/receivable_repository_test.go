package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
)

func TestGormReceivableRepository_CreateAndFind(t *testing.T) {
	f := newFixture(t)
	repo := NewGormReceivableRepository(f.db)
	ctx := context.Background()

	r := f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV1", 1180.50, time.Now())

	found, err := repo.FindByIDForVendor(ctx, f.vendor.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV1", found.DisplayNumber)
	assert.True(t, decimal.NewFromFloat(1180.50).Equal(found.TotalAmount))
	assert.True(t, found.PaidAmount.IsZero())
	assert.Equal(t, billing.ReceivableStatusPending, found.Status())

	other, _ := f.addVendor(t, "Other Vendor")
	_, err = repo.FindByIDForVendor(ctx, other.ID, r.ID)
	assert.True(t, shared.HasCode(err, billing.CodeReceivableNotFound))
}

func TestGormReceivableRepository_DuplicateNumber(t *testing.T) {
	f := newFixture(t)
	f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV1", 100, time.Now())

	dup, err := billing.NewReceivable(f.vendor.ID, f.customer.ID, billing.ReceivableKindBill, decimal.NewFromInt(5), nil, "")
	require.NoError(t, err)
	require.NoError(t, dup.AssignNumber("INV1"))

	err = NewGormReceivableRepository(f.db).Create(context.Background(), dup)
	assert.True(t, shared.HasCode(err, billing.CodeDuplicateNumber))

	// the same number is free for another vendor
	other, otherCustomer := f.addVendor(t, "Other Vendor")
	f.addReceivable(t, other.ID, otherCustomer.ID, "INV1", 100, time.Now())
}

func TestGormReceivableRepository_SaveWithLock(t *testing.T) {
	f := newFixture(t)
	repo := NewGormReceivableRepository(f.db)
	ctx := context.Background()
	created := f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV1", 100, time.Now())

	first, err := repo.FindByIDForVendor(ctx, f.vendor.ID, created.ID)
	require.NoError(t, err)
	stale, err := repo.FindByIDForVendor(ctx, f.vendor.ID, created.ID)
	require.NoError(t, err)

	_, err = first.ApplyAllocation(decimal.NewFromInt(40), uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, first))

	_, err = stale.ApplyAllocation(decimal.NewFromInt(70), uuid.New())
	require.NoError(t, err)
	err = repo.SaveWithLock(ctx, stale)
	assert.True(t, shared.HasCode(err, shared.ErrConcurrencyConflict.Code))

	stored, err := repo.FindByIDForVendor(ctx, f.vendor.ID, created.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(40).Equal(stored.PaidAmount))
	assert.Equal(t, 2, stored.Version)
}

func TestGormReceivableRepository_FindByIDsForUpdate(t *testing.T) {
	f := newFixture(t)
	repo := NewGormReceivableRepository(f.db)
	a := f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV1", 100, time.Now())
	b := f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV2", 200, time.Now())

	locked, err := repo.FindByIDsForUpdate(context.Background(), []uuid.UUID{b.ID, a.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, locked, 2)
	assert.Less(t, locked[0].ID.String(), locked[1].ID.String())

	none, err := repo.FindByIDsForUpdate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormReceivableRepository_OutstandingAndTotals(t *testing.T) {
	f := newFixture(t)
	repo := NewGormReceivableRepository(f.db)
	ctx := context.Background()
	base := time.Now().Add(-72 * time.Hour)

	newer := f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV2", 200, base.Add(time.Hour))
	older := f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV1", 100, base)
	paid := f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV3", 50, base.Add(2*time.Hour))

	_, err := paid.ApplyAllocation(decimal.NewFromInt(50), uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, paid))

	outstanding, err := repo.FindOutstandingByCustomer(ctx, f.vendor.ID, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, outstanding, 2)
	assert.Equal(t, older.ID, outstanding[0].ID)
	assert.Equal(t, newer.ID, outstanding[1].ID)

	pending, err := repo.SumPendingForVendor(ctx, f.vendor.ID, "")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(300).Equal(pending.Outstanding))
	assert.Equal(t, int64(2), pending.Count)

	totals, err := repo.SumByCustomer(ctx, f.vendor.ID, f.customer.ID, nil, nil)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(350).Equal(totals.TotalInvoiced))
	assert.True(t, decimal.NewFromInt(50).Equal(totals.TotalPaid))
	assert.True(t, decimal.NewFromInt(300).Equal(totals.Outstanding))

	stale, err := repo.FindOutstandingCreatedBefore(ctx, base.Add(30*time.Minute), time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, older.ID, stale[0].ID)
}

func TestGormReceivableRepository_FindOutstandingCreatedBefore_SkipsReminded(t *testing.T) {
	f := newFixture(t)
	repo := NewGormReceivableRepository(f.db)
	notifications := NewGormNotificationRepository(f.db)
	ctx := context.Background()
	base := time.Now().Add(-30 * 24 * time.Hour)

	reminded := f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV1", 100, base)
	waiting := f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV2", 100, base.Add(time.Hour))
	require.NoError(t, notifications.Create(ctx, billing.NotificationForReminder(reminded, 30*24*time.Hour)))

	found, err := repo.FindOutstandingCreatedBefore(ctx, time.Now(), time.Now().Add(-time.Hour), 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, waiting.ID, found[0].ID)

	found, err = repo.FindOutstandingCreatedBefore(ctx, time.Now(), time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Len(t, found, 2, "reminders older than remindedSince do not exclude")
}

func TestGormReceivableRepository_ListFilters(t *testing.T) {
	f := newFixture(t)
	repo := NewGormReceivableRepository(f.db)
	ctx := context.Background()
	now := time.Now()

	f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV1", 100, now.Add(-2*time.Hour))
	partial := f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV2", 100, now.Add(-time.Hour))
	_, err := partial.ApplyAllocation(decimal.NewFromInt(10), uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, partial))

	filter := billing.ReceivableFilter{Filter: shared.Filter{Page: 1, PageSize: 10}, Status: billing.ReceivableStatusPartial}
	rows, err := repo.FindAllForVendor(ctx, f.vendor.ID, filter)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "INV2", rows[0].DisplayNumber)

	count, err := repo.CountForVendor(ctx, f.vendor.ID, billing.ReceivableFilter{Filter: shared.Filter{Search: "inv"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	sorted, err := repo.FindAllForVendor(ctx, f.vendor.ID, billing.ReceivableFilter{
		Filter: shared.Filter{OrderBy: "display_number", OrderDir: "asc"},
	})
	require.NoError(t, err)
	require.Len(t, sorted, 2)
	assert.Equal(t, "INV1", sorted[0].DisplayNumber)
}

func TestGormReceivableRepository_DeleteForVendor(t *testing.T) {
	f := newFixture(t)
	repo := NewGormReceivableRepository(f.db)
	ctx := context.Background()

	unpaid := f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV1", 100, time.Now())
	paid := f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV2", 100, time.Now())
	_, err := paid.ApplyAllocation(decimal.NewFromInt(1), uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, paid))

	require.NoError(t, repo.DeleteForVendor(ctx, f.vendor.ID, unpaid.ID))
	err = repo.DeleteForVendor(ctx, f.vendor.ID, paid.ID)
	assert.True(t, shared.HasCode(err, shared.ErrInvalidState.Code), "a paid receivable still exists")

	err = repo.DeleteForVendor(ctx, f.vendor.ID, unpaid.ID)
	assert.True(t, shared.HasCode(err, billing.CodeReceivableNotFound))

	other, _ := f.addVendor(t, "Verma Agencies")
	err = repo.DeleteForVendor(ctx, other.ID, paid.ID)
	assert.True(t, shared.HasCode(err, billing.CodeReceivableNotFound), "other vendors cannot see it")
}
