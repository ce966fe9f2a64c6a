package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
)

func TestGormNotificationRepository_SkipsRedeliveredEvent(t *testing.T) {
	f := newFixture(t)
	repo := NewGormNotificationRepository(f.db)
	ctx := context.Background()
	source := uuid.New()

	first := billing.NewNotification(f.vendor.ID, billing.NotificationKindPaymentRecorded, "Payment received", "150.00 via upi")
	first.SourceEvent = &source
	second := billing.NewNotification(f.vendor.ID, billing.NotificationKindPaymentRecorded, "Payment received", "150.00 via upi")
	second.SourceEvent = &source

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	count, err := repo.CountForVendor(ctx, f.vendor.ID, billing.NotificationFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGormNotificationRepository_MarkRead(t *testing.T) {
	f := newFixture(t)
	repo := NewGormNotificationRepository(f.db)
	ctx := context.Background()

	a := billing.NewNotification(f.vendor.ID, billing.NotificationKindStatusChanged, "INV1 paid", "")
	b := billing.NewNotification(f.vendor.ID, billing.NotificationKindStatusChanged, "INV2 partial", "")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	require.NoError(t, repo.MarkRead(ctx, f.vendor.ID, a.ID))
	unread, err := repo.FindAllForVendor(ctx, f.vendor.ID, billing.NotificationFilter{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, b.ID, unread[0].ID)

	other, _ := f.addVendor(t, "Other Vendor")
	err = repo.MarkRead(ctx, other.ID, b.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	updated, err := repo.MarkAllRead(ctx, f.vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)
}

func TestGormNotificationRepository_HasReminderSince(t *testing.T) {
	f := newFixture(t)
	repo := NewGormNotificationRepository(f.db)
	ctx := context.Background()
	r := f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV1", 100, time.Now().Add(-10*24*time.Hour))

	has, err := repo.HasReminderSince(ctx, r.ID, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, repo.Create(ctx, billing.NotificationForReminder(r, 10*24*time.Hour)))

	has, err = repo.HasReminderSince(ctx, r.ID, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.True(t, has)
}
