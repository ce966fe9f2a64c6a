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

func TestGormSequenceRepository_FindForUpdateCreatesDefault(t *testing.T) {
	f := newFixture(t)
	repo := NewGormSequenceRepository(f.db)
	ctx := context.Background()

	_, err := repo.FindByVendor(ctx, f.vendor.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	cfg, err := repo.FindForUpdate(ctx, f.vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.DefaultPrefix, cfg.Prefix)
	assert.Equal(t, billing.DefaultStartCount, cfg.CurrentCount)

	// a second call keeps the existing row
	cfg.CurrentCount = 5
	cfg.Version++
	require.NoError(t, repo.Save(ctx, cfg))
	again, err := repo.FindForUpdate(ctx, f.vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), again.CurrentCount)
	assert.Equal(t, 2, again.Version)
}

func TestGormSequenceRepository_SaveDetectsStaleVersion(t *testing.T) {
	f := newFixture(t)
	repo := NewGormSequenceRepository(f.db)
	ctx := context.Background()

	cfg, err := repo.FindForUpdate(ctx, f.vendor.ID)
	require.NoError(t, err)
	stale := *cfg

	cfg.Version++
	require.NoError(t, repo.Save(ctx, cfg))

	stale.Version++
	err = repo.Save(ctx, &stale)
	assert.True(t, shared.HasCode(err, shared.ErrConcurrencyConflict.Code))
}

func TestGormSequenceRepository_UsedNumbers(t *testing.T) {
	f := newFixture(t)
	repo := NewGormSequenceRepository(f.db)
	ctx := context.Background()

	used := billing.UsedNumber{VendorID: f.vendor.ID, DisplayNumber: "INV1", ReceivableID: uuid.New(), IssuedAt: time.Now()}
	require.NoError(t, repo.AppendUsedNumber(ctx, used))

	err := repo.AppendUsedNumber(ctx, used)
	assert.True(t, shared.HasCode(err, billing.CodeDuplicateNumber))

	ok, err := repo.IsNumberUsed(ctx, f.vendor.ID, "INV1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsNumberUsed(ctx, f.vendor.ID, "INV2")
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := repo.CountUsedNumbers(ctx, f.vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
