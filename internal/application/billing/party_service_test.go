package billing_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	billingapp "github.com/vendorbill/backend/internal/application/billing"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
)

func TestVendorService(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	created, err := env.vendorService.Create(ctx, billingapp.CreateVendorRequest{Name: "  Mehta Hardware ", Phone: "9822000000"})
	require.NoError(t, err)
	assert.Equal(t, "Mehta Hardware", created.Name)

	got, err := env.vendorService.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = env.vendorService.Create(ctx, billingapp.CreateVendorRequest{Name: " "})
	requireCode(t, err, shared.ErrInvalidInput.Code)

	_, err = env.vendorService.GetByID(ctx, uuid.New())
	requireCode(t, err, billing.CodeVendorNotFound)
}

func TestCustomerService(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	vendorID := env.vendor(t)
	otherVendor := env.vendor(t)

	for _, name := range []string{"Gupta Stores", "Patel Kirana", "Gupta Brothers"} {
		_, err := env.customerService.Create(ctx, vendorID, billingapp.CreateCustomerRequest{Name: name})
		require.NoError(t, err)
	}
	foreign := env.customer(t, otherVendor)

	t.Run("search within the vendor", func(t *testing.T) {
		list, total, err := env.customerService.List(ctx, vendorID, billingapp.CustomerListFilter{Search: "gupta"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, list, 2)
		assert.Equal(t, "Gupta Brothers", list[0].Name)
	})

	t.Run("paging", func(t *testing.T) {
		list, total, err := env.customerService.List(ctx, vendorID, billingapp.CustomerListFilter{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, list, 1)
	})

	t.Run("customers of another vendor are hidden", func(t *testing.T) {
		_, err := env.customerService.GetByID(ctx, vendorID, foreign)
		requireCode(t, err, billing.CodeCustomerNotFound)
	})

	t.Run("unknown vendor", func(t *testing.T) {
		_, err := env.customerService.Create(ctx, uuid.New(), billingapp.CreateCustomerRequest{Name: "Gupta Stores"})
		requireCode(t, err, billing.CodeVendorNotFound)
	})
}
