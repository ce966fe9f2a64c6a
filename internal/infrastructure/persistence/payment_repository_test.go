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

func newTestPayment(t *testing.T, vendorID uuid.UUID, customerID *uuid.UUID, amount int64, typ billing.PaymentType, method billing.PaymentMethod, details billing.MethodDetails, allocation billing.Allocation) *billing.Payment {
	t.Helper()
	p, err := billing.NewPayment(billing.NewPaymentParams{
		VendorID:    vendorID,
		CustomerID:  customerID,
		Amount:      decimal.NewFromInt(amount),
		Type:        typ,
		Method:      method,
		Details:     details,
		PaymentDate: time.Now().Add(-time.Hour),
		Reference:   "REF-" + uuid.NewString()[:8],
		Allocation:  allocation,
	})
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestGormPaymentRepository_CreateWithAllocations(t *testing.T) {
	f := newFixture(t)
	repo := NewGormPaymentRepository(f.db)
	ctx := context.Background()
	a := f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV1", 100, time.Now())
	b := f.addReceivable(t, f.vendor.ID, f.customer.ID, "INV2", 100, time.Now())

	payment := newTestPayment(t, f.vendor.ID, &f.customer.ID, 150, billing.PaymentTypeCredit, billing.PaymentMethodUPI,
		billing.MethodDetails{UPIID: "gupta@okbank"},
		billing.Explicit(
			billing.AllocationLine{ReceivableID: b.ID, Amount: decimal.NewFromInt(100)},
			billing.AllocationLine{ReceivableID: a.ID, Amount: decimal.NewFromInt(50)},
		))
	require.NoError(t, repo.Create(ctx, payment))

	found, err := repo.FindByIDForVendor(ctx, f.vendor.ID, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.AllocationModeExplicit, found.Allocation().Mode())
	lines := found.Allocation().Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, b.ID, lines[0].ReceivableID)
	assert.Equal(t, a.ID, lines[1].ReceivableID)
	assert.Equal(t, "gupta@okbank", found.Details.UPIID)

	other, _ := f.addVendor(t, "Other Vendor")
	_, err = repo.FindByIDForVendor(ctx, other.ID, payment.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormPaymentRepository_UnlinkedAndTotals(t *testing.T) {
	f := newFixture(t)
	repo := NewGormPaymentRepository(f.db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestPayment(t, f.vendor.ID, &f.customer.ID, 300, billing.PaymentTypeCredit, billing.PaymentMethodCash, billing.MethodDetails{}, billing.Unlinked())))
	require.NoError(t, repo.Create(ctx, newTestPayment(t, f.vendor.ID, nil, 200, billing.PaymentTypeCredit, billing.PaymentMethodOther, billing.MethodDetails{}, billing.Unlinked())))
	require.NoError(t, repo.Create(ctx, newTestPayment(t, f.vendor.ID, &f.customer.ID, 50, billing.PaymentTypeDebit, billing.PaymentMethodCash, billing.MethodDetails{}, billing.Unlinked())))

	totals, methods, err := repo.Totals(ctx, f.vendor.ID, nil, nil)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(totals.Credit))
	assert.True(t, decimal.NewFromInt(50).Equal(totals.Debit))
	assert.Equal(t, int64(3), totals.Count)
	require.Len(t, methods, 2)
	assert.Equal(t, billing.PaymentMethodCash, methods[0].Method)
	assert.Equal(t, int64(2), methods[0].Count)

	customerTotals, err := repo.SumByCustomer(ctx, f.vendor.ID, f.customer.ID, nil, nil)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(300).Equal(customerTotals.Credit))

	future := time.Now().Add(time.Hour)
	windowed, _, err := repo.Totals(ctx, f.vendor.ID, &future, nil)
	require.NoError(t, err)
	assert.Zero(t, windowed.Count)

	list, err := repo.FindAllForVendor(ctx, f.vendor.ID, billing.PaymentFilter{Type: billing.PaymentTypeDebit})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, billing.AllocationModeUnlinked, list[0].Allocation().Mode())

	count, err := repo.CountForVendor(ctx, f.vendor.ID, billing.PaymentFilter{Method: billing.PaymentMethodCash})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
