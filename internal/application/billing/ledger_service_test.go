package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	billingapp "github.com/vendorbill/backend/internal/application/billing"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
)

func TestLedgerService(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	vendorID := env.vendor(t)
	customerID := env.customer(t, vendorID)

	old := env.receivable(t, vendorID, customerID, "500")
	env.backdate(t, old.ID, 60*24*time.Hour)
	recent := env.receivable(t, vendorID, customerID, "300")

	_, err := env.paymentService.ApplyPayment(ctx, vendorID, credit(customerID, "100", line(recent.ID, "100")))
	require.NoError(t, err)
	refund := credit(customerID, "25")
	refund.Type = billing.PaymentTypeDebit
	_, err = env.paymentService.ApplyPayment(ctx, vendorID, refund)
	require.NoError(t, err)

	t.Run("outstanding covers all time", func(t *testing.T) {
		out, err := env.ledgerService.OutstandingTotal(ctx, vendorID, customerID)
		require.NoError(t, err)
		assert.True(t, dec("700").Equal(out.Outstanding), out.Outstanding.String())
	})

	t.Run("default window is the last month", func(t *testing.T) {
		summary, err := env.ledgerService.Summary(ctx, vendorID, billingapp.LedgerSummaryRequest{CustomerID: customerID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), summary.Count)
		assert.True(t, dec("300").Equal(summary.TotalInvoiced))
		assert.True(t, dec("100").Equal(summary.TotalPaid))
		assert.True(t, dec("200").Equal(summary.Outstanding))
		assert.True(t, dec("100").Equal(summary.PaymentsReceived))
		assert.True(t, dec("25").Equal(summary.PaymentsMade))
	})

	t.Run("explicit window", func(t *testing.T) {
		from := time.Now().AddDate(0, 0, -90)
		to := time.Now()
		summary, err := env.ledgerService.Summary(ctx, vendorID, billingapp.LedgerSummaryRequest{
			CustomerID: customerID,
			From:       &from,
			To:         &to,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), summary.Count)
		assert.True(t, dec("800").Equal(summary.TotalInvoiced))
	})

	t.Run("reversed window", func(t *testing.T) {
		from := time.Now()
		to := time.Now().AddDate(0, 0, -10)
		_, err := env.ledgerService.Summary(ctx, vendorID, billingapp.LedgerSummaryRequest{
			CustomerID: customerID,
			From:       &from,
			To:         &to,
		})
		requireCode(t, err, shared.ErrInvalidInput.Code)
	})

	t.Run("configured window and clock", func(t *testing.T) {
		fixed := time.Now()
		svc := billingapp.NewLedgerService(env.customers, env.receivables, env.txScope,
			billingapp.WithDefaultWindow(90*24*time.Hour),
			billingapp.WithClock(func() time.Time { return fixed }),
		)
		summary, err := svc.Summary(ctx, vendorID, billingapp.LedgerSummaryRequest{CustomerID: customerID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), summary.Count)
	})

	t.Run("summary reads in one read-only transaction", func(t *testing.T) {
		scope := &countingScope{TransactionScope: env.txScope}
		svc := billingapp.NewLedgerService(env.customers, env.receivables, scope)
		summary, err := svc.Summary(ctx, vendorID, billingapp.LedgerSummaryRequest{CustomerID: customerID})
		require.NoError(t, err)
		assert.Equal(t, 1, scope.reads)
		assert.Zero(t, scope.writes)
		assert.True(t, dec("200").Equal(summary.Outstanding))
	})

	t.Run("customer of another vendor", func(t *testing.T) {
		_, err := env.ledgerService.OutstandingTotal(ctx, env.vendor(t), customerID)
		requireCode(t, err, billing.CodeCustomerNotFound)
	})
}
