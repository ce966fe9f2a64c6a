package billing_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	billingapp "github.com/vendorbill/backend/internal/application/billing"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
)

func TestReceivableService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("numbers follow the vendor sequence", func(t *testing.T) {
		env := setupEnv(t)
		vendorID := env.vendor(t)
		customerID := env.customer(t, vendorID)

		assert.Equal(t, "INV1", env.receivable(t, vendorID, customerID, "100").DisplayNumber)
		assert.Equal(t, "INV2", env.receivable(t, vendorID, customerID, "100").DisplayNumber)
	})

	t.Run("vendors number independently", func(t *testing.T) {
		env := setupEnv(t)
		first := env.vendor(t)
		second := env.vendor(t)

		assert.Equal(t, "INV1", env.receivable(t, first, env.customer(t, first), "10").DisplayNumber)
		assert.Equal(t, "INV1", env.receivable(t, second, env.customer(t, second), "10").DisplayNumber)
	})

	t.Run("creation records an outbox event", func(t *testing.T) {
		env := setupEnv(t)
		vendorID := env.vendor(t)
		r := env.receivable(t, vendorID, env.customer(t, vendorID), "100")

		entries, err := env.outbox.FindPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, billing.EventTypeReceivableCreated, entries[0].EventType)
		assert.Equal(t, r.ID, entries[0].AggregateID)
	})

	t.Run("customer of another vendor", func(t *testing.T) {
		env := setupEnv(t)
		vendorID := env.vendor(t)
		otherCustomer := env.customer(t, env.vendor(t))

		_, err := env.receivableService.Create(ctx, vendorID, billingapp.CreateReceivableRequest{
			CustomerID:  otherCustomer,
			Kind:        billing.ReceivableKindBill,
			TotalAmount: dec("10"),
		})
		requireCode(t, err, billing.CodeCrossVendorReference)

		preview, err := env.sequenceService.PreviewNext(ctx, vendorID)
		require.NoError(t, err)
		assert.Equal(t, "INV1", preview, "a failed creation must not consume a number")
	})

	t.Run("negative total", func(t *testing.T) {
		env := setupEnv(t)
		vendorID := env.vendor(t)

		_, err := env.receivableService.Create(ctx, vendorID, billingapp.CreateReceivableRequest{
			CustomerID:  env.customer(t, vendorID),
			Kind:        billing.ReceivableKindBill,
			TotalAmount: dec("-1"),
		})
		requireCode(t, err, billing.CodeInvalidAmount)
	})

	t.Run("concurrent creations get distinct numbers", func(t *testing.T) {
		env := setupEnv(t)
		vendorID := env.vendor(t)
		customerID := env.customer(t, vendorID)

		const n = 10
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			numbers = make(map[string]struct{}, n)
		)
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r, err := env.receivableService.Create(ctx, vendorID, billingapp.CreateReceivableRequest{
					CustomerID:  customerID,
					Kind:        billing.ReceivableKindBill,
					TotalAmount: dec("10"),
				})
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				numbers[r.DisplayNumber] = struct{}{}
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Len(t, numbers, n)
		cfg, err := env.sequenceService.GetConfig(ctx, vendorID)
		require.NoError(t, err)
		assert.Equal(t, int64(n+1), cfg.CurrentCount)
		assert.Equal(t, int64(n), cfg.UsedCount)
	})
}

func TestReceivableService_GetAndList(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	vendorID := env.vendor(t)
	customerID := env.customer(t, vendorID)
	first := env.receivable(t, vendorID, customerID, "100")
	env.receivable(t, vendorID, customerID, "200")

	got, err := env.receivableService.GetByID(ctx, vendorID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.DisplayNumber, got.DisplayNumber)

	_, err = env.receivableService.GetByID(ctx, env.vendor(t), first.ID)
	requireCode(t, err, billing.CodeReceivableNotFound)

	list, total, err := env.receivableService.List(ctx, vendorID, billingapp.ReceivableListFilter{
		CustomerID: &customerID,
		OrderBy:    "total_amount",
		OrderDir:   "desc",
		Page:       1,
		PageSize:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.True(t, dec("200").Equal(list[0].TotalAmount))

	list, _, err = env.receivableService.List(ctx, vendorID, billingapp.ReceivableListFilter{OrderBy: "vendor_id; drop table receivables"})
	require.NoError(t, err, "unknown sort columns fall back to the default order")
	assert.Len(t, list, 2)

	_, _, err = env.receivableService.List(ctx, vendorID, billingapp.ReceivableListFilter{Status: "settled"})
	requireCode(t, err, shared.ErrInvalidInput.Code)
}

func TestReceivableService_Delete(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	vendorID := env.vendor(t)
	customerID := env.customer(t, vendorID)

	unpaid := env.receivable(t, vendorID, customerID, "100")
	require.NoError(t, env.receivableService.Delete(ctx, vendorID, unpaid.ID))
	_, err := env.receivableService.GetByID(ctx, vendorID, unpaid.ID)
	requireCode(t, err, billing.CodeReceivableNotFound)

	used, err := env.sequenceService.CheckNumber(ctx, vendorID, unpaid.DisplayNumber)
	require.NoError(t, err)
	assert.True(t, used.Used, "deleted numbers stay issued")

	partial := env.receivable(t, vendorID, customerID, "100")
	_, err = env.paymentService.ApplyPayment(ctx, vendorID, billingapp.ApplyPaymentRequest{
		CustomerID:  &customerID,
		Amount:      dec("10"),
		Type:        billing.PaymentTypeCredit,
		Method:      billing.PaymentMethodCash,
		Allocations: []billingapp.AllocationInput{{ReceivableID: partial.ID, Amount: dec("10")}},
	})
	require.NoError(t, err)

	err = env.receivableService.Delete(ctx, vendorID, partial.ID)
	requireCode(t, err, shared.ErrInvalidState.Code)
}

// staleReadScope hands out receivables as they looked before any payment, the
// view of a request that read just before a concurrent payment committed.
type staleReadScope struct {
	billingapp.TransactionScope
}

func (s staleReadScope) Execute(ctx context.Context, fn func(repos billingapp.TransactionalRepositories) error) error {
	return s.TransactionScope.Execute(ctx, func(repos billingapp.TransactionalRepositories) error {
		return fn(staleReadRepos{repos})
	})
}

type staleReadRepos struct {
	billingapp.TransactionalRepositories
}

func (r staleReadRepos) Receivables() billing.ReceivableRepository {
	return staleReceivables{r.TransactionalRepositories.Receivables()}
}

type staleReceivables struct {
	billing.ReceivableRepository
}

func (r staleReceivables) FindByIDForVendor(ctx context.Context, vendorID, id uuid.UUID) (*billing.Receivable, error) {
	receivable, err := r.ReceivableRepository.FindByIDForVendor(ctx, vendorID, id)
	if receivable != nil {
		receivable.PaidAmount = decimal.Zero
	}
	return receivable, err
}

func TestReceivableService_DeleteRacingPayment(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	vendorID := env.vendor(t)
	customerID := env.customer(t, vendorID)

	r := env.receivable(t, vendorID, customerID, "100")
	_, err := env.paymentService.ApplyPayment(ctx, vendorID, credit(customerID, "10", line(r.ID, "10")))
	require.NoError(t, err)

	svc := billingapp.NewReceivableService(env.receivables, staleReadScope{env.txScope}, env.paymentService)
	err = svc.Delete(ctx, vendorID, r.ID)
	requireCode(t, err, shared.ErrInvalidState.Code)

	stored, err := env.receivableService.GetByID(ctx, vendorID, r.ID)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(stored.PaidAmount))
}

func TestReceivableService_MarkPaid(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	vendorID := env.vendor(t)
	customerID := env.customer(t, vendorID)
	r := env.receivable(t, vendorID, customerID, "300")

	_, err := env.paymentService.ApplyPayment(ctx, vendorID, billingapp.ApplyPaymentRequest{
		CustomerID:  &customerID,
		Amount:      dec("100"),
		Type:        billing.PaymentTypeCredit,
		Method:      billing.PaymentMethodCash,
		Allocations: []billingapp.AllocationInput{{ReceivableID: r.ID, Amount: dec("100")}},
	})
	require.NoError(t, err)

	result, err := env.receivableService.MarkPaid(ctx, vendorID, r.ID, billingapp.MarkPaidRequest{
		Method:  billing.PaymentMethodUPI,
		Details: billing.MethodDetails{UPIID: "gupta@upi"},
	})
	require.NoError(t, err)
	assert.True(t, dec("200").Equal(result.Payment.Amount), "only the pending amount is paid")
	require.Len(t, result.UpdatedReceivables, 1)
	assert.Equal(t, string(billing.ReceivableStatusPaid), result.UpdatedReceivables[0].Status)

	_, err = env.receivableService.MarkPaid(ctx, vendorID, r.ID, billingapp.MarkPaidRequest{})
	requireCode(t, err, shared.ErrInvalidState.Code)
}

func TestReceivableService_PendingTotal(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	vendorID := env.vendor(t)
	customerID := env.customer(t, vendorID)
	env.receivable(t, vendorID, customerID, "100")
	_, err := env.receivableService.Create(ctx, vendorID, billingapp.CreateReceivableRequest{
		CustomerID:  customerID,
		Kind:        billing.ReceivableKindChallan,
		TotalAmount: dec("40"),
	})
	require.NoError(t, err)

	all, err := env.receivableService.PendingTotal(ctx, vendorID, "")
	require.NoError(t, err)
	assert.True(t, dec("140").Equal(all.Outstanding))

	challans, err := env.receivableService.PendingTotal(ctx, vendorID, billing.ReceivableKindChallan)
	require.NoError(t, err)
	assert.True(t, dec("40").Equal(challans.Outstanding))
	assert.Equal(t, int64(1), challans.Count)
}
