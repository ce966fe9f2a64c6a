package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/infrastructure/telemetry"
)

// LedgerService computes customer outstanding totals and ledger summaries.
// It only reads.
type LedgerService struct {
	customerRepo   billing.CustomerRepository
	receivableRepo billing.ReceivableRepository
	txScope        TransactionScope
	defaultWindow  time.Duration
	now            func() time.Time
}

// LedgerServiceOption is a functional option for configuring LedgerService
type LedgerServiceOption func(*LedgerService)

// WithDefaultWindow sets the summary window used when no dates are given.
// Zero means one calendar month.
func WithDefaultWindow(window time.Duration) LedgerServiceOption {
	return func(s *LedgerService) {
		s.defaultWindow = window
	}
}

// WithClock overrides the clock used for the default window
func WithClock(now func() time.Time) LedgerServiceOption {
	return func(s *LedgerService) {
		s.now = now
	}
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	customerRepo billing.CustomerRepository,
	receivableRepo billing.ReceivableRepository,
	txScope TransactionScope,
	opts ...LedgerServiceOption,
) *LedgerService {
	s := &LedgerService{
		customerRepo:   customerRepo,
		receivableRepo: receivableRepo,
		txScope:        txScope,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OutstandingTotal returns the customer's all-time pending amount
func (s *LedgerService) OutstandingTotal(ctx context.Context, vendorID, customerID uuid.UUID) (*OutstandingResponse, error) {
	if _, err := s.customerRepo.FindByIDForVendor(ctx, vendorID, customerID); err != nil {
		return nil, err
	}
	totals, err := s.receivableRepo.SumByCustomer(ctx, vendorID, customerID, nil, nil)
	if err != nil {
		return nil, err
	}
	return &OutstandingResponse{CustomerID: customerID, Outstanding: totals.Outstanding}, nil
}

// Summary totals the customer's receivables created in the window, and the
// payments dated in it. Both bounds are inclusive; the end date covers its whole day.
// All three reads share one snapshot, so the totals agree with each other.
func (s *LedgerService) Summary(ctx context.Context, vendorID uuid.UUID, req LedgerSummaryRequest) (*LedgerSummaryResponse, error) {
	from, to, err := s.window(req.From, req.To)
	if err != nil {
		return nil, err
	}

	var (
		invoiced billing.ReceivableTotals
		payments billing.PaymentTotals
	)
	telemetry.WithProfilingLabels(ctx, telemetry.BillingOperationLabels(telemetry.OperationLedgerSummary, vendorID.String()), func(c context.Context) {
		err = s.txScope.ExecuteRead(c, func(repos TransactionalRepositories) error {
			customer, err := repos.Customers().FindByIDForVendor(c, vendorID, req.CustomerID)
			if err != nil {
				return err
			}
			invoiced, err = repos.Receivables().SumByCustomer(c, vendorID, customer.ID, &from, &to)
			if err != nil {
				return err
			}
			payments, err = repos.Payments().SumByCustomer(c, vendorID, customer.ID, &from, &to)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	return &LedgerSummaryResponse{
		CustomerID:       req.CustomerID,
		From:             from,
		To:               to,
		TotalInvoiced:    invoiced.TotalInvoiced,
		TotalPaid:        invoiced.TotalPaid,
		Outstanding:      invoiced.Outstanding,
		Count:            invoiced.Count,
		PaymentsReceived: payments.Credit,
		PaymentsMade:     payments.Debit,
	}, nil
}

// window resolves the summary bounds, applying the default window for missing dates
func (s *LedgerService) window(from, to *time.Time) (time.Time, time.Time, error) {
	end := s.now()
	if to != nil {
		end = *to
	}
	var start time.Time
	switch {
	case from != nil:
		start = *from
	case s.defaultWindow > 0:
		start = end.Add(-s.defaultWindow)
	default:
		start = end.AddDate(0, -1, 0)
	}

	normalizedFrom, normalizedTo, err := normalizeDateRange(&start, &end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return *normalizedFrom, *normalizedTo, nil
}
