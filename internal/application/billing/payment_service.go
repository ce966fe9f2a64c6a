package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
	"github.com/vendorbill/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// PaymentServiceConfig contains configuration for the payment allocator
type PaymentServiceConfig struct {
	// MaxAttempts bounds how often an allocation is tried when it loses a
	// race with another writer (version mismatch or serialization failure)
	MaxAttempts int

	// RetryBackoff is the initial delay between attempts (exponential backoff)
	RetryBackoff time.Duration

	// IdempotencyTTL is how long a client idempotency key is remembered
	IdempotencyTTL time.Duration
}

// DefaultPaymentServiceConfig returns default configuration
func DefaultPaymentServiceConfig() PaymentServiceConfig {
	return PaymentServiceConfig{
		MaxAttempts:    3,
		RetryBackoff:   20 * time.Millisecond,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// PaymentService records payments and applies them to receivables
type PaymentService struct {
	paymentRepo    billing.PaymentRepository
	receivableRepo billing.ReceivableRepository
	customerRepo   billing.CustomerRepository
	txScope        TransactionScope
	idempotency    shared.IdempotencyStore
	metrics        *telemetry.BillingMetrics
	logger         *zap.Logger
	config         PaymentServiceConfig
}

// PaymentServiceOption is a functional option for configuring PaymentService
type PaymentServiceOption func(*PaymentService)

// WithPaymentConfig overrides the retry and idempotency settings
func WithPaymentConfig(cfg PaymentServiceConfig) PaymentServiceOption {
	return func(s *PaymentService) {
		if cfg.MaxAttempts > 0 {
			s.config.MaxAttempts = cfg.MaxAttempts
		}
		if cfg.RetryBackoff > 0 {
			s.config.RetryBackoff = cfg.RetryBackoff
		}
		if cfg.IdempotencyTTL > 0 {
			s.config.IdempotencyTTL = cfg.IdempotencyTTL
		}
	}
}

// WithIdempotencyStore enables client idempotency keys
func WithIdempotencyStore(store shared.IdempotencyStore) PaymentServiceOption {
	return func(s *PaymentService) {
		s.idempotency = store
	}
}

// WithPaymentMetrics records payment metrics
func WithPaymentMetrics(metrics *telemetry.BillingMetrics) PaymentServiceOption {
	return func(s *PaymentService) {
		s.metrics = metrics
	}
}

// WithPaymentLogger sets the logger
func WithPaymentLogger(logger *zap.Logger) PaymentServiceOption {
	return func(s *PaymentService) {
		s.logger = logger
	}
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo billing.PaymentRepository,
	receivableRepo billing.ReceivableRepository,
	customerRepo billing.CustomerRepository,
	txScope TransactionScope,
	opts ...PaymentServiceOption,
) *PaymentService {
	s := &PaymentService{
		paymentRepo:    paymentRepo,
		receivableRepo: receivableRepo,
		customerRepo:   customerRepo,
		txScope:        txScope,
		logger:         zap.NewNop(),
		config:         DefaultPaymentServiceConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyPayment validates a payment and applies it to the referenced receivables
// atomically: either every allocation line and the payment are stored, or
// nothing is. An unlinked payment stores only the payment.
//
// Allocations are checked against row-locked receivables, so two payments racing
// for the same pending amount cannot both succeed. An attempt that still loses
// an optimistic version check is retried from scratch.
func (s *PaymentService) ApplyPayment(ctx context.Context, vendorID uuid.UUID, req ApplyPaymentRequest) (*ApplyPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "apply",
		attribute.String(telemetry.SpanAttrVendorID, vendorID.String()),
		attribute.String(telemetry.SpanAttrAmount, req.Amount.String()),
	)
	defer span.End()

	result, err := s.applyPayment(ctx, vendorID, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String(telemetry.SpanAttrPaymentID, result.Payment.ID.String()),
		attribute.Int(telemetry.SpanAttrAttempts, result.Attempts),
	)
	return result, nil
}

func (s *PaymentService) applyPayment(ctx context.Context, vendorID uuid.UUID, req ApplyPaymentRequest) (*ApplyPaymentResult, error) {
	allocation := billing.Unlinked()
	if len(req.Allocations) > 0 {
		lines := make([]billing.AllocationLine, len(req.Allocations))
		for i, a := range req.Allocations {
			lines[i] = billing.AllocationLine{ReceivableID: a.ReceivableID, Amount: a.Amount}
		}
		allocation = billing.Explicit(lines...)
	}

	payment, err := billing.NewPayment(billing.NewPaymentParams{
		VendorID:    vendorID,
		CustomerID:  req.CustomerID,
		Amount:      req.Amount,
		Type:        req.Type,
		Method:      req.Method,
		Details:     req.Details,
		PaymentDate: req.PaymentDate,
		Reference:   req.Reference,
		Remark:      req.Remark,
		Allocation:  allocation,
	})
	if err != nil {
		return nil, err
	}

	release, err := s.claimIdempotencyKey(ctx, vendorID, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	var result *ApplyPaymentResult
	telemetry.WithProfilingLabels(ctx, telemetry.BillingOperationLabels(telemetry.OperationApplyPayment, vendorID.String()), func(c context.Context) {
		result, err = s.applyWithRetry(c, vendorID, payment)
	})
	if err != nil {
		release()
		return nil, err
	}
	payment.ClearDomainEvents()

	s.metrics.RecordPaymentApplied(ctx, string(payment.Type), string(payment.Method), payment.Amount, result.Attempts)
	s.logger.Info("Payment applied",
		zap.String("vendor_id", vendorID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("allocation_mode", string(allocation.Mode())),
		zap.Int("receivables", len(result.UpdatedReceivables)),
		zap.Int("attempts", result.Attempts),
	)
	return result, nil
}

// claimIdempotencyKey marks a client key as used. The returned func forgets the
// key again so a failed request can be resubmitted.
func (s *PaymentService) claimIdempotencyKey(ctx context.Context, vendorID uuid.UUID, key string) (func(), error) {
	if key == "" || s.idempotency == nil {
		return func() {}, nil
	}
	storeKey := fmt.Sprintf("payment:%s:%s", vendorID, key)
	claimed, err := s.idempotency.MarkProcessed(ctx, storeKey, s.config.IdempotencyTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if !claimed {
		s.logger.Info("Duplicate payment request rejected",
			zap.String("vendor_id", vendorID.String()),
			zap.String("idempotency_key", key))
		return nil, billing.ErrDuplicateRequest
	}
	return func() {
		if err := s.idempotency.Release(context.WithoutCancel(ctx), storeKey); err != nil {
			s.logger.Warn("Failed to release idempotency key",
				zap.String("idempotency_key", key),
				zap.Error(err))
		}
	}, nil
}

func (s *PaymentService) applyWithRetry(ctx context.Context, vendorID uuid.UUID, payment *billing.Payment) (*ApplyPaymentResult, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.config.RetryBackoff
	policy.MaxElapsedTime = 0

	var (
		result   *ApplyPaymentResult
		attempts int
	)
	operation := func() error {
		attempts++
		var err error
		result, err = s.applyOnce(ctx, vendorID, payment)
		if err == nil {
			return nil
		}
		if !shared.HasCode(err, shared.ErrConcurrencyConflict.Code) {
			return backoff.Permanent(err)
		}
		s.metrics.RecordAllocationConflict(ctx)
		telemetry.AddEvent(trace.SpanFromContext(ctx), "allocation_conflict", attribute.Int(telemetry.SpanAttrAttempts, attempts))
		s.logger.Debug("Allocation conflict, retrying",
			zap.String("payment_id", payment.ID.String()),
			zap.Int("attempt", attempts),
			zap.Error(err))
		return err
	}

	retries := uint64(max(s.config.MaxAttempts-1, 0))
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx)); err != nil {
		return nil, err
	}
	result.Attempts = attempts
	return result, nil
}

// applyOnce runs one allocation attempt in its own transaction
func (s *PaymentService) applyOnce(ctx context.Context, vendorID uuid.UUID, payment *billing.Payment) (*ApplyPaymentResult, error) {
	var updated []*billing.Receivable
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Vendors().FindByID(ctx, vendorID); err != nil {
			return err
		}
		if payment.CustomerID != nil {
			if err := ensureCustomerOwnedBy(ctx, repos.Customers(), vendorID, *payment.CustomerID); err != nil {
				return err
			}
		}

		var err error
		updated, err = s.allocate(ctx, repos, payment)
		if err != nil {
			return err
		}
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return err
		}

		events := append([]shared.DomainEvent{}, payment.GetDomainEvents()...)
		for _, r := range updated {
			events = append(events, r.GetDomainEvents()...)
		}
		return repos.Events().Record(ctx, events...)
	})
	if err != nil {
		return nil, err
	}

	responses := make([]ReceivableResponse, len(updated))
	for i, r := range updated {
		r.ClearDomainEvents()
		responses[i] = *toReceivableResponse(r)
	}
	return &ApplyPaymentResult{
		Payment:            toPaymentResponse(payment),
		UpdatedReceivables: responses,
	}, nil
}

// allocate locks every referenced receivable, checks ownership and applies the
// allocation lines in order. Receivables are saved only after every line passed.
func (s *PaymentService) allocate(ctx context.Context, repos TransactionalRepositories, payment *billing.Payment) ([]*billing.Receivable, error) {
	allocation := payment.Allocation()
	if !allocation.IsExplicit() {
		return nil, nil
	}

	locked, err := repos.Receivables().FindByIDsForUpdate(ctx, allocation.ReceivableIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*billing.Receivable, len(locked))
	for _, r := range locked {
		byID[r.ID] = r
	}

	updated := make([]*billing.Receivable, 0, len(locked))
	for _, line := range allocation.Lines() {
		r, ok := byID[line.ReceivableID]
		if !ok {
			return nil, billing.NewReceivableNotFoundError(line.ReceivableID)
		}
		if !r.BelongsTo(payment.VendorID) {
			return nil, billing.NewCrossVendorReferenceError("Receivable", r.ID, "vendor")
		}
		if payment.CustomerID != nil && r.CustomerID != *payment.CustomerID {
			return nil, billing.NewCrossVendorReferenceError("Receivable", r.ID, "customer")
		}
		if _, err := r.ApplyAllocation(line.Amount, payment.ID); err != nil {
			return nil, err
		}
		updated = append(updated, r)
	}

	for _, r := range updated {
		if err := repos.Receivables().SaveWithLock(ctx, r); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// GetByID retrieves one of the vendor's payments
func (s *PaymentService) GetByID(ctx context.Context, vendorID, paymentID uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByIDForVendor(ctx, vendorID, paymentID)
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(payment), nil
}

// List lists the vendor's payments
func (s *PaymentService) List(ctx context.Context, vendorID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, 0, shared.NewDomainError(shared.ErrInvalidInput.Code, "Invalid payment type")
	}
	if filter.Method != "" && !filter.Method.IsValid() {
		return nil, 0, shared.NewDomainError(shared.ErrInvalidInput.Code, "Invalid payment method")
	}
	from, to, err := normalizeDateRange(filter.FromDate, filter.ToDate)
	if err != nil {
		return nil, 0, err
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "payment_date"
	}
	domainFilter := billing.PaymentFilter{
		Filter:     pageFilter(filter.Page, filter.PageSize, orderBy, filter.OrderDir),
		CustomerID: filter.CustomerID,
		Type:       filter.Type,
		Method:     filter.Method,
		FromDate:   from,
		ToDate:     to,
	}
	domainFilter.Search = filter.Search

	payments, err := s.paymentRepo.FindAllForVendor(ctx, vendorID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.paymentRepo.CountForVendor(ctx, vendorID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *toPaymentResponse(&payments[i])
	}
	return responses, total, nil
}

// Stats aggregates the vendor's payments by type and method over an optional window
func (s *PaymentService) Stats(ctx context.Context, vendorID uuid.UUID, from, to *time.Time) (*PaymentStatsResponse, error) {
	from, to, err := normalizeDateRange(from, to)
	if err != nil {
		return nil, err
	}
	totals, byMethod, err := s.paymentRepo.Totals(ctx, vendorID, from, to)
	if err != nil {
		return nil, err
	}

	methods := make([]MethodStat, len(byMethod))
	for i, m := range byMethod {
		methods[i] = MethodStat{Method: m.Method, Amount: m.Amount, Count: m.Count}
	}
	return &PaymentStatsResponse{
		From:        from,
		To:          to,
		TotalCredit: totals.Credit,
		TotalDebit:  totals.Debit,
		Net:         totals.Credit.Sub(totals.Debit),
		Count:       totals.Count,
		ByMethod:    methods,
	}, nil
}

// CustomerPendingReceivables lists the customer's outstanding receivables, oldest first
func (s *PaymentService) CustomerPendingReceivables(ctx context.Context, vendorID, customerID uuid.UUID) ([]ReceivableResponse, error) {
	if _, err := s.customerRepo.FindByIDForVendor(ctx, vendorID, customerID); err != nil {
		return nil, err
	}
	receivables, err := s.receivableRepo.FindOutstandingByCustomer(ctx, vendorID, customerID)
	if err != nil {
		return nil, err
	}
	responses := make([]ReceivableResponse, len(receivables))
	for i := range receivables {
		responses[i] = *toReceivableResponse(&receivables[i])
	}
	return responses, nil
}

// SuggestAllocation proposes a FIFO split of an amount over the customer's
// outstanding receivables. Nothing is stored.
func (s *PaymentService) SuggestAllocation(ctx context.Context, vendorID uuid.UUID, req SuggestAllocationRequest) (*billing.AllocationSuggestion, error) {
	if !req.Amount.GreaterThan(decimal.Zero) {
		return nil, billing.ErrInvalidAmount
	}
	if _, err := s.customerRepo.FindByIDForVendor(ctx, vendorID, req.CustomerID); err != nil {
		return nil, err
	}
	receivables, err := s.receivableRepo.FindOutstandingByCustomer(ctx, vendorID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	suggestion, err := billing.SuggestFIFO(req.Amount, receivables)
	if err != nil {
		return nil, err
	}
	return &suggestion, nil
}
