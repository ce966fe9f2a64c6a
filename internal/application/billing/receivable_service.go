package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
	"github.com/vendorbill/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ReceivableService handles bills and challans
type ReceivableService struct {
	receivableRepo billing.ReceivableRepository
	txScope        TransactionScope
	allocator      *PaymentService
	metrics        *telemetry.BillingMetrics
}

// ReceivableServiceOption is a functional option for configuring ReceivableService
type ReceivableServiceOption func(*ReceivableService)

// WithReceivableMetrics records receivable creation metrics
func WithReceivableMetrics(metrics *telemetry.BillingMetrics) ReceivableServiceOption {
	return func(s *ReceivableService) {
		s.metrics = metrics
	}
}

// NewReceivableService creates a new ReceivableService. The payment service is
// used by MarkPaid, which records a regular allocated payment.
func NewReceivableService(
	receivableRepo billing.ReceivableRepository,
	txScope TransactionScope,
	allocator *PaymentService,
	opts ...ReceivableServiceOption,
) *ReceivableService {
	s := &ReceivableService{
		receivableRepo: receivableRepo,
		txScope:        txScope,
		allocator:      allocator,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create numbers and stores a new receivable in one transaction.
// If anything fails the number is not consumed.
func (s *ReceivableService) Create(ctx context.Context, vendorID uuid.UUID, req CreateReceivableRequest) (*ReceivableResponse, error) {
	items := make([]billing.LineItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = billing.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			GSTRate:     it.GSTRate,
		}
	}
	receivable, err := billing.NewReceivable(vendorID, req.CustomerID, req.Kind, req.TotalAmount, items, req.Remark)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "receivable", "create",
		attribute.String(telemetry.SpanAttrVendorID, vendorID.String()),
		attribute.String(telemetry.SpanAttrKind, string(req.Kind)),
	)
	defer span.End()

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Vendors().FindByID(ctx, vendorID); err != nil {
			return err
		}
		if err := ensureCustomerOwnedBy(ctx, repos.Customers(), vendorID, req.CustomerID); err != nil {
			return err
		}

		number, err := issueNumber(ctx, repos, vendorID, receivable.ID)
		if err != nil {
			return err
		}
		if err := receivable.AssignNumber(number); err != nil {
			return err
		}
		if err := repos.Receivables().Create(ctx, receivable); err != nil {
			return err
		}
		return repos.Events().Record(ctx, receivable.GetDomainEvents()...)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	receivable.ClearDomainEvents()
	span.SetAttributes(attribute.String(telemetry.SpanAttrReceivableID, receivable.ID.String()))

	s.metrics.RecordReceivableCreated(ctx, string(receivable.Kind))
	return toReceivableResponse(receivable), nil
}

// GetByID retrieves one of the vendor's receivables
func (s *ReceivableService) GetByID(ctx context.Context, vendorID, receivableID uuid.UUID) (*ReceivableResponse, error) {
	receivable, err := s.receivableRepo.FindByIDForVendor(ctx, vendorID, receivableID)
	if err != nil {
		return nil, err
	}
	return toReceivableResponse(receivable), nil
}

// List lists the vendor's receivables
func (s *ReceivableService) List(ctx context.Context, vendorID uuid.UUID, filter ReceivableListFilter) ([]ReceivableResponse, int64, error) {
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return nil, 0, shared.NewDomainError(shared.ErrInvalidInput.Code, "Invalid receivable kind")
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, shared.NewDomainError(shared.ErrInvalidInput.Code, "Invalid receivable status")
	}
	from, to, err := normalizeDateRange(filter.FromDate, filter.ToDate)
	if err != nil {
		return nil, 0, err
	}

	domainFilter := billing.ReceivableFilter{
		Filter:     pageFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
		CustomerID: filter.CustomerID,
		Kind:       filter.Kind,
		Status:     filter.Status,
		FromDate:   from,
		ToDate:     to,
	}
	domainFilter.Search = filter.Search

	receivables, err := s.receivableRepo.FindAllForVendor(ctx, vendorID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.receivableRepo.CountForVendor(ctx, vendorID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ReceivableResponse, len(receivables))
	for i := range receivables {
		responses[i] = *toReceivableResponse(&receivables[i])
	}
	return responses, total, nil
}

// Delete removes a receivable that has nothing paid against it
func (s *ReceivableService) Delete(ctx context.Context, vendorID, receivableID uuid.UUID) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		receivable, err := repos.Receivables().FindByIDForVendor(ctx, vendorID, receivableID)
		if err != nil {
			return err
		}
		if err := receivable.EnsureDeletable(); err != nil {
			return err
		}
		return repos.Receivables().DeleteForVendor(ctx, vendorID, receivableID)
	})
}

// PendingTotal totals what the vendor's customers still owe, optionally for one kind
func (s *ReceivableService) PendingTotal(ctx context.Context, vendorID uuid.UUID, kind billing.ReceivableKind) (*PendingTotalResponse, error) {
	if kind != "" && !kind.IsValid() {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Invalid receivable kind")
	}
	totals, err := s.receivableRepo.SumPendingForVendor(ctx, vendorID, kind)
	if err != nil {
		return nil, err
	}
	return &PendingTotalResponse{Kind: kind, TotalsResponse: toTotalsResponse(totals)}, nil
}

// MarkPaid settles the receivable's full pending amount with a credit payment
// allocated to it. A receivable that is already paid is rejected.
func (s *ReceivableService) MarkPaid(ctx context.Context, vendorID, receivableID uuid.UUID, req MarkPaidRequest) (*ApplyPaymentResult, error) {
	receivable, err := s.receivableRepo.FindByIDForVendor(ctx, vendorID, receivableID)
	if err != nil {
		return nil, err
	}
	if !receivable.IsOutstanding() {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code,
			"Receivable "+receivable.DisplayNumber+" is already paid")
	}

	method := req.Method
	if method == "" {
		method = billing.PaymentMethodCash
	}
	customerID := receivable.CustomerID
	pending := receivable.PendingAmount()
	return s.allocator.ApplyPayment(ctx, vendorID, ApplyPaymentRequest{
		CustomerID:  &customerID,
		Amount:      pending,
		Type:        billing.PaymentTypeCredit,
		Method:      method,
		Details:     req.Details,
		PaymentDate: req.PaymentDate,
		Reference:   req.Reference,
		Remark:      "Marked paid: " + receivable.DisplayNumber,
		Allocations: []AllocationInput{{ReceivableID: receivable.ID, Amount: pending}},
	})
}

// ensureCustomerOwnedBy distinguishes a missing customer from one of another vendor
func ensureCustomerOwnedBy(ctx context.Context, customers billing.CustomerRepository, vendorID, customerID uuid.UUID) error {
	customer, err := customers.FindByID(ctx, customerID)
	if err != nil {
		return err
	}
	if !customer.BelongsTo(vendorID) {
		return billing.NewCrossVendorReferenceError("Customer", customerID, "vendor")
	}
	return nil
}

// normalizeDateRange rejects from > to and extends to the end of its day
func normalizeDateRange(from, to *time.Time) (*time.Time, *time.Time, error) {
	if to != nil {
		end := endOfDay(*to)
		to = &end
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "From date must not be after to date")
	}
	return from, to, nil
}

// endOfDay returns the last instant of t's calendar day in t's location
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
