package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendorbill/backend/internal/domain/billing"
)

// ===================== Vendors and customers =====================

// CreateVendorRequest represents a request to register a vendor
type CreateVendorRequest struct {
	Name  string
	Phone string
}

// VendorResponse represents a vendor in API responses
type VendorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	Name    string
	Phone   string
	Address string
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID        uuid.UUID `json:"id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CustomerListFilter defines filtering options for customer list queries
type CustomerListFilter struct {
	Search   string
	Page     int
	PageSize int
}

// ===================== Receivables =====================

// LineItemInput is one bill/challan line in a create request
type LineItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	GSTRate     decimal.Decimal
}

// CreateReceivableRequest represents a request to create a bill or challan
type CreateReceivableRequest struct {
	CustomerID  uuid.UUID
	Kind        billing.ReceivableKind
	TotalAmount decimal.Decimal
	Items       []LineItemInput
	Remark      string
}

// ReceivableResponse represents a receivable in API responses
type ReceivableResponse struct {
	ID            uuid.UUID              `json:"id"`
	VendorID      uuid.UUID              `json:"vendor_id"`
	CustomerID    uuid.UUID              `json:"customer_id"`
	Kind          billing.ReceivableKind `json:"kind"`
	DisplayNumber string                 `json:"display_number"`
	TotalAmount   decimal.Decimal        `json:"total_amount"`
	PaidAmount    decimal.Decimal        `json:"paid_amount"`
	PendingAmount decimal.Decimal        `json:"pending_amount"`
	Status        string                 `json:"status"`
	Items         []billing.LineItem     `json:"items,omitempty"`
	Remark        string                 `json:"remark,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	Version       int                    `json:"version"`
}

// ReceivableListFilter defines filtering options for receivable list queries
type ReceivableListFilter struct {
	Search     string
	CustomerID *uuid.UUID
	Kind       billing.ReceivableKind
	Status     billing.ReceivableStatus
	FromDate   *time.Time
	ToDate     *time.Time
	OrderBy    string
	OrderDir   string
	Page       int
	PageSize   int
}

// TotalsResponse summarizes a set of receivables
type TotalsResponse struct {
	TotalInvoiced decimal.Decimal `json:"total_invoiced"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Count         int64           `json:"count"`
}

// PendingTotalResponse is the vendor-wide outstanding total, optionally per kind
type PendingTotalResponse struct {
	Kind billing.ReceivableKind `json:"kind,omitempty"`
	TotalsResponse
}

// MarkPaidRequest settles a receivable's full pending amount
type MarkPaidRequest struct {
	Method      billing.PaymentMethod
	Details     billing.MethodDetails
	PaymentDate time.Time
	Reference   string
}

// ===================== Invoice settings =====================

// SequenceConfigResponse represents the numbering configuration
type SequenceConfigResponse struct {
	Prefix       string    `json:"prefix"`
	StartCount   int64     `json:"start_count"`
	CurrentCount int64     `json:"current_count"`
	NextNumber   string    `json:"next_number"`
	UsedCount    int64     `json:"used_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpdateSequenceConfigRequest changes the prefix and start count.
// A start count change resets numbering and must be confirmed.
type UpdateSequenceConfigRequest struct {
	Prefix       string
	StartCount   int64
	ConfirmReset bool
}

// UpdateSequenceConfigResult is the outcome of a settings update
type UpdateSequenceConfigResult struct {
	Config *SequenceConfigResponse `json:"config"`
	Reset  bool                    `json:"reset"`
}

// CheckNumberResponse reports whether a display number was already issued
type CheckNumberResponse struct {
	Number string `json:"number"`
	Used   bool   `json:"used"`
}

// ===================== Payments =====================

// AllocationInput is one requested allocation line
type AllocationInput struct {
	ReceivableID uuid.UUID
	Amount       decimal.Decimal
}

// ApplyPaymentRequest represents a payment submission.
// Empty Allocations records an unlinked payment.
type ApplyPaymentRequest struct {
	CustomerID     *uuid.UUID
	Amount         decimal.Decimal
	Type           billing.PaymentType
	Method         billing.PaymentMethod
	Details        billing.MethodDetails
	PaymentDate    time.Time
	Reference      string
	Remark         string
	Allocations    []AllocationInput
	IdempotencyKey string
}

// AllocationResponse is one applied allocation line
type AllocationResponse struct {
	ReceivableID uuid.UUID       `json:"receivable_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID             uuid.UUID             `json:"id"`
	VendorID       uuid.UUID             `json:"vendor_id"`
	CustomerID     *uuid.UUID            `json:"customer_id,omitempty"`
	Amount         decimal.Decimal       `json:"amount"`
	Type           billing.PaymentType   `json:"type"`
	Method         billing.PaymentMethod `json:"method"`
	Details        billing.MethodDetails `json:"details"`
	PaymentDate    time.Time             `json:"payment_date"`
	Reference      string                `json:"reference,omitempty"`
	Remark         string                `json:"remark,omitempty"`
	AllocationMode string                `json:"allocation_mode"`
	Allocations    []AllocationResponse  `json:"allocations"`
	CreatedAt      time.Time             `json:"created_at"`
}

// ApplyPaymentResult is the outcome of ApplyPayment
type ApplyPaymentResult struct {
	Payment            *PaymentResponse     `json:"payment"`
	UpdatedReceivables []ReceivableResponse `json:"updated_receivables"`
	Attempts           int                  `json:"-"`
}

// PaymentListFilter defines filtering options for payment list queries
type PaymentListFilter struct {
	Search     string
	CustomerID *uuid.UUID
	Type       billing.PaymentType
	Method     billing.PaymentMethod
	FromDate   *time.Time
	ToDate     *time.Time
	OrderBy    string
	OrderDir   string
	Page       int
	PageSize   int
}

// MethodStat aggregates payments for one method
type MethodStat struct {
	Method billing.PaymentMethod `json:"method"`
	Amount decimal.Decimal       `json:"amount"`
	Count  int64                 `json:"count"`
}

// PaymentStatsResponse aggregates a vendor's payments over a window
type PaymentStatsResponse struct {
	From        *time.Time      `json:"from,omitempty"`
	To          *time.Time      `json:"to,omitempty"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	Net         decimal.Decimal `json:"net"`
	Count       int64           `json:"count"`
	ByMethod    []MethodStat    `json:"by_method"`
}

// SuggestAllocationRequest asks for a FIFO split of an amount over a customer's receivables
type SuggestAllocationRequest struct {
	CustomerID uuid.UUID
	Amount     decimal.Decimal
}

// ===================== Ledger =====================

// LedgerSummaryRequest selects the ledger window. Nil bounds use the default window.
type LedgerSummaryRequest struct {
	CustomerID uuid.UUID
	From       *time.Time
	To         *time.Time
}

// LedgerSummaryResponse is the ledger export summary for one customer and window
type LedgerSummaryResponse struct {
	CustomerID       uuid.UUID       `json:"customer_id"`
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	TotalInvoiced    decimal.Decimal `json:"total_invoiced"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	Count            int64           `json:"count"`
	PaymentsReceived decimal.Decimal `json:"payments_received"`
	PaymentsMade     decimal.Decimal `json:"payments_made"`
}

// OutstandingResponse is the customer's all-time outstanding total
type OutstandingResponse struct {
	CustomerID  uuid.UUID       `json:"customer_id"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// ===================== Notifications =====================

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID           uuid.UUID  `json:"id"`
	Kind         string     `json:"kind"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	ReceivableID *uuid.UUID `json:"receivable_id,omitempty"`
	PaymentID    *uuid.UUID `json:"payment_id,omitempty"`
	Read         bool       `json:"read"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ===================== Mappers =====================

func toVendorResponse(v *billing.Vendor) *VendorResponse {
	return &VendorResponse{ID: v.ID, Name: v.Name, Phone: v.Phone, CreatedAt: v.CreatedAt}
}

func toCustomerResponse(c *billing.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:        c.ID,
		VendorID:  c.VendorID,
		Name:      c.Name,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
	}
}

func toReceivableResponse(r *billing.Receivable) *ReceivableResponse {
	return &ReceivableResponse{
		ID:            r.ID,
		VendorID:      r.VendorID,
		CustomerID:    r.CustomerID,
		Kind:          r.Kind,
		DisplayNumber: r.DisplayNumber,
		TotalAmount:   r.TotalAmount,
		PaidAmount:    r.PaidAmount,
		PendingAmount: r.PendingAmount(),
		Status:        r.Status().String(),
		Items:         r.Items,
		Remark:        r.Remark,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Version:       r.Version,
	}
}

func toTotalsResponse(t billing.ReceivableTotals) TotalsResponse {
	return TotalsResponse{
		TotalInvoiced: t.TotalInvoiced,
		TotalPaid:     t.TotalPaid,
		Outstanding:   t.Outstanding,
		Count:         t.Count,
	}
}

func toSequenceConfigResponse(c *billing.SequenceConfig, usedCount int64) *SequenceConfigResponse {
	return &SequenceConfigResponse{
		Prefix:       c.Prefix,
		StartCount:   c.StartCount,
		CurrentCount: c.CurrentCount,
		NextNumber:   c.Preview(),
		UsedCount:    usedCount,
		UpdatedAt:    c.UpdatedAt,
	}
}

func toPaymentResponse(p *billing.Payment) *PaymentResponse {
	lines := p.Allocation().Lines()
	allocations := make([]AllocationResponse, len(lines))
	for i, l := range lines {
		allocations[i] = AllocationResponse{ReceivableID: l.ReceivableID, Amount: l.Amount}
	}
	return &PaymentResponse{
		ID:             p.ID,
		VendorID:       p.VendorID,
		CustomerID:     p.CustomerID,
		Amount:         p.Amount,
		Type:           p.Type,
		Method:         p.Method,
		Details:        p.Details,
		PaymentDate:    p.PaymentDate,
		Reference:      p.Reference,
		Remark:         p.Remark,
		AllocationMode: string(p.Allocation().Mode()),
		Allocations:    allocations,
		CreatedAt:      p.CreatedAt,
	}
}

func toNotificationResponse(n *billing.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:           n.ID,
		Kind:         string(n.Kind),
		Title:        n.Title,
		Message:      n.Message,
		ReceivableID: n.ReceivableID,
		PaymentID:    n.PaymentID,
		Read:         n.Read,
		ReadAt:       n.ReadAt,
		CreatedAt:    n.CreatedAt,
	}
}
