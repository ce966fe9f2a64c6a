package billing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendorbill/backend/internal/domain/shared"
)

// Billing error codes
const (
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeAllocationMismatch   = "ALLOCATION_MISMATCH"
	CodeOverAllocation       = "OVER_ALLOCATION"
	CodeReceivableNotFound   = "RECEIVABLE_NOT_FOUND"
	CodeCrossVendorReference = "CROSS_VENDOR_REFERENCE"
	CodeInvalidConfig        = "INVALID_CONFIG"
	CodeVendorNotFound       = "VENDOR_NOT_FOUND"
	CodeCustomerNotFound     = "CUSTOMER_NOT_FOUND"
	CodeDuplicateNumber      = "DUPLICATE_NUMBER"
	CodeDuplicateRequest     = "DUPLICATE_REQUEST"
)

var (
	ErrInvalidAmount      = shared.NewDomainError(CodeInvalidAmount, "Amount must be greater than zero")
	ErrVendorNotFound     = shared.NewDomainError(CodeVendorNotFound, "Vendor not found")
	ErrCustomerNotFound   = shared.NewDomainError(CodeCustomerNotFound, "Customer not found")
	ErrReceivableNotFound = shared.NewDomainError(CodeReceivableNotFound, "Receivable not found")
	ErrDuplicateRequest   = shared.NewDomainError(CodeDuplicateRequest, "Request with this idempotency key was already processed")
)

// NewOverAllocationError reports an allocation that exceeds the receivable's pending amount
func NewOverAllocationError(r *Receivable, requested decimal.Decimal) *shared.DomainError {
	return shared.NewDomainError(CodeOverAllocation, fmt.Sprintf(
		"Allocation of %s to receivable %s (%s) exceeds its pending amount %s",
		requested.StringFixed(MoneyPlaces), r.DisplayNumber, r.ID, r.PendingAmount().StringFixed(MoneyPlaces),
	))
}

// NewAllocationMismatchError reports allocations that do not add up to the payment amount
func NewAllocationMismatchError(allocated, amount decimal.Decimal) *shared.DomainError {
	return shared.NewDomainError(CodeAllocationMismatch, fmt.Sprintf(
		"Allocations total %s but payment amount is %s",
		allocated.StringFixed(MoneyPlaces), amount.StringFixed(MoneyPlaces),
	))
}

// NewReceivableNotFoundError reports a referenced receivable that does not exist
func NewReceivableNotFoundError(id uuid.UUID) *shared.DomainError {
	return shared.NewDomainError(CodeReceivableNotFound, fmt.Sprintf("Receivable %s not found", id))
}

// NewCrossVendorReferenceError reports a reference to an entity owned by someone else
func NewCrossVendorReferenceError(entity string, id uuid.UUID, owner string) *shared.DomainError {
	return shared.NewDomainError(CodeCrossVendorReference, fmt.Sprintf("%s %s belongs to a different %s", entity, id, owner))
}

// NewInvalidConfigError reports an invalid numbering configuration
func NewInvalidConfigError(message string) *shared.DomainError {
	return shared.NewDomainError(CodeInvalidConfig, message)
}

func invalidInput(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(shared.ErrInvalidInput.Code, fmt.Sprintf(format, args...))
}

func newInvalidAmountError(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(CodeInvalidAmount, fmt.Sprintf(format, args...))
}
