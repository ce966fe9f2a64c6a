package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationMode tags how a payment relates to receivables
type AllocationMode string

const (
	// AllocationModeExplicit applies fixed amounts to specific receivables
	AllocationModeExplicit AllocationMode = "explicit"
	// AllocationModeUnlinked records the payment against the customer balance only
	AllocationModeUnlinked AllocationMode = "unlinked"
)

// IsValid checks if the mode is valid
func (m AllocationMode) IsValid() bool {
	return m == AllocationModeExplicit || m == AllocationModeUnlinked
}

// AllocationLine is the portion of a payment applied to one receivable
type AllocationLine struct {
	ReceivableID uuid.UUID       `json:"receivable_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// Allocation is either Explicit(lines...) or Unlinked(). The zero value is
// neither and is rejected by NewPayment.
type Allocation struct {
	mode  AllocationMode
	lines []AllocationLine
}

// Explicit builds an allocation over the given lines, in order
func Explicit(lines ...AllocationLine) Allocation {
	copied := make([]AllocationLine, len(lines))
	for i, l := range lines {
		copied[i] = AllocationLine{ReceivableID: l.ReceivableID, Amount: RoundMoney(l.Amount)}
	}
	return Allocation{mode: AllocationModeExplicit, lines: copied}
}

// Unlinked builds an allocation that touches no receivable
func Unlinked() Allocation {
	return Allocation{mode: AllocationModeUnlinked}
}

// Mode returns the allocation tag
func (a Allocation) Mode() AllocationMode {
	return a.mode
}

// IsExplicit reports whether the payment is applied to receivables
func (a Allocation) IsExplicit() bool {
	return a.mode == AllocationModeExplicit
}

// Lines returns a copy of the allocation lines
func (a Allocation) Lines() []AllocationLine {
	if len(a.lines) == 0 {
		return nil
	}
	out := make([]AllocationLine, len(a.lines))
	copy(out, a.lines)
	return out
}

// Total returns the sum of the allocated amounts
func (a Allocation) Total() decimal.Decimal {
	amounts := make([]decimal.Decimal, len(a.lines))
	for i, l := range a.lines {
		amounts[i] = l.Amount
	}
	return SumMoney(amounts...)
}

// ReceivableIDs returns the referenced receivables in allocation order
func (a Allocation) ReceivableIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(a.lines))
	for i, l := range a.lines {
		ids[i] = l.ReceivableID
	}
	return ids
}

// validate checks the allocation against the payment amount
func (a Allocation) validate(amount decimal.Decimal) error {
	switch a.mode {
	case AllocationModeUnlinked:
		if len(a.lines) > 0 {
			return invalidInput("Unlinked payment cannot carry allocations")
		}
		return nil
	case AllocationModeExplicit:
	default:
		return invalidInput("Allocation mode is required")
	}

	if len(a.lines) == 0 {
		return invalidInput("Explicit allocation requires at least one receivable")
	}
	seen := make(map[uuid.UUID]struct{}, len(a.lines))
	for i, l := range a.lines {
		if l.ReceivableID == uuid.Nil {
			return invalidInput("Allocation %d has no receivable", i+1)
		}
		if _, dup := seen[l.ReceivableID]; dup {
			return invalidInput("Receivable %s appears more than once in the allocation", l.ReceivableID)
		}
		seen[l.ReceivableID] = struct{}{}
		if !l.Amount.IsPositive() {
			return newInvalidAmountError("Allocation to receivable %s must be greater than zero", l.ReceivableID)
		}
	}
	if total := a.Total(); !total.Equal(amount) {
		return NewAllocationMismatchError(total, amount)
	}
	return nil
}
