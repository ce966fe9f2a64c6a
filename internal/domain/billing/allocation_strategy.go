package billing

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SuggestedLine is one line of an allocation suggestion
type SuggestedLine struct {
	ReceivableID  uuid.UUID       `json:"receivable_id"`
	DisplayNumber string          `json:"display_number"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	Amount        decimal.Decimal `json:"amount"`
}

// AllocationSuggestion is the result of SuggestFIFO
type AllocationSuggestion struct {
	Lines       []SuggestedLine `json:"lines"`
	Allocated   decimal.Decimal `json:"allocated"`
	Unallocated decimal.Decimal `json:"unallocated"`
}

// AsAllocation converts the suggestion into an explicit allocation.
// It returns Unlinked when nothing could be allocated.
func (s AllocationSuggestion) AsAllocation() Allocation {
	if len(s.Lines) == 0 {
		return Unlinked()
	}
	lines := make([]AllocationLine, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = AllocationLine{ReceivableID: l.ReceivableID, Amount: l.Amount}
	}
	return Explicit(lines...)
}

// SuggestFIFO spreads amount over receivables oldest first, never exceeding any
// receivable's pending amount. It is a read-only proposal for the payment
// screen; the allocator re-validates against locked rows.
func SuggestFIFO(amount decimal.Decimal, receivables []Receivable) (AllocationSuggestion, error) {
	amount = RoundMoney(amount)
	if !amount.IsPositive() {
		return AllocationSuggestion{}, ErrInvalidAmount
	}

	sorted := make([]Receivable, 0, len(receivables))
	for _, r := range receivables {
		if r.IsOutstanding() {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].DisplayNumber < sorted[j].DisplayNumber
	})

	result := AllocationSuggestion{Lines: make([]SuggestedLine, 0), Allocated: decimal.Zero}
	remaining := amount
	for _, r := range sorted {
		if !remaining.IsPositive() {
			break
		}
		pending := r.PendingAmount()
		share := decimal.Min(remaining, pending)
		result.Lines = append(result.Lines, SuggestedLine{
			ReceivableID:  r.ID,
			DisplayNumber: r.DisplayNumber,
			PendingAmount: pending,
			Amount:        share,
		})
		result.Allocated = result.Allocated.Add(share)
		remaining = remaining.Sub(share)
	}
	result.Unallocated = remaining
	return result, nil
}
