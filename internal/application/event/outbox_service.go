package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vendorbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DeadLetterRepository is the slice of outbox storage the dead letter
// operations need. Every query is scoped to one vendor.
type DeadLetterRepository interface {
	FindDeadForVendor(ctx context.Context, vendorID uuid.UUID, page, pageSize int) ([]*shared.OutboxEntry, int64, error)
	FindByIDForVendor(ctx context.Context, vendorID, id uuid.UUID) (*shared.OutboxEntry, error)
	CountByStatusForVendor(ctx context.Context, vendorID uuid.UUID) (map[shared.OutboxStatus]int64, error)
	Update(ctx context.Context, entry *shared.OutboxEntry) error
}

// OutboxService lets a vendor inspect billing events whose delivery
// (notifications) kept failing and put them back in the queue.
type OutboxService struct {
	repo   DeadLetterRepository
	logger *zap.Logger
}

// NewOutboxService creates a new outbox service
func NewOutboxService(repo DeadLetterRepository, logger *zap.Logger) *OutboxService {
	return &OutboxService{
		repo:   repo,
		logger: logger,
	}
}

// OutboxEntryResponse is the API view of an outbox entry
type OutboxEntryResponse struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OutboxFilter represents the paging of a dead letter query
type OutboxFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OutboxStatsResponse counts a vendor's events per delivery status
type OutboxStatsResponse struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

var errEntryNotFound = shared.NewDomainError("NOT_FOUND", "Event not found")

// ListDeadLetters returns the vendor's dead letter entries
func (s *OutboxService) ListDeadLetters(ctx context.Context, vendorID uuid.UUID, filter OutboxFilter) (shared.Paginated[OutboxEntryResponse], error) {
	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	entries, total, err := s.repo.FindDeadForVendor(ctx, vendorID, page, pageSize)
	if err != nil {
		return shared.Paginated[OutboxEntryResponse]{}, err
	}

	items := make([]OutboxEntryResponse, len(entries))
	for i, e := range entries {
		items[i] = toOutboxEntryResponse(e)
	}
	return shared.NewPaginated(items, total, page, pageSize), nil
}

// RetryDeadLetter resets one dead entry so the processor delivers it again
func (s *OutboxService) RetryDeadLetter(ctx context.Context, vendorID, id uuid.UUID) (*OutboxEntryResponse, error) {
	entry, err := s.repo.FindByIDForVendor(ctx, vendorID, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, errEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := entry.ResetForRetry(); err != nil {
		return nil, shared.NewDomainError("INVALID_STATE", err.Error())
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("dead letter entry reset for retry",
		zap.String("vendor_id", vendorID.String()),
		zap.String("id", id.String()),
		zap.String("event_type", entry.EventType),
	)

	resp := toOutboxEntryResponse(entry)
	return &resp, nil
}

// RetryAllDeadLetters resets every dead entry of the vendor and returns how many were reset
func (s *OutboxService) RetryAllDeadLetters(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	const pageSize = 100
	var count int64

	for {
		// reset entries leave the dead set, so page 1 always holds the next batch
		entries, _, err := s.repo.FindDeadForVendor(ctx, vendorID, 1, pageSize)
		if err != nil {
			return count, err
		}

		reset := 0
		for _, entry := range entries {
			if err := entry.ResetForRetry(); err != nil {
				continue
			}
			if err := s.repo.Update(ctx, entry); err != nil {
				s.logger.Error("failed to reset outbox entry", zap.String("id", entry.ID.String()), zap.Error(err))
				continue
			}
			reset++
		}
		count += int64(reset)

		if len(entries) < pageSize || reset == 0 {
			break
		}
	}

	s.logger.Info("retried dead letter entries",
		zap.String("vendor_id", vendorID.String()),
		zap.Int64("count", count),
	)
	return count, nil
}

// Stats returns the vendor's outbox counts
func (s *OutboxService) Stats(ctx context.Context, vendorID uuid.UUID) (*OutboxStatsResponse, error) {
	counts, err := s.repo.CountByStatusForVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &OutboxStatsResponse{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
		Total:      total,
	}, nil
}

func toOutboxEntryResponse(e *shared.OutboxEntry) OutboxEntryResponse {
	return OutboxEntryResponse{
		ID:            e.ID,
		EventID:       e.EventID,
		EventType:     e.EventType,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		Status:        string(e.Status),
		RetryCount:    e.RetryCount,
		MaxRetries:    e.MaxRetries,
		LastError:     e.LastError,
		NextRetryAt:   e.NextRetryAt,
		ProcessedAt:   e.ProcessedAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
