package billing

import (
	"context"
	"time"

	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReminderConfig contains configuration for payment reminders
type ReminderConfig struct {
	// AfterDays is how old an outstanding receivable must be before it is reminded
	AfterDays int

	// Interval suppresses a new reminder while one for the same receivable is younger than this.
	// The last 1/24th of the interval is not suppressed, so a run scheduled once per
	// interval still reminds receivables whose previous reminder was written late in a run.
	Interval time.Duration

	// BatchSize caps how many receivables one run looks at
	BatchSize int
}

// DefaultReminderConfig returns default configuration
func DefaultReminderConfig() ReminderConfig {
	return ReminderConfig{
		AfterDays: 7,
		Interval:  24 * time.Hour,
		BatchSize: 500,
	}
}

// ReminderStats contains statistics about one reminder run
type ReminderStats struct {
	Scanned     int       `json:"scanned"`
	Created     int       `json:"created"`
	Suppressed  int       `json:"suppressed"`
	Failed      int       `json:"failed"`
	ProcessedAt time.Time `json:"processed_at"`
}

// ReminderService creates payment reminders for receivables left unpaid too long
type ReminderService struct {
	receivableRepo   billing.ReceivableRepository
	notificationRepo billing.NotificationRepository
	metrics          *telemetry.BillingMetrics
	logger           *zap.Logger
	config           ReminderConfig
	now              func() time.Time
}

// NewReminderService creates a new ReminderService
func NewReminderService(
	receivableRepo billing.ReceivableRepository,
	notificationRepo billing.NotificationRepository,
	config ReminderConfig,
	metrics *telemetry.BillingMetrics,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		receivableRepo:   receivableRepo,
		notificationRepo: notificationRepo,
		metrics:          metrics,
		logger:           logger,
		config:           config,
		now:              time.Now,
	}
}

// SendReminders creates a reminder for every outstanding receivable older than
// the configured age that has not been reminded within the interval.
// Paid receivables are never selected.
func (s *ReminderService) SendReminders(ctx context.Context) (*ReminderStats, error) {
	now := s.now()
	stats := &ReminderStats{ProcessedAt: now}

	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.BillingOperationLabels(telemetry.OperationReminderScan, ""), func(c context.Context) {
		err = s.sendReminders(c, now, stats)
	})
	if err != nil {
		s.logger.Error("Failed to scan outstanding receivables", zap.Error(err))
		return nil, err
	}

	s.metrics.RecordReminders(ctx, stats.Scanned, stats.Created)
	s.logger.Info("Payment reminder run finished",
		zap.Int("scanned", stats.Scanned),
		zap.Int("created", stats.Created),
		zap.Int("suppressed", stats.Suppressed),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func (s *ReminderService) sendReminders(ctx context.Context, now time.Time, stats *ReminderStats) error {
	cutoff := now.AddDate(0, 0, -s.config.AfterDays)
	since := now.Add(-s.suppressionWindow())
	receivables, err := s.receivableRepo.FindOutstandingCreatedBefore(ctx, cutoff, since, s.config.BatchSize)
	if err != nil {
		return err
	}
	stats.Scanned = len(receivables)

	for i := range receivables {
		r := &receivables[i]
		if !r.IsOutstanding() {
			continue
		}
		// another replica may have reminded it since the scan
		reminded, err := s.notificationRepo.HasReminderSince(ctx, r.ID, since)
		if err != nil {
			stats.Failed++
			s.logger.Warn("Failed to check previous reminders",
				zap.String("receivable_id", r.ID.String()),
				zap.Error(err))
			continue
		}
		if reminded {
			stats.Suppressed++
			continue
		}

		if err := s.notificationRepo.Create(ctx, billing.NotificationForReminder(r, now.Sub(r.CreatedAt))); err != nil {
			stats.Failed++
			s.logger.Warn("Failed to create payment reminder",
				zap.String("receivable_id", r.ID.String()),
				zap.Error(err))
			continue
		}
		stats.Created++
	}
	return nil
}

// suppressionWindow is how long a reminder blocks the next one for the same receivable
func (s *ReminderService) suppressionWindow() time.Duration {
	return s.config.Interval - s.config.Interval/24
}
