package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BillingMetrics tracks receivable numbering and payment allocation.
// A nil *BillingMetrics is valid and records nothing.
type BillingMetrics struct {
	logger *zap.Logger

	receivablesCreated  *Counter
	paymentsApplied     *Counter
	paymentAmount       *FloatCounter
	allocationConflicts *Counter
	allocationRetries   *Histogram
	remindersCreated    *Counter
	outstanding         *Gauge
}

// BillingMetricsConfig holds configuration for billing metrics.
type BillingMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewBillingMetrics creates the billing instruments on the given meter.
func NewBillingMetrics(cfg BillingMetricsConfig) (*BillingMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BillingMetrics{logger: logger}
	var err error

	if bm.receivablesCreated, err = NewCounter(cfg.Meter,
		"vb_receivables_created_total", "Total number of bills and challans created", "{receivables}",
	); err != nil {
		return nil, err
	}
	if bm.paymentsApplied, err = NewCounter(cfg.Meter,
		"vb_payments_applied_total", "Total number of payments recorded", "{payments}",
	); err != nil {
		return nil, err
	}
	if bm.paymentAmount, err = NewFloatCounter(cfg.Meter,
		"vb_payment_amount_total", "Total amount of recorded payments", "{currency}",
	); err != nil {
		return nil, err
	}
	if bm.allocationConflicts, err = NewCounter(cfg.Meter,
		"vb_allocation_conflicts_total", "Total number of allocation attempts that hit a concurrent update", "{conflicts}",
	); err != nil {
		return nil, err
	}
	if bm.allocationRetries, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "vb_allocation_attempts",
		Description: "Attempts needed to commit a payment allocation",
		Unit:        "{attempts}",
		Boundaries:  []float64{1, 2, 3, 4, 5},
	}); err != nil {
		return nil, err
	}
	if bm.remindersCreated, err = NewCounter(cfg.Meter,
		"vb_payment_reminders_total", "Total number of payment reminders created", "{reminders}",
	); err != nil {
		return nil, err
	}
	if bm.outstanding, err = NewGauge(cfg.Meter,
		"vb_receivables_outstanding", "Outstanding receivables seen by the last reminder scan", "{receivables}",
	); err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordReceivableCreated records a numbered receivable.
func (bm *BillingMetrics) RecordReceivableCreated(ctx context.Context, kind string) {
	if bm == nil {
		return
	}
	bm.receivablesCreated.Inc(ctx, AttrReceivableKind.String(kind))
}

// RecordPaymentApplied records a committed payment and how many attempts it took.
func (bm *BillingMetrics) RecordPaymentApplied(ctx context.Context, paymentType, method string, amount decimal.Decimal, attempts int) {
	if bm == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrPaymentType.String(paymentType),
		AttrPaymentMethod.String(method),
	}
	bm.paymentsApplied.Inc(ctx, attrs...)
	bm.paymentAmount.Add(ctx, amount.InexactFloat64(), attrs...)
	bm.allocationRetries.Record(ctx, float64(attempts))
}

// RecordAllocationConflict records an allocation attempt that lost a race.
func (bm *BillingMetrics) RecordAllocationConflict(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.allocationConflicts.Inc(ctx)
}

// RecordReminders records a finished reminder scan.
func (bm *BillingMetrics) RecordReminders(ctx context.Context, scanned, created int) {
	if bm == nil {
		return
	}
	bm.outstanding.Record(ctx, int64(scanned))
	if created > 0 {
		bm.remindersCreated.Add(ctx, int64(created))
	}
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBillingMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
