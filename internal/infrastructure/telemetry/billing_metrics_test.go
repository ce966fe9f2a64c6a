package telemetry

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestBillingMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	ctx := context.Background()

	bm, err := NewBillingMetrics(BillingMetricsConfig{Meter: provider.Meter("test")})
	require.NoError(t, err)

	bm.RecordReceivableCreated(ctx, "bill")
	bm.RecordReceivableCreated(ctx, "challan")
	bm.RecordPaymentApplied(ctx, "credit", "upi", decimal.NewFromFloat(250.5), 2)
	bm.RecordAllocationConflict(ctx)
	bm.RecordReminders(ctx, 12, 3)

	data := collect(t, reader)

	created, ok := data["vb_receivables_created_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, created.DataPoints, 2)

	amount, ok := data["vb_payment_amount_total"].(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, amount.DataPoints, 1)
	assert.InDelta(t, 250.5, amount.DataPoints[0].Value, 0.001)

	attempts, ok := data["vb_allocation_attempts"].(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Equal(t, uint64(1), attempts.DataPoints[0].Count)

	conflicts := data["vb_allocation_conflicts_total"].(metricdata.Sum[int64])
	assert.Equal(t, int64(1), conflicts.DataPoints[0].Value)

	reminders := data["vb_payment_reminders_total"].(metricdata.Sum[int64])
	assert.Equal(t, int64(3), reminders.DataPoints[0].Value)

	outstanding := data["vb_receivables_outstanding"].(metricdata.Gauge[int64])
	assert.Equal(t, int64(12), outstanding.DataPoints[0].Value)
}

func TestBillingMetrics_NilMeter(t *testing.T) {
	_, err := NewBillingMetrics(BillingMetricsConfig{})
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestBillingMetrics_NilReceiver(t *testing.T) {
	var bm *BillingMetrics
	assert.NotPanics(t, func() {
		ctx := context.Background()
		bm.RecordReceivableCreated(ctx, "bill")
		bm.RecordPaymentApplied(ctx, "credit", "cash", decimal.NewFromInt(1), 1)
		bm.RecordAllocationConflict(ctx)
		bm.RecordReminders(ctx, 0, 0)
	})
}
