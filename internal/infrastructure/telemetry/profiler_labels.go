package telemetry

import (
	"context"
	"maps"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Constants for profiling labels.
const (
	// ProfilingLabelController is the label key for the handler name.
	ProfilingLabelController = "controller"
	// ProfilingLabelRoute is the label key for the route pattern.
	ProfilingLabelRoute = "route"
	// ProfilingLabelMethod is the label key for the HTTP method.
	ProfilingLabelMethod = "method"
	// ProfilingLabelVendorID is the label key for the vendor ID.
	ProfilingLabelVendorID = "vendor_id"
	// ProfilingLabelOperation is the label key for the operation name.
	ProfilingLabelOperation = "operation"
	// ProfilingLabelDomain is the label key for the business domain.
	ProfilingLabelDomain = "domain"
)

// Billing operations profiled by the application layer.
const (
	OperationApplyPayment     = "apply_payment"
	OperationIssueNumber      = "issue_number"
	OperationLedgerSummary    = "ledger_summary"
	OperationReminderScan     = "reminder_scan"
	OperationOutboxProcessing = "outbox_processing"
)

// MaxLabelValueLength is the maximum allowed length for label values
// to prevent high cardinality and memory issues.
const MaxLabelValueLength = 128

// HighCardinalityLabels contains label keys that are dropped from profiling labels.
//
// WARNING: Do not modify this map at runtime.
//
// Note: vendor_id is NOT in this list. For deployments with many thousands of
// vendors, pass an empty vendor ID to BillingOperationLabels instead.
var HighCardinalityLabels = map[string]bool{
	"request_id":    true,
	"payment_id":    true,
	"receivable_id": true,
	"customer_id":   true,
	"trace_id":      true,
	"span_id":       true,
}

// WithProfilingLabels wraps a function with profiling labels for Pyroscope.
//
// Example usage:
//
//	telemetry.WithProfilingLabels(ctx, telemetry.BillingOperationLabels(
//	    telemetry.OperationApplyPayment, vendorID.String(),
//	), func(c context.Context) {
//	    result, err = s.applyOnce(c, vendorID, req)
//	})
//
// The labels map is copied internally.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	labelPairs := sanitizeLabels(maps.Clone(labels))
	if len(labelPairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(labelPairs...), fn)
}

// sanitizeLabels drops empty and high-cardinality labels, truncates long values
// and returns the pairs in key order.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		if key == "" || value == "" || HighCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		sanitizedKey := sanitizeLabelKey(key)
		if sanitizedKey == "" {
			continue
		}
		pairs = append(pairs, sanitizedKey, value)
	}
	return pairs
}

// sanitizeLabelKey ensures label keys follow the snake_case convention.
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")

	result := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			result = append(result, c)
		}
	}
	return string(result)
}

// HTTPRequestLabels creates the labels used by the request profiling middleware.
func HTTPRequestLabels(controller, route, method, vendorID string) map[string]string {
	labels := make(map[string]string, 4)
	if controller != "" {
		labels[ProfilingLabelController] = controller
	}
	if route != "" {
		labels[ProfilingLabelRoute] = route
	}
	if method != "" {
		labels[ProfilingLabelMethod] = method
	}
	if vendorID != "" {
		labels[ProfilingLabelVendorID] = vendorID
	}
	return labels
}

// BillingOperationLabels creates labels for a billing operation.
// An empty vendorID omits the vendor label.
func BillingOperationLabels(operation, vendorID string) map[string]string {
	labels := map[string]string{
		ProfilingLabelDomain:    "billing",
		ProfilingLabelOperation: operation,
	}
	if vendorID != "" {
		labels[ProfilingLabelVendorID] = vendorID
	}
	return labels
}
