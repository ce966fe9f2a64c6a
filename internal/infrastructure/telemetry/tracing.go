package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of the application's own spans
const TracerName = "vendorbill-backend"

// Span attribute keys used by the billing services
const (
	SpanAttrVendorID     = "vendor_id"
	SpanAttrCustomerID   = "customer_id"
	SpanAttrPaymentID    = "payment_id"
	SpanAttrReceivableID = "receivable_id"
	SpanAttrKind         = "receivable_kind"
	SpanAttrAmount       = "amount"
	SpanAttrAttempts     = "attempts"
)

// StartSpan starts an internal span named spanName.
// The caller must End the returned span.
//
//	ctx, span := telemetry.StartSpan(ctx, "payment.apply", attribute.String(telemetry.SpanAttrVendorID, id))
//	defer span.End()
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, spanName, opts...)
}

// StartServiceSpan starts a span named {service}.{method}.
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", service, method), attrs...)
}

// RecordError records err on the span and marks the span failed. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddEvent adds a time-stamped annotation to the span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
