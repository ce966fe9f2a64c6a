// Package billing contains the vendor billing domain: receivables (bills and
// challans), the per-vendor invoice numbering sequence, payments with their
// allocations, and in-app notifications.
//
// Money is carried as decimal.Decimal and rounded to the minor currency unit
// (two places) at every boundary. A receivable's pending amount and status are
// always derived from its total and paid amounts; they are never set directly.
package billing
