// Package httpapi serves a small read-only JSON API over the store:
// open comment periods with topic and agency filters, a single-period
// lookup including its delivery receipts, aggregate stats, and a health
// probe. It never writes; all mutation flows through the cycle.
package httpapi
