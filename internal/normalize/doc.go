// Package normalize maps raw regulations.gov payloads into the canonical
// CommentPeriod shape. It is pure: no I/O, no clock. Unknown upstream
// fields are ignored for forward compatibility; a record missing its
// document identifier or comment end date is rejected with
// ErrMalformedRecord because every downstream invariant keys off those
// two fields.
package normalize
