// Package store persists comment periods and delivery receipts in SQLite.
//
// It owns the two correctness-critical operations: Upsert, which is
// idempotent and keyed by document identifier, and RecordDelivery, which
// appends to a uniquely-constrained receipt log. The UNIQUE(document_id,
// stage) constraint is the authoritative at-most-once guard; the boolean
// delivery view on CommentPeriod is derived from receipt existence and can
// therefore never move backwards.
package store
