// Package ingest runs the pull side of a cycle: fetch open comment
// periods from regulations.gov, normalize them, enrich from the Federal
// Register where a cross-reference exists, classify topics, and upsert
// into the store.
//
// Records are processed in isolation. A malformed or rejected record is
// counted and skipped; it never aborts the batch. Enrichment is strictly
// best-effort: an enrichment failure downgrades the record, it does not
// drop it.
package ingest
