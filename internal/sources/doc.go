// Package sources holds the HTTP clients for the upstream systems
// regwatch ingests from: the regulations.gov v4 API (primary source of
// comment periods) and the Federal Register v1 API (cross-reference
// enrichment).
//
// Both clients retry transient failures with exponential backoff
// (base 1s, max 10s, up to 4 attempts), honoring Retry-After on 429.
// Client errors other than 408/429 are never retried; a 404 from the
// Federal Register maps to ErrNotFound so callers can treat a missing
// cross-reference as absence rather than failure.
package sources
