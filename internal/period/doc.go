// Package period defines the canonical comment-period record shared by
// ingestion, storage, notification, and the read projections.
//
// A CommentPeriod is keyed by its upstream document identifier, which is
// stable across repeated scrapes. Every other field is replaceable on
// re-ingestion; notification delivery state only ever moves forward.
package period
