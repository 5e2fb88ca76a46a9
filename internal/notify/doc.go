// Package notify runs the push side of a cycle: for each delivery stage
// it finds the periods due and not yet delivered, renders a post, sends
// it through the configured sink, and records the delivery receipt.
//
// The receipt table's uniqueness constraint is the only dedup mechanism.
// A sink failure leaves the obligation pending for the next cycle; a
// duplicate receipt means a concurrent run already delivered and is
// treated as success. Stages are processed most-urgent first so a period
// entering the tracker late gets its closest deadline notice.
package notify
