// Package classify assigns fixed topics to comment periods by keyword and
// agency matching. The rule table ships embedded as YAML; classification is
// pure and deterministic, and the adapter only ever adds topics to a period
// (monotonic merge, mirroring the notification ratchet).
package classify
