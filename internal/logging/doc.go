// Package logging builds the slog loggers used across regwatch and
// re-exports the attribute helpers so call sites avoid importing log/slog
// directly. Console output is human oriented; JSON output is for collectors.
package logging
