// Package logging assembles structured slog loggers and formatting helpers used
// across safora.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so dispatcher and presence code
// can tag log lines with channel names, operation names, and correlation IDs.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same field names.
package logging
