// Package services defines shared utilities consumed by the dispatcher, the
// operation implementations, and the host daemon.
//
// Key responsibilities:
//   - Context helpers that stamp channel names, operation names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     for log fields while the caller-visible result stays a soft failure.
package services
