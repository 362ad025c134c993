// Package notifications mirrors host events to ntfy.
//
// The default implementation publishes to the ntfy topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set.
// Presence notices and authorization prompts are gated separately so an
// operator can receive permission prompts without mirroring the ongoing
// presence notice.
//
// Callers depend only on the Service interface; mirror failures are reported
// to the caller but never change host state.
package notifications
