// Package invocation routes named operations arriving on typed channels to
// their implementations.
//
// Each channel is declared as a ChannelSpec: a fixed table of operations with
// typed argument specs, a result kind, and an optional capability. Specs are
// validated when bound, so a malformed table fails at startup instead of at
// the first call. Every bound channel gets its own lane (a FIFO queue drained
// by one goroutine), which keeps results in arrival order per channel while
// different channels run concurrently.
//
// Dispatch always yields exactly one Result. Argument errors, capability
// refusals, operation errors, and panics are absorbed at the operation
// boundary and mapped to the operation's soft result.
package invocation
