// Package capability guards sensitive operations behind user-granted
// capabilities.
//
// Gate is consulted by the invocation dispatcher before any operation that
// declares a capability. It re-reads the current state on every call, returns
// immediately when the capability is granted, and otherwise issues exactly one
// authorization request without waiting for the user. Outcomes arrive later
// through the authorizer's Resolve path and are published to subscribers.
package capability
