// Package notices models the host's notification registry: notice channels
// declared once per identifier and the set of notices currently shown.
//
// Registry persists both in the state store and mirrors posts and
// withdrawals through the notification service. Mirror failures are logged
// and never fail the board operation.
package notices
