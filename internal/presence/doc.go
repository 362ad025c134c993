// Package presence keeps the host's background presence alive and visibly
// declared while it is active.
//
// The Manager owns a three-state lifecycle (Stopped, Foreground, Destroying)
// persisted in the state store so a restarted host can resume where it left
// off. Entering Foreground registers the notice channel and posts the
// ongoing notice; leaving it withdraws the notice. Board and store failures
// never block a transition: they are logged and the lifecycle moves on.
//
// Transitions requested through the system-presence channel are handed to
// the manager's Run loop, which also drives the keepalive that re-posts the
// notice if it disappeared.
package presence
