// Package preflight provides readiness checks for the filesystem paths and
// remote services that safora depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll when it starts and logs every failure so a
//     misconfigured gateway shows up before the first message is sent.
//   - The daemon status RPC embeds the same results so "safora status" can
//     display service health.
//
// Remote checks only run when the corresponding service is configured.
package preflight
