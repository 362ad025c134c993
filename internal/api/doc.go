// Package api defines wire-format types and converters shared by the IPC and
// HTTP API layers. It translates invocation results, notices, capability
// records, and presence state into transport-friendly DTOs that UI-layer
// callers can consume without importing internal packages.
//
// # Key Types
//
// InvokeRequest/InvokeResponse: one channel invocation and its single
// result. Outcomes are the lowercase strings "success", "not_implemented",
// and "failure".
//
// DaemonStatus: host running state, presence, bound channels, capability
// states, and readiness checks.
//
// Notice, Capability, AuthorizationRequest: read models for the notice board
// and the permission subsystem.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers.
// Timestamps use RFC3339 with milliseconds in UTC and are omitted when zero.
package api
