package ipc

import "safora/internal/api"

// ServiceName is the RPC receiver name registered on the socket.
const ServiceName = "Safora"

// StartRequest binds the host channels.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest unbinds the host channels.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse wraps the daemon status payload.
type StatusResponse struct {
	Status api.DaemonStatus `json:"status"`
}

// InvokeRequest dispatches one channel operation.
type InvokeRequest = api.InvokeRequest

// InvokeResponse carries the single result of an invocation.
type InvokeResponse = api.InvokeResponse

// PresenceRequest fetches the presence lifecycle record.
type PresenceRequest struct{}

// PresenceResponse carries the presence lifecycle record.
type PresenceResponse struct {
	Presence api.Presence `json:"presence"`
}

// NoticesRequest lists the active notices.
type NoticesRequest struct{}

// NoticesResponse wraps the active notices.
type NoticesResponse = api.NoticeListResponse

// CapabilitiesRequest lists every known capability.
type CapabilitiesRequest struct{}

// CapabilitiesResponse wraps the capability list.
type CapabilitiesResponse struct {
	Capabilities []api.Capability `json:"capabilities"`
}

// CapabilityRequest names a single capability.
type CapabilityRequest struct {
	Name string `json:"name"`
}

// CapabilityResponse reports a single capability.
type CapabilityResponse struct {
	Capability api.Capability `json:"capability"`
}

// ResolveRequest answers the pending authorization for a capability.
type ResolveRequest struct {
	Name    string `json:"name"`
	Granted bool   `json:"granted"`
}

// RequestsResponse lists recent authorization requests.
type RequestsResponse struct {
	Requests []api.AuthorizationRequest `json:"requests"`
}

// TestNotificationRequest triggers an ntfy test event.
type TestNotificationRequest struct{}

// TestNotificationResponse reports whether the test event was sent.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
