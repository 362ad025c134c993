package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// InvokeRequest asks the host to run one operation on a channel.
type InvokeRequest struct {
	Channel       string         `json:"channel"`
	Operation     string         `json:"operation"`
	Args          map[string]any `json:"args,omitempty"`
	CorrelationID string         `json:"correlationId,omitempty"`
}

// InvokeResponse is the single result of an InvokeRequest.
type InvokeResponse struct {
	Outcome       string `json:"outcome"`
	Value         any    `json:"value"`
	Reason        string `json:"reason,omitempty"`
	CorrelationID string `json:"correlationId"`
}

// Presence summarizes the background presence lifecycle.
type Presence struct {
	State         string `json:"state"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
	LastHeartbeat string `json:"lastHeartbeat,omitempty"`
}

// Capability reports the last known state of a capability.
type Capability struct {
	Name            string `json:"name"`
	State           string `json:"state"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
	PendingRequests int    `json:"pendingRequests"`
}

// AuthorizationRequest is one prompt issued for a capability.
type AuthorizationRequest struct {
	ID          string `json:"id"`
	Capability  string `json:"capability"`
	RequestedAt string `json:"requestedAt,omitempty"`
	ResolvedAt  string `json:"resolvedAt,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
}

// Notice is a notice currently shown on the board.
type Notice struct {
	ID          int    `json:"id"`
	ChannelID   string `json:"channelId"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	Priority    string `json:"priority"`
	Ongoing     bool   `json:"ongoing"`
	Dismissible bool   `json:"dismissible"`
	PostedAt    string `json:"postedAt,omitempty"`
}

// NoticeListResponse wraps the active notices.
type NoticeListResponse struct {
	Notices []Notice `json:"notices"`
}

// CheckResult is one readiness check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates host runtime information for API consumers.
type DaemonStatus struct {
	Running      bool          `json:"running"`
	PID          int           `json:"pid"`
	DatabasePath string        `json:"databasePath"`
	LockFilePath string        `json:"lockFilePath"`
	SocketPath   string        `json:"socketPath"`
	Presence     Presence      `json:"presence"`
	Channels     []string      `json:"channels"`
	Capabilities []Capability  `json:"capabilities"`
	Checks       []CheckResult `json:"checks"`
}
