package store

import "time"

// CapabilityRecord is the persisted state of one capability.
type CapabilityRecord struct {
	Name      string
	State     string
	UpdatedAt time.Time
}

// AuthorizationRequest records one prompt issued for a capability.
type AuthorizationRequest struct {
	ID          string
	Capability  string
	RequestedAt time.Time
	ResolvedAt  *time.Time
	Outcome     string
}

// Pending reports whether the request still awaits an outcome.
func (r AuthorizationRequest) Pending() bool {
	return r.ResolvedAt == nil
}

// NoticeChannel is a registered notification channel descriptor.
type NoticeChannel struct {
	ID           string
	Name         string
	Description  string
	Importance   string
	ShowBadge    bool
	RegisteredAt time.Time
}

// ActiveNotice is a notice currently shown on the board.
type ActiveNotice struct {
	ID          int
	ChannelID   string
	Title       string
	Body        string
	Priority    string
	Ongoing     bool
	Dismissible bool
	PostedAt    time.Time
}

// PresenceRecord is the persisted presence lifecycle state.
type PresenceRecord struct {
	State         string
	UpdatedAt     time.Time
	LastHeartbeat *time.Time
}
