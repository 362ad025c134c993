package notices

import (
	"context"
	"time"
)

// Importance is the interruption level of a notice channel.
type Importance string

const (
	ImportanceMin     Importance = "min"
	ImportanceLow     Importance = "low"
	ImportanceDefault Importance = "default"
	ImportanceHigh    Importance = "high"
)

// Priority is the display priority of an individual notice.
type Priority string

const (
	PriorityMin     Priority = "min"
	PriorityLow     Priority = "low"
	PriorityDefault Priority = "default"
	PriorityHigh    Priority = "high"
)

// Descriptor declares a notice channel.
type Descriptor struct {
	ID          string
	Name        string
	Description string
	Importance  Importance
	ShowBadge   bool
}

// Notice is one entry on the board.
type Notice struct {
	ID          int
	ChannelID   string
	Title       string
	Text        string
	Priority    Priority
	Ongoing     bool
	Dismissible bool
	PostedAt    time.Time
}

// Board is the notification registry the presence manager talks to.
type Board interface {
	// RegisterChannel declares d. It reports whether the channel was newly
	// created; re-registering an existing identifier is a no-op.
	RegisterChannel(ctx context.Context, d Descriptor) (bool, error)
	// Post shows n, replacing any notice with the same id.
	Post(ctx context.Context, n Notice) error
	// Withdraw removes the notice with id and reports whether it was shown.
	Withdraw(ctx context.Context, id int) (bool, error)
	// Active lists the notices currently shown.
	Active(ctx context.Context) ([]Notice, error)
}
