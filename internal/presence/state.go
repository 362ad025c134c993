package presence

import (
	"fmt"
	"time"

	"safora/internal/config"
	"safora/internal/notices"
)

// State is a presence lifecycle state. Values match what the store persists.
type State string

const (
	Stopped    State = "stopped"
	Foreground State = "foreground"
	Destroying State = "destroying"
)

// ParseState converts a persisted value back into a State.
func ParseState(value string) (State, error) {
	switch State(value) {
	case Stopped, Foreground, Destroying:
		return State(value), nil
	case "":
		return Stopped, nil
	default:
		return Stopped, fmt.Errorf("unknown presence state %q", value)
	}
}

// Transition describes one lifecycle change.
type Transition struct {
	From   State
	To     State
	Reason string
	At     time.Time
}

// Settings are the descriptor, notice, and keepalive cadence the manager
// uses.
type Settings struct {
	Descriptor        notices.Descriptor
	Notice            notices.Notice
	KeepaliveInterval time.Duration
}

// SettingsFromConfig builds Settings from the presence config block.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	return Settings{
		Descriptor: notices.Descriptor{
			ID:          cfg.Presence.ChannelID,
			Name:        cfg.Presence.ChannelName,
			Description: cfg.Presence.ChannelDescription,
			Importance:  notices.ImportanceLow,
			ShowBadge:   false,
		},
		Notice: notices.Notice{
			ID:          cfg.Presence.NoticeID,
			ChannelID:   cfg.Presence.ChannelID,
			Title:       cfg.Presence.NoticeTitle,
			Text:        cfg.Presence.NoticeText,
			Priority:    notices.PriorityLow,
			Ongoing:     true,
			Dismissible: false,
		},
		KeepaliveInterval: cfg.KeepaliveInterval(),
	}
}
