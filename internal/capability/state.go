package capability

import (
	"fmt"
	"strings"
	"time"
)

// State is the last known authorization state of a capability.
type State int

const (
	Unknown State = iota
	Denied
	Granted
)

func (s State) String() string {
	switch s {
	case Denied:
		return "denied"
	case Granted:
		return "granted"
	default:
		return "unknown"
	}
}

// ParseState converts a persisted state name.
func ParseState(value string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "unknown":
		return Unknown, nil
	case "denied":
		return Denied, nil
	case "granted":
		return Granted, nil
	default:
		return Unknown, fmt.Errorf("unknown capability state %q", value)
	}
}

// Event reports a capability state change.
type Event struct {
	Capability string
	State      State
	At         time.Time
}
