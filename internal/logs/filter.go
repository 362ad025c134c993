package logs

import (
	"encoding/json"
	"log/slog"
	"strings"

	"safora/internal/logging"
)

// Filter selects JSON log records. Zero-valued fields match everything.
type Filter struct {
	Component     string
	Channel       string
	CorrelationID string
	// MinLevel drops records below the named level ("debug", "info", "warn", "error").
	MinLevel string
	// Search is a case-insensitive substring match on the raw line.
	Search string
}

func (f Filter) empty() bool {
	return strings.TrimSpace(f.Component) == "" &&
		strings.TrimSpace(f.Channel) == "" &&
		strings.TrimSpace(f.CorrelationID) == "" &&
		strings.TrimSpace(f.MinLevel) == "" &&
		strings.TrimSpace(f.Search) == ""
}

// Match reports whether line passes the filter. Lines that are not JSON
// records only pass filters that consist of Search alone.
func (f Filter) Match(line string) bool {
	if f.empty() {
		return true
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		if !strings.Contains(strings.ToLower(line), strings.ToLower(search)) {
			return false
		}
	}
	if f.structuredEmpty() {
		return true
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return false
	}
	if !fieldMatches(record, logging.FieldComponent, f.Component) ||
		!fieldMatches(record, logging.FieldChannel, f.Channel) ||
		!fieldMatches(record, logging.FieldCorrelationID, f.CorrelationID) {
		return false
	}
	if level := strings.TrimSpace(f.MinLevel); level != "" {
		raw, _ := record[slog.LevelKey].(string)
		if logging.ParseLevel(raw) < logging.ParseLevel(level) {
			return false
		}
	}
	return true
}

func (f Filter) structuredEmpty() bool {
	return strings.TrimSpace(f.Component) == "" &&
		strings.TrimSpace(f.Channel) == "" &&
		strings.TrimSpace(f.CorrelationID) == "" &&
		strings.TrimSpace(f.MinLevel) == ""
}

func fieldMatches(record map[string]any, key, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	got, _ := record[key].(string)
	return strings.EqualFold(got, want)
}
