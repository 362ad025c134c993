package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"safora/internal/invocation"
	"safora/internal/notices"
	"safora/internal/store"
)

// FromResult converts a dispatcher result to its wire form.
func FromResult(res invocation.Result, correlationID string) InvokeResponse {
	return InvokeResponse{
		Outcome:       res.Outcome.String(),
		Value:         res.Value,
		Reason:        res.Reason,
		CorrelationID: correlationID,
	}
}

// ToResult converts a wire response back into a Result. Unknown outcomes
// become failures.
func ToResult(resp InvokeResponse) invocation.Result {
	outcome, err := invocation.ParseOutcome(resp.Outcome)
	if err != nil {
		return invocation.Failure(err.Error())
	}
	switch outcome {
	case invocation.OutcomeSuccess:
		return invocation.Success(resp.Value)
	case invocation.OutcomeNotImplemented:
		return invocation.NotImplemented()
	default:
		return invocation.Failure(resp.Reason)
	}
}

// ToInvocation builds the invocation described by req. A caller-supplied
// correlation id is kept; otherwise a new one is generated.
func ToInvocation(req InvokeRequest) invocation.Invocation {
	inv := invocation.NewInvocation(req.Operation, req.Args)
	if id := strings.TrimSpace(req.CorrelationID); id != "" {
		inv.CorrelationID = id
	}
	return inv
}

// FromNotice converts a board notice.
func FromNotice(n notices.Notice) Notice {
	return Notice{
		ID:          n.ID,
		ChannelID:   n.ChannelID,
		Title:       n.Title,
		Text:        n.Text,
		Priority:    string(n.Priority),
		Ongoing:     n.Ongoing,
		Dismissible: n.Dismissible,
		PostedAt:    formatTime(n.PostedAt),
	}
}

// FromNotices converts a slice of board notices.
func FromNotices(list []notices.Notice) []Notice {
	out := make([]Notice, 0, len(list))
	for _, n := range list {
		out = append(out, FromNotice(n))
	}
	return out
}

// FromPresence converts the persisted presence record.
func FromPresence(rec store.PresenceRecord) Presence {
	p := Presence{State: rec.State, UpdatedAt: formatTime(rec.UpdatedAt)}
	if rec.LastHeartbeat != nil {
		p.LastHeartbeat = formatTime(*rec.LastHeartbeat)
	}
	return p
}

// FromCapabilityRecord converts a persisted capability with its pending
// request count.
func FromCapabilityRecord(rec store.CapabilityRecord, pending int) Capability {
	return Capability{
		Name:            rec.Name,
		State:           rec.State,
		UpdatedAt:       formatTime(rec.UpdatedAt),
		PendingRequests: pending,
	}
}

// FromAuthorizationRequests converts request history records.
func FromAuthorizationRequests(list []store.AuthorizationRequest) []AuthorizationRequest {
	out := make([]AuthorizationRequest, 0, len(list))
	for _, r := range list {
		dto := AuthorizationRequest{
			ID:          r.ID,
			Capability:  r.Capability,
			RequestedAt: formatTime(r.RequestedAt),
			Outcome:     r.Outcome,
		}
		if r.ResolvedAt != nil {
			dto.ResolvedAt = formatTime(*r.ResolvedAt)
		}
		out = append(out, dto)
	}
	return out
}

// ParseArgs turns command-line pairs into invocation arguments. key=value
// always yields a string; key:=value decodes value as JSON, so key:=true,
// key:=3, and key:=null produce a bool, a number, and nil.
func ParseArgs(pairs []string) (map[string]any, error) {
	args := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("argument %q must be key=value or key:=json", pair)
		}
		raw := strings.HasSuffix(key, ":")
		key = strings.TrimSpace(strings.TrimSuffix(key, ":"))
		if key == "" {
			return nil, fmt.Errorf("argument %q has an empty key", pair)
		}
		if !raw {
			args[key] = value
			continue
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			return nil, fmt.Errorf("argument %s: decode json value: %w", key, err)
		}
		switch decoded.(type) {
		case nil, bool, float64, string:
			args[key] = decoded
		default:
			return nil, fmt.Errorf("argument %s must be a string, number, bool, or null", key)
		}
	}
	return args, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
