package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"safora/internal/config"
)

const userAgent = "safora/0.1.0"

// Event identifies a mirrored host event.
type Event string

const (
	EventNoticePosted           Event = "notice_posted"
	EventNoticeWithdrawn        Event = "notice_withdrawn"
	EventAuthorizationRequested Event = "authorization_requested"
	EventAuthorizationResolved  Event = "authorization_resolved"
	EventTest                   Event = "test"
)

// Payload carries event-specific values.
type Payload map[string]any

// Service publishes host events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	client := resty.New().
		SetTimeout(cfg.NtfyTimeout()).
		SetHeader("User-Agent", userAgent)

	return &ntfyService{
		endpoint:       topic,
		client:         client,
		mirrorPresence: cfg.Notifications.PresenceMirror,
		mirrorPrompts:  cfg.Notifications.AuthorizationPrompts,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *resty.Client
	mirrorPresence bool
	mirrorPrompts  bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if !n.allowed(event) {
		return nil
	}
	msg, ok := buildPayload(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) allowed(event Event) bool {
	switch event {
	case EventNoticePosted, EventNoticeWithdrawn:
		return n.mirrorPresence
	case EventAuthorizationRequested, EventAuthorizationResolved:
		return n.mirrorPrompts
	default:
		return true
	}
}

func buildPayload(event Event, data Payload) (payload, bool) {
	switch event {
	case EventNoticePosted:
		title := strings.TrimSpace(stringValue(data, "title"))
		text := strings.TrimSpace(stringValue(data, "text"))
		return payload{
			title:    title,
			message:  text,
			tags:     []string{"safora", "notice", stringValue(data, "channel")},
			priority: ntfyPriority(stringValue(data, "priority")),
		}, true
	case EventNoticeWithdrawn:
		return payload{
			title:    "safora - Notice Cleared",
			message:  fmt.Sprintf("Notice %v withdrawn", data["id"]),
			tags:     []string{"safora", "notice", "withdrawn"},
			priority: "min",
		}, true
	case EventAuthorizationRequested:
		capability := strings.TrimSpace(stringValue(data, "capability"))
		message := fmt.Sprintf("Permission requested: %s", capability)
		if id := stringValue(data, "request_id"); id != "" {
			message = fmt.Sprintf("%s\nRequest: %s", message, id)
		}
		message += fmt.Sprintf("\nApprove with: safora capability grant %s", capability)
		return payload{
			title:    "safora - Permission Request",
			message:  message,
			tags:     []string{"safora", "permission", capability},
			priority: "high",
		}, true
	case EventAuthorizationResolved:
		capability := strings.TrimSpace(stringValue(data, "capability"))
		return payload{
			title:   "safora - Permission Updated",
			message: fmt.Sprintf("%s is now %s", capability, stringValue(data, "state")),
			tags:    []string{"safora", "permission", "resolved"},
		}, true
	case EventTest:
		return payload{
			title:    "safora - Test",
			message:  "Notification system test",
			tags:     []string{"safora", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain; charset=utf-8").
		SetBody(data.message)
	if data.title != "" {
		req.SetHeader("Title", data.title)
	}
	if tags := compactTags(data.tags); tags != "" {
		req.SetHeader("Tags", tags)
	}
	if data.priority != "" && data.priority != "default" {
		req.SetHeader("Priority", data.priority)
	}

	resp, err := req.Post(n.endpoint)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	if resp.StatusCode() >= 300 {
		body := strings.TrimSpace(string(resp.Body()))
		if len(body) > 2048 {
			body = body[:2048]
		}
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode(), body)
	}
	return nil
}

// ntfyPriority maps notice priorities onto ntfy's priority names.
func ntfyPriority(priority string) string {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case "min":
		return "min"
	case "low":
		return "low"
	case "high":
		return "high"
	case "max", "urgent":
		return "urgent"
	default:
		return ""
	}
}

func compactTags(tags []string) string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return strings.Join(out, ",")
}

func stringValue(data Payload, key string) string {
	if data == nil {
		return ""
	}
	switch v := data[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
