package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMessaging(); err != nil {
		return err
	}
	if err := c.validatePresence(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateDispatch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateMessaging() error {
	if strings.TrimSpace(c.Messaging.CapabilityID) == "" {
		return errors.New("messaging.capability_id must be set")
	}
	if c.Messaging.GatewayURL != "" {
		if err := validateHTTPURL("messaging.gateway_url", c.Messaging.GatewayURL); err != nil {
			return err
		}
	}
	if c.Messaging.RequestTimeout <= 0 {
		return errors.New("messaging.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validatePresence() error {
	if c.Presence.ChannelID == "" {
		return errors.New("presence.channel_id must be set")
	}
	if c.Presence.NoticeID <= 0 {
		return errors.New("presence.notice_id must be positive")
	}
	if c.Presence.KeepaliveInterval < minKeepaliveIntervalSeconds {
		return fmt.Errorf("presence.keepalive_interval must be at least %d seconds", minKeepaliveIntervalSeconds)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		if c.Notifications.PresenceMirror {
			return fmt.Errorf("notifications.ntfy_topic must be set when notifications.presence_mirror is true (or set %s)", ntfyTopicEnv)
		}
		return nil
	}
	return validateHTTPURL("notifications.ntfy_topic", topic)
}

func (c *Config) validateAPI() error {
	if c.API.Bind == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.API.Bind); err != nil {
		return fmt.Errorf("api.bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateDispatch() error {
	if c.Dispatch.LaneBuffer <= 0 || c.Dispatch.LaneBuffer > maxDispatchLaneBuffer {
		return fmt.Errorf("dispatch.lane_buffer must be between 1 and %d", maxDispatchLaneBuffer)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not recognized (use debug, info, warn, or error)", c.Logging.Level)
	}
}

func validateHTTPURL(key, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL", key)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", key)
	}
	return nil
}
