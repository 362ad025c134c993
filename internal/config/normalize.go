package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMessaging()
	c.normalizePresence()
	c.normalizeNotifications()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = filepath.Join(c.Paths.StateDir, socketFileName)
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv(apiTokenEnv); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeMessaging() {
	c.Messaging.GatewayURL = strings.TrimRight(strings.TrimSpace(c.Messaging.GatewayURL), "/")
	c.Messaging.GatewayToken = strings.TrimSpace(c.Messaging.GatewayToken)
	if c.Messaging.GatewayToken == "" {
		if value, ok := os.LookupEnv(gatewayTokenEnv); ok {
			c.Messaging.GatewayToken = strings.TrimSpace(value)
		}
	}
	c.Messaging.SenderID = strings.TrimSpace(c.Messaging.SenderID)
	c.Messaging.CapabilityID = strings.TrimSpace(c.Messaging.CapabilityID)
	if c.Messaging.CapabilityID == "" {
		c.Messaging.CapabilityID = defaultMessagingCapabilityID
	}
	if c.Messaging.RequestTimeout <= 0 {
		c.Messaging.RequestTimeout = defaultGatewayTimeout
	}
}

func (c *Config) normalizePresence() {
	c.Presence.ChannelID = strings.TrimSpace(c.Presence.ChannelID)
	c.Presence.ChannelName = strings.TrimSpace(c.Presence.ChannelName)
	if c.Presence.ChannelName == "" {
		c.Presence.ChannelName = defaultPresenceChannelName
	}
	c.Presence.ChannelDescription = strings.TrimSpace(c.Presence.ChannelDescription)
	c.Presence.NoticeTitle = strings.TrimSpace(c.Presence.NoticeTitle)
	if c.Presence.NoticeTitle == "" {
		c.Presence.NoticeTitle = defaultPresenceNoticeTitle
	}
	c.Presence.NoticeText = strings.TrimSpace(c.Presence.NoticeText)
	if c.Presence.KeepaliveInterval == 0 {
		c.Presence.KeepaliveInterval = defaultPresenceKeepalive
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv(ntfyTopicEnv); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
