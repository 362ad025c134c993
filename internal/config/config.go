package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and socket configuration.
type Paths struct {
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
	SocketPath string `toml:"socket_path"`
}

// Messaging contains configuration for the multipart message transmitter.
type Messaging struct {
	GatewayURL     string `toml:"gateway_url"`
	GatewayToken   string `toml:"gateway_token"`
	SenderID       string `toml:"sender_id"`
	CapabilityID   string `toml:"capability_id"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Presence contains the notification-channel descriptor and ongoing notice
// declared while the background presence is active.
type Presence struct {
	ChannelID          string `toml:"channel_id"`
	ChannelName        string `toml:"channel_name"`
	ChannelDescription string `toml:"channel_description"`
	ChannelGrouping    bool   `toml:"channel_grouping"`
	NoticeID           int    `toml:"notice_id"`
	NoticeTitle        string `toml:"notice_title"`
	NoticeText         string `toml:"notice_text"`
	KeepaliveInterval  int    `toml:"keepalive_interval"`
}

// Notifications contains configuration for the ntfy mirror.
type Notifications struct {
	NtfyTopic            string `toml:"ntfy_topic"`
	RequestTimeout       int    `toml:"request_timeout"`
	AuthorizationPrompts bool   `toml:"authorization_prompts"`
	PresenceMirror       bool   `toml:"presence_mirror"`
}

// API contains the optional HTTP API listener used by UI-layer callers.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Dispatch contains invocation dispatcher tuning.
type Dispatch struct {
	LaneBuffer int `toml:"lane_buffer"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for safora.
//
// Configuration sections by subsystem:
//   - Paths: state directory, log directory, and IPC socket
//   - Messaging: SMS gateway used by sendMultipartMessage
//   - Presence: notice channel descriptor and ongoing notice text
//   - Notifications: ntfy mirror for notices and authorization prompts
//   - API: optional HTTP listener and bearer token
//   - Dispatch: per-channel lane sizing
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Messaging     Messaging     `toml:"messaging"`
	Presence      Presence      `toml:"presence"`
	Notifications Notifications `toml:"notifications"`
	API           API           `toml:"api"`
	Dispatch      Dispatch      `toml:"dispatch"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigLocation)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigLocation)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Paths.SocketPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create socket directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite state database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, databaseFileName)
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, lockFileName)
}

// PIDPath returns the daemon pid file location.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, pidFileName)
}

// GatewayTimeout returns the SMS gateway request timeout.
func (c *Config) GatewayTimeout() time.Duration {
	return secondsOr(c.Messaging.RequestTimeout, defaultGatewayTimeout)
}

// NtfyTimeout returns the ntfy request timeout.
func (c *Config) NtfyTimeout() time.Duration {
	return secondsOr(c.Notifications.RequestTimeout, defaultNtfyRequestTimeout)
}

// KeepaliveInterval returns how often the presence keepalive re-checks the notice.
func (c *Config) KeepaliveInterval() time.Duration {
	return secondsOr(c.Presence.KeepaliveInterval, defaultPresenceKeepalive)
}

func secondsOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// DefaultSocketPath returns the socket path derived from the default state directory.
func DefaultSocketPath() string {
	dir, err := expandPath(defaultStateDir)
	if err != nil {
		return filepath.Join(os.TempDir(), socketFileName)
	}
	return filepath.Join(dir, socketFileName)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
