package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"safora/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndUsesEnv(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SAFORA_GATEWAY_TOKEN", "  env-token ")
	t.Setenv("SAFORA_NTFY_TOPIC", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "safora")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.SocketPath != filepath.Join(wantState, "safora.sock") {
		t.Fatalf("unexpected socket path: %q", cfg.Paths.SocketPath)
	}
	if cfg.DatabasePath() != filepath.Join(wantState, "safora.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Messaging.GatewayToken != "env-token" {
		t.Fatalf("expected gateway token from env, got %q", cfg.Messaging.GatewayToken)
	}
	if cfg.Messaging.CapabilityID != "send_sms" {
		t.Fatalf("unexpected capability id: %q", cfg.Messaging.CapabilityID)
	}
	if cfg.Presence.ChannelID != "stealth_channel" || cfg.Presence.NoticeID != 2112 {
		t.Fatalf("unexpected presence defaults: %+v", cfg.Presence)
	}
	if !cfg.Presence.ChannelGrouping {
		t.Fatal("expected channel grouping enabled by default")
	}
	if cfg.Notifications.PresenceMirror {
		t.Fatal("expected presence mirror disabled by default")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	configPath := filepath.Join(tempDir, "safora.toml")

	type payload struct {
		Paths struct {
			StateDir string `toml:"state_dir"`
		} `toml:"paths"`
		Messaging struct {
			GatewayURL   string `toml:"gateway_url"`
			GatewayToken string `toml:"gateway_token"`
		} `toml:"messaging"`
		Presence struct {
			NoticeTitle       string `toml:"notice_title"`
			KeepaliveInterval int    `toml:"keepalive_interval"`
		} `toml:"presence"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.StateDir = "~/state"
	custom.Messaging.GatewayURL = "https://sms.example.com/api/"
	custom.Messaging.GatewayToken = "file-token"
	custom.Presence.NoticeTitle = "  Tools  "
	custom.Presence.KeepaliveInterval = 10
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.StateDir != filepath.Join(tempDir, "state") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if cfg.Paths.LogDir == "" {
		t.Fatal("expected log dir to be populated")
	}
	if cfg.Messaging.GatewayURL != "https://sms.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Messaging.GatewayURL)
	}
	if cfg.Messaging.GatewayToken != "file-token" {
		t.Fatalf("unexpected gateway token: %q", cfg.Messaging.GatewayToken)
	}
	if cfg.Presence.NoticeTitle != "Tools" {
		t.Fatalf("unexpected notice title: %q", cfg.Presence.NoticeTitle)
	}
	if cfg.KeepaliveInterval().Seconds() != 10 {
		t.Fatalf("unexpected keepalive interval: %v", cfg.KeepaliveInterval())
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	configPath := filepath.Join(tempDir, "safora.toml")
	if err := os.WriteFile(configPath, []byte("[presence]\nbogus = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestCreateSample(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	path := filepath.Join(tempDir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	content := string(data)
	for _, section := range []string{"[paths]", "[messaging]", "[presence]", "[notifications]", "[dispatch]", "[logging]"} {
		if !strings.Contains(content, section) {
			t.Fatalf("expected sample config to contain %s", section)
		}
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Presence.NoticeID != config.Default().Presence.NoticeID {
		t.Fatalf("sample config should keep defaults, got notice id %d", cfg.Presence.NoticeID)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "missing channel id",
			mutate:  func(c *config.Config) { c.Presence.ChannelID = "" },
			wantErr: "presence.channel_id",
		},
		{
			name:    "non-positive notice id",
			mutate:  func(c *config.Config) { c.Presence.NoticeID = 0 },
			wantErr: "presence.notice_id",
		},
		{
			name:    "keepalive too short",
			mutate:  func(c *config.Config) { c.Presence.KeepaliveInterval = 1 },
			wantErr: "presence.keepalive_interval",
		},
		{
			name:    "gateway url without scheme",
			mutate:  func(c *config.Config) { c.Messaging.GatewayURL = "sms.example.com" },
			wantErr: "messaging.gateway_url",
		},
		{
			name:    "mirror without topic",
			mutate:  func(c *config.Config) { c.Notifications.PresenceMirror = true },
			wantErr: "notifications.ntfy_topic",
		},
		{
			name:    "api bind without port",
			mutate:  func(c *config.Config) { c.API.Bind = "localhost" },
			wantErr: "api.bind",
		},
		{
			name:    "lane buffer out of range",
			mutate:  func(c *config.Config) { c.Dispatch.LaneBuffer = 0 },
			wantErr: "dispatch.lane_buffer",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *config.Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
