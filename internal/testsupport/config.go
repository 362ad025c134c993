package testsupport

import (
	"path/filepath"
	"testing"

	"safora/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SocketPath = filepath.Join(base, "state", "safora.sock")
	cfgVal.Presence.KeepaliveInterval = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithGateway points the messaging transmitter at url.
func WithGateway(url, token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Messaging.GatewayURL = url
		b.cfg.Messaging.GatewayToken = token
	}
}

// WithNtfyTopic enables the ntfy mirror against topic.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithoutChannelGrouping models a platform without notice channels.
func WithoutChannelGrouping() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Presence.ChannelGrouping = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
