package config

const (
	defaultStateDir              = "~/.local/share/safora"
	defaultLogDir                = "~/.local/share/safora/logs"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	defaultGatewayTimeout        = 15
	defaultNtfyRequestTimeout    = 10
	defaultPresenceChannelID     = "stealth_channel"
	defaultPresenceChannelName   = "Background Utilities"
	defaultPresenceChannelDesc   = "Keeps utility tools active"
	defaultPresenceNoticeID      = 2112
	defaultPresenceNoticeTitle   = "Calculator tools active"
	defaultPresenceNoticeText    = "Background utility service running"
	defaultPresenceKeepalive     = 30
	defaultDispatchLaneBuffer    = 32
	defaultMessagingCapabilityID = "send_sms"
	gatewayTokenEnv              = "SAFORA_GATEWAY_TOKEN"
	ntfyTopicEnv                 = "SAFORA_NTFY_TOPIC"
	apiTokenEnv                  = "SAFORA_API_TOKEN"
	socketFileName               = "safora.sock"
	databaseFileName             = "safora.db"
	lockFileName                 = "safora.lock"
	pidFileName                  = "safora.pid"
	defaultConfigLocation        = "~/.config/safora/config.toml"
	projectConfigName            = "safora.toml"
	minKeepaliveIntervalSeconds  = 5
	maxDispatchLaneBuffer        = 4096
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Messaging: Messaging{
			CapabilityID:   defaultMessagingCapabilityID,
			RequestTimeout: defaultGatewayTimeout,
		},
		Presence: Presence{
			ChannelID:          defaultPresenceChannelID,
			ChannelName:        defaultPresenceChannelName,
			ChannelDescription: defaultPresenceChannelDesc,
			ChannelGrouping:    true,
			NoticeID:           defaultPresenceNoticeID,
			NoticeTitle:        defaultPresenceNoticeTitle,
			NoticeText:         defaultPresenceNoticeText,
			KeepaliveInterval:  defaultPresenceKeepalive,
		},
		Notifications: Notifications{
			RequestTimeout:       defaultNtfyRequestTimeout,
			AuthorizationPrompts: true,
			PresenceMirror:       false,
		},
		Dispatch: Dispatch{
			LaneBuffer: defaultDispatchLaneBuffer,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
