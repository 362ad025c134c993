package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"safora/internal/config"
	"safora/internal/daemon"
	"safora/internal/ipc"
	"safora/internal/logging"
	"safora/internal/logs"
	"safora/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the safora daemon runtime loop and blocks until SIGINT/SIGTERM
// or cmdCtx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("safora-%s.log", runID))
	logger, closeLog, err := newRunLogger(cfg, opts, logPath)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLog()

	sessionID := uuid.NewString()
	logger = logging.WithSession(logger, sessionID)
	logConfigSnapshot(logger, cfg)

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", logs.PointerName, err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "safora-*.log", Exclude: []string{logPath}},
	)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open state store", "store_open_failed",
			logging.Error(err),
			logging.Hint("check paths.state_dir permissions"),
		)
		return err
	}

	d, err := daemon.New(cfg, st, logger)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logging.WarnWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.Hint("check configuration and state database access"),
			logging.Impact("channels stay unbound until safora start succeeds"),
		)
	}

	<-signalCtx.Done()
	logger.Info("safora daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

// newRunLogger writes the configured console format to stdout and JSON lines
// to the per-run log file.
func newRunLogger(cfg *config.Config, opts Options, logPath string) (*slog.Logger, func(), error) {
	level := strings.TrimSpace(opts.LogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", logPath, err)
	}
	console, err := logging.NewHandler(cfg.Logging.Format, level, os.Stdout)
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	fileHandler, err := logging.NewHandler("json", level, file)
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	logger := slog.New(logging.TeeHandler(console, fileHandler))
	return logger, func() { _ = file.Close() }, nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := logs.CurrentPath(logDir)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("state_dir", cfg.Paths.StateDir),
		logging.String("socket", cfg.Paths.SocketPath),
		logging.Bool("gateway_configured", strings.TrimSpace(cfg.Messaging.GatewayURL) != ""),
		logging.Bool("gateway_token_present", strings.TrimSpace(cfg.Messaging.GatewayToken) != ""),
		logging.String("capability", cfg.Messaging.CapabilityID),
		logging.Bool("ntfy_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.Bool("channel_grouping", cfg.Presence.ChannelGrouping),
		logging.Duration("keepalive_interval", cfg.KeepaliveInterval()),
		logging.String("api_bind", cfg.API.Bind),
		logging.Int("lane_buffer", cfg.Dispatch.LaneBuffer),
	)
}
