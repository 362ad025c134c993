package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"safora/internal/capability"
	"safora/internal/config"
	"safora/internal/invocation"
	"safora/internal/logging"
	"safora/internal/messaging"
	"safora/internal/notices"
	"safora/internal/notifications"
	"safora/internal/preflight"
	"safora/internal/presence"
	"safora/internal/store"
)

// Daemon coordinates the host services and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store

	notifier   notifications.Service
	authorizer *capability.StoreAuthorizer
	gate       *capability.Gate
	board      *notices.Registry
	sender     *messaging.Sender
	presence   *presence.Manager
	dispatcher *invocation.Dispatcher
	api        *apiServer

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	loops   sync.WaitGroup
}

// Option customizes daemon construction.
type Option func(*options)

type options struct {
	transmitter messaging.Transmitter
	notifier    notifications.Service
}

// WithTransmitter replaces the configured SMS gateway transmitter.
func WithTransmitter(tx messaging.Transmitter) Option {
	return func(o *options) { o.transmitter = tx }
}

// WithNotifier replaces the configured ntfy mirror.
func WithNotifier(svc notifications.Service) Option {
	return func(o *options) { o.notifier = svc }
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || st == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.notifier == nil {
		o.notifier = notifications.NewService(cfg)
	}
	if o.transmitter == nil {
		o.transmitter = messaging.NewTransmitter(cfg)
	}

	authorizer := capability.NewStoreAuthorizer(st, o.notifier, logger)
	gate := capability.NewGate(authorizer, logger)

	boardOpts := []notices.Option{notices.WithMirror(o.notifier)}
	if !cfg.Presence.ChannelGrouping {
		boardOpts = append(boardOpts, notices.WithoutGrouping())
	}
	board := notices.NewRegistry(st, logger, boardOpts...)

	dispatcher, err := invocation.NewDispatcher(gate, logger, nil, invocation.WithLaneBuffer(cfg.Dispatch.LaneBuffer))
	if err != nil {
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}

	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      st,
		notifier:   o.notifier,
		authorizer: authorizer,
		gate:       gate,
		board:      board,
		sender:     messaging.NewSender(o.transmitter, logger),
		presence:   presence.NewManager(board, st, presence.SettingsFromConfig(cfg), logger),
		dispatcher: dispatcher,
		lockPath:   cfg.LockPath(),
		lock:       flock.New(cfg.LockPath()),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, resumes presence, and binds the channels.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another safora daemon instance is already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	resumed := d.presence.Resume(loopCtx)

	for _, spec := range d.channelSpecs() {
		if err := d.dispatcher.Bind(spec); err != nil {
			d.unbindAll()
			cancel()
			_ = d.lock.Unlock()
			return fmt.Errorf("bind channel %s: %w", spec.ID, err)
		}
	}

	if err := d.api.start(loopCtx); err != nil {
		d.unbindAll()
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.loops.Add(2)
	go func() {
		defer d.loops.Done()
		d.presence.Run(loopCtx)
	}()
	go func() {
		defer d.loops.Done()
		d.logPreflight(loopCtx)
	}()

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("safora daemon started",
		logging.String("lock", d.lockPath),
		logging.String("presence", string(resumed)),
		logging.Any("channels", d.dispatcher.Bound()),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Stop unbinds the channels and releases the daemon lock. Presence is left in
// its current state so the next Start resumes it.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return
	}

	d.unbindAll()
	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.loops.Wait()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.Hint("remove "+d.lockPath+" if no daemon is running"),
		)
	}
	d.running.Store(false)
	d.logger.Info("safora daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.dispatcher.Close()
	d.authorizer.Close()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the channels are bound.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Invoke dispatches one operation and waits for its single result.
func (d *Daemon) Invoke(ctx context.Context, channel string, inv invocation.Invocation) invocation.Result {
	return d.dispatcher.Dispatch(ctx, invocation.ChannelID(strings.TrimSpace(channel)), inv)
}

// Presence returns the persisted presence lifecycle record.
func (d *Daemon) Presence(ctx context.Context) (store.PresenceRecord, error) {
	return d.store.Presence(ctx)
}

// Notices returns the notices currently on the board.
func (d *Daemon) Notices(ctx context.Context) ([]notices.Notice, error) {
	return d.board.Active(ctx)
}

// TestNotification sends a test event through the ntfy mirror.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LockPath returns the single-instance lock file location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

func (d *Daemon) channelSpecs() []invocation.ChannelSpec {
	return []invocation.ChannelSpec{
		messaging.Channel(d.sender, d.cfg.Messaging.CapabilityID),
		presence.Channel(d.presence),
	}
}

func (d *Daemon) unbindAll() {
	for _, id := range d.dispatcher.Bound() {
		d.dispatcher.Unbind(id)
	}
}

func (d *Daemon) logPreflight(ctx context.Context) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, d.cfg)) {
		if ctx.Err() != nil {
			return
		}
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.Hint("run safora status for service health"),
		)
	}
}

func currentPID() int {
	return os.Getpid()
}
