package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"safora/internal/logging"
	"safora/internal/notices"
	"safora/internal/store"
)

const subscriberBuffer = 16

// StateStore persists the lifecycle state. *store.Store implements it.
type StateStore interface {
	Presence(ctx context.Context) (store.PresenceRecord, error)
	SetPresenceState(ctx context.Context, state string) error
	RecordPresenceHeartbeat(ctx context.Context, at time.Time) error
}

type request struct {
	target State
	reason string
}

// Manager drives the presence lifecycle.
type Manager struct {
	board    notices.Board
	states   StateStore
	settings Settings
	logger   *slog.Logger

	// transition serializes every lifecycle change and keepalive pass.
	transition sync.Mutex

	stateMu sync.RWMutex
	state   State

	subMu sync.Mutex
	subs  map[chan Transition]struct{}

	// pending holds the latest handed-off target; wake nudges Run.
	pendingMu sync.Mutex
	pending   *request
	wake      chan struct{}
}

// NewManager builds a manager in the Stopped state. Call Resume to pick up
// a persisted state.
func NewManager(board notices.Board, states StateStore, settings Settings, logger *slog.Logger) *Manager {
	if settings.KeepaliveInterval <= 0 {
		settings.KeepaliveInterval = 30 * time.Second
	}
	return &Manager{
		board:    board,
		states:   states,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "presence"),
		state:    Stopped,
		subs:     make(map[chan Transition]struct{}),
		wake:     make(chan struct{}, 1),
	}
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

// Settings returns the descriptor and notice the manager posts.
func (m *Manager) Settings() Settings {
	return m.settings
}

// Start enters Foreground. Starting while already in Foreground re-posts the
// notice and changes nothing else.
func (m *Manager) Start(ctx context.Context) {
	m.transition.Lock()
	defer m.transition.Unlock()
	m.enterForeground(ctx, "start")
}

// Stop leaves Foreground through Destroying. It is a no-op when not in
// Foreground.
func (m *Manager) Stop(ctx context.Context) {
	m.transition.Lock()
	defer m.transition.Unlock()
	if m.State() != Foreground {
		m.logger.Debug("presence stop ignored", logging.String("state", string(m.State())))
		return
	}
	m.teardown(ctx, "stop")
}

// Resume restores the persisted lifecycle after a restart. A persisted
// Foreground is re-entered, an interrupted teardown is finished, and a stale
// notice left behind in Stopped is withdrawn. Hand-offs the previous Run
// loop never applied are discarded.
func (m *Manager) Resume(ctx context.Context) State {
	m.transition.Lock()
	defer m.transition.Unlock()
	m.takePending()

	persisted := Stopped
	rec, err := m.states.Presence(ctx)
	if err != nil {
		logging.WarnWithContext(m.logger, "persisted presence unreadable; assuming stopped", "presence_resume_failed",
			logging.Error(err),
			logging.Hint("check the state database"),
			logging.Impact("presence not restored"),
		)
	} else if persisted, err = ParseState(rec.State); err != nil {
		logging.WarnWithContext(m.logger, "persisted presence invalid; assuming stopped", "presence_resume_failed",
			logging.Error(err),
			logging.Impact("presence not restored"),
		)
	}

	m.logger.Info("resuming presence",
		logging.String("persisted_state", string(persisted)),
		logging.String(logging.FieldEventType, "presence_resume"),
	)
	switch persisted {
	case Foreground:
		m.enterForeground(ctx, "resume")
	case Destroying:
		m.setState(ctx, Destroying, "resume")
		m.withdrawNotice(ctx)
		m.setState(ctx, Stopped, "resume")
	default:
		m.withdrawNotice(ctx)
	}
	return m.State()
}

// Keepalive re-posts the notice if it vanished and records a heartbeat.
// Outside Foreground it does nothing.
func (m *Manager) Keepalive(ctx context.Context) {
	m.transition.Lock()
	defer m.transition.Unlock()
	if m.State() != Foreground {
		return
	}

	active, err := m.board.Active(ctx)
	if err != nil {
		logging.WarnWithContext(m.logger, "presence notice check failed", "presence_keepalive_failed",
			logging.Error(err),
			logging.Hint("check the state database"),
			logging.Impact("notice may be missing until the next keepalive"),
		)
	} else if !containsNotice(active, m.settings.Notice.ID) {
		logging.WarnWithContext(m.logger, "presence notice missing; re-posting", "presence_notice_restored",
			logging.Int("notice_id", m.settings.Notice.ID),
			logging.Hint("something withdrew the ongoing notice"),
			logging.Impact("notice re-posted"),
		)
		m.postNotice(ctx)
	}

	if err := m.states.RecordPresenceHeartbeat(ctx, time.Now()); err != nil {
		logging.WarnWithContext(m.logger, "presence heartbeat not recorded", "presence_heartbeat_failed",
			logging.Error(err),
			logging.Hint("check the state database"),
			logging.Impact("heartbeat timestamp is stale"),
		)
	}
}

func (m *Manager) enterForeground(ctx context.Context, reason string) {
	if _, err := m.board.RegisterChannel(ctx, m.settings.Descriptor); err != nil {
		logging.WarnWithContext(m.logger, "notice channel registration failed", "presence_channel_failed",
			logging.String("channel_id", m.settings.Descriptor.ID),
			logging.Error(err),
			logging.Hint("check the state database"),
			logging.Impact("presence continues without a registered channel"),
		)
	}
	m.postNotice(ctx)
	m.setState(ctx, Foreground, reason)
}

func (m *Manager) teardown(ctx context.Context, reason string) {
	m.setState(ctx, Destroying, reason)
	m.withdrawNotice(ctx)
	m.setState(ctx, Stopped, reason)
}

func (m *Manager) postNotice(ctx context.Context) {
	if err := m.board.Post(ctx, m.settings.Notice); err != nil {
		logging.WarnWithContext(m.logger, "presence notice not posted", "presence_notice_failed",
			logging.Int("notice_id", m.settings.Notice.ID),
			logging.Error(err),
			logging.Hint("check the state database"),
			logging.Impact("presence is active without a visible notice"),
		)
	}
}

func (m *Manager) withdrawNotice(ctx context.Context) {
	removed, err := m.board.Withdraw(ctx, m.settings.Notice.ID)
	if err != nil {
		logging.WarnWithContext(m.logger, "presence notice not withdrawn", "presence_notice_failed",
			logging.Int("notice_id", m.settings.Notice.ID),
			logging.Error(err),
			logging.Hint("check the state database"),
			logging.Impact("a stale notice may remain visible"),
		)
		return
	}
	if removed {
		m.logger.Debug("presence notice withdrawn", logging.Int("notice_id", m.settings.Notice.ID))
	}
}

func (m *Manager) setState(ctx context.Context, next State, reason string) {
	m.stateMu.Lock()
	prev := m.state
	m.state = next
	m.stateMu.Unlock()

	if err := m.states.SetPresenceState(ctx, string(next)); err != nil {
		logging.WarnWithContext(m.logger, "presence state not persisted", "presence_persist_failed",
			logging.String("state", string(next)),
			logging.Error(err),
			logging.Hint("check the state database"),
			logging.Impact("a restart may not restore presence"),
		)
	}
	if prev == next {
		return
	}
	m.logger.Info("presence transition",
		logging.String("from", string(prev)),
		logging.String("to", string(next)),
		logging.String("reason", reason),
		logging.String(logging.FieldEventType, "presence_transition"),
	)
	m.publish(Transition{From: prev, To: next, Reason: reason, At: time.Now()})
}

func containsNotice(active []notices.Notice, id int) bool {
	for _, n := range active {
		if n.ID == id {
			return true
		}
	}
	return false
}
