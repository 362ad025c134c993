package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"safora/internal/logging"
)

// RequestStart hands a start to the Run loop and returns immediately. A
// later RequestStop that arrives before the loop picks it up replaces it.
func (m *Manager) RequestStart() {
	m.handOff(request{target: Foreground, reason: "channel"})
}

// RequestStop hands a stop to the Run loop and returns immediately.
func (m *Manager) RequestStop() {
	m.handOff(request{target: Stopped, reason: "channel"})
}

func (m *Manager) handOff(req request) {
	m.pendingMu.Lock()
	m.pending = &req
	m.pendingMu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// takePending clears and returns the latest hand-off, or nil.
func (m *Manager) takePending() *request {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	req := m.pending
	m.pending = nil
	return req
}

// Run applies handed-off requests and drives the keepalive until ctx ends.
// Only one Run loop should be active per manager.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.settings.KeepaliveInterval)
	defer ticker.Stop()

	m.logger.Info("presence loop started",
		logging.Duration("keepalive_interval", m.settings.KeepaliveInterval),
		logging.String(logging.FieldEventType, "presence_loop_started"),
	)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("presence loop stopped", logging.String(logging.FieldEventType, "presence_loop_stopped"))
			return
		case <-m.wake:
			m.applyPending(ctx)
		case <-ticker.C:
			m.Keepalive(ctx)
		}
	}
}

// applyPending takes the hand-off under the transition lock so a Resume
// in between discards it.
func (m *Manager) applyPending(ctx context.Context) {
	m.transition.Lock()
	defer m.transition.Unlock()
	req := m.takePending()
	if req == nil {
		return
	}
	switch req.target {
	case Foreground:
		m.enterForeground(ctx, req.reason)
	case Stopped:
		if m.State() == Foreground {
			m.teardown(ctx, req.reason)
		}
	}
}

// Subscribe streams lifecycle transitions. The returned function releases
// the subscription.
func (m *Manager) Subscribe() (<-chan Transition, func()) {
	ch := make(chan Transition, subscriberBuffer)
	m.subMu.Lock()
	m.subs[ch] = struct{}{}
	m.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, ch)
			m.subMu.Unlock()
			close(ch)
		})
	}
}

func (m *Manager) publish(t Transition) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- t:
		default:
		}
	}
}

// WaitFor blocks until the manager reaches state or ctx ends.
func (m *Manager) WaitFor(ctx context.Context, state State) error {
	events, cancel := m.Subscribe()
	defer cancel()
	if m.State() == state {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for presence %s: %w", state, ctx.Err())
		case t := <-events:
			if t.To == state {
				return nil
			}
		}
	}
}
