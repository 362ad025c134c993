package presence

// Settled reports whether every hand-off has been applied.
func (m *Manager) Settled() bool {
	m.transition.Lock()
	defer m.transition.Unlock()
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	return m.pending == nil
}
