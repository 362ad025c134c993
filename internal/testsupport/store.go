package testsupport

import (
	"context"
	"testing"

	"safora/internal/config"
	"safora/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SetCapability records a capability state for tests.
func SetCapability(t testing.TB, st *store.Store, name, state string) {
	t.Helper()

	if err := st.SetCapabilityState(context.Background(), name, state); err != nil {
		t.Fatalf("store.SetCapabilityState: %v", err)
	}
}
