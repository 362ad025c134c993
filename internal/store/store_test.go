package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"safora/internal/store"
	"safora/internal/testsupport"
)

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if st.Path() != cfg.DatabasePath() {
		t.Fatalf("unexpected path %q", st.Path())
	}
	if err := st.SetCapabilityState(context.Background(), "send_sms", "granted"); err != nil {
		t.Fatalf("SetCapabilityState failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	state, ok, err := reopened.CapabilityState(context.Background(), "send_sms")
	if err != nil || !ok || state != "granted" {
		t.Fatalf("expected persisted state, got %q ok=%v err=%v", state, ok, err)
	}
}

func TestSchemaMismatchIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	st, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	if err := st.ForceSchemaVersion(context.Background(), 99); err != nil {
		t.Fatalf("ForceSchemaVersion failed: %v", err)
	}
	st.Close()

	if _, err := store.OpenPath(path); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestCapabilityStateUnknownWhenMissing(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, ok, err := st.CapabilityState(context.Background(), "send_sms")
	if err != nil {
		t.Fatalf("CapabilityState failed: %v", err)
	}
	if ok {
		t.Fatal("expected no record for unseen capability")
	}
}

func TestAuthorizationRequestsResolve(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now()

	if err := st.InsertAuthorizationRequest(ctx, "req-1", "send_sms", now.Add(-time.Minute)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := st.InsertAuthorizationRequest(ctx, "req-2", "send_sms", now); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := st.InsertAuthorizationRequest(ctx, "req-3", "other", now); err != nil {
		t.Fatalf("insert: %v", err)
	}

	n, err := st.ResolveAuthorizationRequests(ctx, "send_sms", "granted", now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 resolved, got %d", n)
	}
	if n, _ := st.ResolveAuthorizationRequests(ctx, "send_sms", "denied", now); n != 0 {
		t.Fatalf("expected already-resolved requests untouched, got %d", n)
	}

	reqs, err := st.AuthorizationRequests(ctx, "send_sms", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reqs) != 2 || reqs[0].ID != "req-2" {
		t.Fatalf("unexpected requests: %+v", reqs)
	}
	for _, req := range reqs {
		if req.Pending() || req.Outcome != "granted" {
			t.Fatalf("expected resolved request, got %+v", req)
		}
	}

	all, err := st.AuthorizationRequests(ctx, "", 1)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(all))
	}
}

func TestRegisterNoticeChannelIsIdempotent(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	ch := store.NoticeChannel{ID: "stealth_channel", Name: "Background Utilities", Description: "Keeps utility tools active", Importance: "low"}

	created, err := st.RegisterNoticeChannel(ctx, ch)
	if err != nil || !created {
		t.Fatalf("first registration: created=%v err=%v", created, err)
	}
	ch.Name = "Renamed"
	created, err = st.RegisterNoticeChannel(ctx, ch)
	if err != nil {
		t.Fatalf("second registration: %v", err)
	}
	if created {
		t.Fatal("expected re-registration to be a no-op")
	}

	channels, err := st.NoticeChannels(ctx)
	if err != nil {
		t.Fatalf("list channels: %v", err)
	}
	if len(channels) != 1 || channels[0].Name != "Background Utilities" || channels[0].ShowBadge {
		t.Fatalf("unexpected channels: %+v", channels)
	}
}

func TestNoticeUpsertAndDelete(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	n := store.ActiveNotice{ID: 2112, ChannelID: "stealth_channel", Title: "first", Body: "body", Priority: "low", Ongoing: true}
	if err := st.UpsertNotice(ctx, n); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	n.Title = "second"
	if err := st.UpsertNotice(ctx, n); err != nil {
		t.Fatalf("upsert replace: %v", err)
	}

	active, err := st.ActiveNotices(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0].Title != "second" || !active[0].Ongoing || active[0].Dismissible {
		t.Fatalf("unexpected active notices: %+v", active)
	}

	removed, err := st.DeleteNotice(ctx, 2112)
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
	removed, err = st.DeleteNotice(ctx, 2112)
	if err != nil || removed {
		t.Fatalf("second delete: removed=%v err=%v", removed, err)
	}
	got, err := st.Notice(ctx, 2112)
	if err != nil || got != nil {
		t.Fatalf("expected notice gone, got %+v err=%v", got, err)
	}
}

func TestPresenceStateRoundTrip(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	rec, err := st.Presence(ctx)
	if err != nil {
		t.Fatalf("presence: %v", err)
	}
	if rec.State != store.PresenceStopped {
		t.Fatalf("expected stopped on fresh db, got %q", rec.State)
	}
	if err := st.RecordPresenceHeartbeat(ctx, time.Now()); err == nil {
		t.Fatal("expected heartbeat to fail before any state is stored")
	}

	if err := st.SetPresenceState(ctx, "foreground"); err != nil {
		t.Fatalf("set state: %v", err)
	}
	beat := time.Now().Add(-time.Second)
	if err := st.RecordPresenceHeartbeat(ctx, beat); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	rec, err = st.Presence(ctx)
	if err != nil {
		t.Fatalf("presence: %v", err)
	}
	if rec.State != "foreground" || rec.LastHeartbeat == nil || !rec.LastHeartbeat.Equal(beat.UTC()) {
		t.Fatalf("unexpected presence record: %+v", rec)
	}
}

func TestPragmasApplyToEveryConnection(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	timeouts, err := st.PragmaPerConn(ctx, "busy_timeout", 3)
	if err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	for i, v := range timeouts {
		if v != 5000 {
			t.Fatalf("connection %d busy_timeout = %d, want 5000", i, v)
		}
	}

	keys, err := st.PragmaPerConn(ctx, "foreign_keys", 3)
	if err != nil {
		t.Fatalf("foreign_keys: %v", err)
	}
	for i, v := range keys {
		if v != 1 {
			t.Fatalf("connection %d foreign_keys = %d, want 1", i, v)
		}
	}
}
