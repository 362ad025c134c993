package daemonctl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"safora/internal/testsupport"
)

func TestReadPID(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		write   bool
		want    int
	}{
		{name: "missing file", want: 0},
		{name: "valid pid", content: "4242\n", write: true, want: 4242},
		{name: "garbage", content: "not-a-pid", write: true, want: 0},
		{name: "negative", content: "-5", write: true, want: 0},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "pid", string(rune('a'+i)))
			if tt.write {
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			got, err := ReadPID(path)
			if err != nil {
				t.Fatalf("ReadPID: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ReadPID = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProcessAlive(t *testing.T) {
	if !ProcessAlive(os.Getpid()) {
		t.Fatal("current process should be alive")
	}
	if ProcessAlive(0) || ProcessAlive(-1) {
		t.Fatal("non-positive pids are never alive")
	}
}

func TestForceKillRefusesSelf(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "safora.pid")
	if _, err := ForceKillProcess(pidPath, "", os.Getpid()); err == nil {
		t.Fatal("expected refusal to kill current process")
	}
	if _, err := ForceKillProcess(pidPath, "", 0); err == nil {
		t.Fatal("expected error without a pid")
	}
}

func TestStopAndTerminateWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := StopAndTerminate(cfg.Paths.SocketPath, cfg, time.Second)
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestWaitForShutdownWithoutSocket(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := WaitForShutdown(cfg.Paths.SocketPath, time.Second); err != nil {
		t.Fatalf("expected immediate success, got %v", err)
	}
}

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SetCapability(t, st, "send_sms", "granted")
	if err := st.SetPresenceState(context.Background(), "foreground"); err != nil {
		t.Fatalf("SetPresenceState: %v", err)
	}

	status, err := BuildStatusSnapshot(context.Background(), cfg.Paths.SocketPath, cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if status.Running {
		t.Fatal("offline snapshot must not report running")
	}
	if status.Presence.State != "foreground" {
		t.Fatalf("expected persisted presence, got %+v", status.Presence)
	}
	if len(status.Capabilities) != 1 || status.Capabilities[0].State != "granted" {
		t.Fatalf("unexpected capabilities %+v", status.Capabilities)
	}
	if len(status.Checks) == 0 {
		t.Fatal("expected readiness checks")
	}
}
