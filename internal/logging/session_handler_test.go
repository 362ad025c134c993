package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestWithSessionStampsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := WithSession(slog.New(slog.NewJSONHandler(&buf, nil)), "session-abc").With("extra", "value")
	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, `"session_id":"session-abc"`) {
		t.Errorf("expected session_id in output, got: %s", output)
	}
	if !strings.Contains(output, `"extra":"value"`) {
		t.Errorf("expected extra attr in output, got: %s", output)
	}
}

func TestSessionIDHandlerNilBase(t *testing.T) {
	handler := newSessionIDHandler(nil, "session-123")
	if _, ok := handler.(NoopHandler); !ok {
		t.Errorf("expected NoopHandler when base is nil, got: %T", handler)
	}
}
