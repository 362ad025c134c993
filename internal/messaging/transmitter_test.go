package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"safora/internal/config"
	"safora/internal/services"
)

func TestGatewayTransmitterPostsParts(t *testing.T) {
	var got gatewayRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer token-123" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Messaging.GatewayURL = server.URL
	cfg.Messaging.GatewayToken = "token-123"
	cfg.Messaging.SenderID = "safora"

	tx := NewTransmitter(&cfg)
	if _, ok := tx.(*GatewayTransmitter); !ok {
		t.Fatalf("expected *GatewayTransmitter, got %T", tx)
	}
	if err := tx.SendMultipart(context.Background(), "+15550100", []string{"one", "two"}); err != nil {
		t.Fatalf("SendMultipart: %v", err)
	}
	if got.To != "+15550100" || got.From != "safora" {
		t.Fatalf("unexpected addressing %+v", got)
	}
	if len(got.Parts) != 2 || got.Parts[0] != "one" || got.Parts[1] != "two" {
		t.Fatalf("unexpected parts %v", got.Parts)
	}
	if got.Reference == "" {
		t.Fatal("expected a message reference")
	}
}

func TestGatewayTransmitterRejectsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "carrier rejected", http.StatusBadGateway)
	}))
	defer server.Close()

	tx := NewGatewayTransmitter(server.URL, "", "", nil)
	err := tx.SendMultipart(context.Background(), "+15550100", []string{"hi"})
	if !errors.Is(err, services.ErrTransmission) {
		t.Fatalf("expected ErrTransmission, got %v", err)
	}
}

func TestNewTransmitterWithoutGateway(t *testing.T) {
	cfg := config.Default()
	tx := NewTransmitter(&cfg)
	err := tx.SendMultipart(context.Background(), "+15550100", []string{"hi"})
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
