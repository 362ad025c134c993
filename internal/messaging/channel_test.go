package messaging_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"safora/internal/capability"
	"safora/internal/invocation"
	"safora/internal/logging"
	"safora/internal/messaging"
	"safora/internal/services"
)

type recordingTransmitter struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (r *recordingTransmitter) SendMultipart(_ context.Context, _ string, parts []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, parts)
	return r.err
}

func (r *recordingTransmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type stubGate struct {
	mu       sync.Mutex
	state    capability.State
	requests int
}

func (g *stubGate) EnsureGranted(context.Context, string) capability.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != capability.Granted {
		g.requests++
	}
	return g.state
}

func TestSendMultipartMessage(t *testing.T) {
	tests := []struct {
		name     string
		dest     string
		body     string
		txErr    error
		want     bool
		wantErr  error
		wantSent int
	}{
		{name: "sent", dest: "+15550100", body: "hello", want: true, wantSent: 1},
		{name: "blank destination", dest: " ", body: "hello", wantErr: services.ErrValidation},
		{name: "blank body", dest: "+15550100", body: "\n", wantErr: services.ErrValidation},
		{name: "gateway failure", dest: "+15550100", body: "hello", txErr: errors.New("timeout"), wantErr: services.ErrTransmission, wantSent: 1},
		{name: "no gateway", dest: "+15550100", body: "hello", txErr: services.ErrUnavailable, wantErr: services.ErrUnavailable, wantSent: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &recordingTransmitter{err: tt.txErr}
			sender := messaging.NewSender(tx, logging.NewNop())

			got, err := sender.SendMultipartMessage(context.Background(), tt.dest, tt.body)
			if got != tt.want {
				t.Fatalf("result = %v, want %v", got, tt.want)
			}
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tx.count() != tt.wantSent {
				t.Fatalf("transmitter called %d times, want %d", tx.count(), tt.wantSent)
			}
		})
	}
}

func TestMessagingChannelThroughDispatcher(t *testing.T) {
	tests := []struct {
		name         string
		state        capability.State
		args         map[string]any
		want         bool
		wantSent     int
		wantRequests int
	}{
		{name: "granted", state: capability.Granted, args: map[string]any{"destination": "+15550100", "body": "hi"}, want: true, wantSent: 1},
		{name: "blank destination", state: capability.Granted, args: map[string]any{"destination": "", "body": "hello"}},
		{name: "blank body skips gate", state: capability.Denied, args: map[string]any{"destination": "+15550100", "body": " "}},
		{name: "denied", state: capability.Denied, args: map[string]any{"destination": "+15550100", "body": "hi"}, wantRequests: 1},
		{name: "unknown", state: capability.Unknown, args: map[string]any{"destination": "+15550100", "body": "hi"}, wantRequests: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &recordingTransmitter{}
			gate := &stubGate{state: tt.state}
			spec := messaging.Channel(messaging.NewSender(tx, logging.NewNop()), "")
			d, err := invocation.NewDispatcher(gate, logging.NewNop(), []invocation.ChannelSpec{spec})
			if err != nil {
				t.Fatalf("NewDispatcher: %v", err)
			}
			defer d.Close()

			res := d.Dispatch(context.Background(), messaging.ChannelID, invocation.NewInvocation(messaging.OperationSend, tt.args))
			if res.Outcome != invocation.OutcomeSuccess || res.Value != tt.want {
				t.Fatalf("unexpected result %+v", res)
			}
			if tx.count() != tt.wantSent {
				t.Fatalf("transmitter called %d times, want %d", tx.count(), tt.wantSent)
			}
			if gate.requests != tt.wantRequests {
				t.Fatalf("authorization requests = %d, want %d", gate.requests, tt.wantRequests)
			}
		})
	}
}

func TestMessagingChannelUnknownOperation(t *testing.T) {
	spec := messaging.Channel(messaging.NewSender(&recordingTransmitter{}, logging.NewNop()), "send_sms")
	d, err := invocation.NewDispatcher(&stubGate{state: capability.Granted}, logging.NewNop(), []invocation.ChannelSpec{spec})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	defer d.Close()

	res := d.Dispatch(context.Background(), messaging.ChannelID, invocation.NewInvocation("sendSms", nil))
	if res.Outcome != invocation.OutcomeNotImplemented {
		t.Fatalf("expected not implemented, got %+v", res)
	}
}
