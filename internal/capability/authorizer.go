package capability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"safora/internal/logging"
	"safora/internal/notifications"
	"safora/internal/store"
)

// Authorizer is the permission subsystem the gate delegates to.
type Authorizer interface {
	// Status reports the current state without side effects.
	Status(ctx context.Context, capability string) (State, error)
	// RequestAuthorization records a request and prompts the user. It must
	// not wait for the user's answer.
	RequestAuthorization(ctx context.Context, capability string) (string, error)
	// Subscribe streams state changes until the returned cancel func runs.
	Subscribe() (<-chan Event, func())
}

// StoreAuthorizer persists capability state and requests in the host store
// and prompts through the notification mirror.
type StoreAuthorizer struct {
	store    *store.Store
	notifier notifications.Service
	logger   *slog.Logger
	events   *broadcaster
	prompts  sync.WaitGroup
	now      func() time.Time
}

// NewStoreAuthorizer builds an authorizer. A nil notifier disables prompts.
func NewStoreAuthorizer(st *store.Store, notifier notifications.Service, logger *slog.Logger) *StoreAuthorizer {
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &StoreAuthorizer{
		store:    st,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "authorizer"),
		events:   newBroadcaster(),
		now:      time.Now,
	}
}

func (a *StoreAuthorizer) Status(ctx context.Context, capability string) (State, error) {
	raw, ok, err := a.store.CapabilityState(ctx, capability)
	if err != nil {
		return Unknown, err
	}
	if !ok {
		return Unknown, nil
	}
	return ParseState(raw)
}

func (a *StoreAuthorizer) RequestAuthorization(ctx context.Context, capability string) (string, error) {
	id := uuid.NewString()
	if err := a.store.InsertAuthorizationRequest(ctx, id, capability, a.now()); err != nil {
		return "", fmt.Errorf("record authorization request: %w", err)
	}
	a.logger.Info("authorization requested",
		logging.String(logging.FieldCapability, capability),
		logging.String("request_id", id),
		logging.String(logging.FieldEventType, "authorization_requested"),
	)

	promptCtx := context.WithoutCancel(ctx)
	a.prompts.Add(1)
	go func() {
		defer a.prompts.Done()
		err := a.notifier.Publish(promptCtx, notifications.EventAuthorizationRequested, notifications.Payload{
			"capability": capability,
			"request_id": id,
		})
		if err != nil {
			logging.WarnWithContext(a.logger, "authorization prompt not delivered", "authorization_prompt_failed",
				logging.String(logging.FieldCapability, capability),
				logging.Error(err),
				logging.Hint("check notifications.ntfy_topic"),
				logging.Impact("request stays pending until resolved from the CLI"),
			)
		}
	}()
	return id, nil
}

// Resolve records the user's answer for capability. This is the callback path
// of the permission dialog: it persists the outcome, closes pending requests,
// and notifies subscribers.
func (a *StoreAuthorizer) Resolve(ctx context.Context, capability string, granted bool) (Event, error) {
	state := Denied
	if granted {
		state = Granted
	}
	if err := a.store.SetCapabilityState(ctx, capability, state.String()); err != nil {
		return Event{}, err
	}
	at := a.now()
	resolved, err := a.store.ResolveAuthorizationRequests(ctx, capability, state.String(), at)
	if err != nil {
		return Event{}, err
	}

	evt := Event{Capability: capability, State: state, At: at}
	a.events.publish(evt)
	a.logger.Info("authorization resolved",
		logging.String(logging.FieldCapability, capability),
		logging.String("state", state.String()),
		logging.Int64("resolved_requests", resolved),
		logging.String(logging.FieldEventType, "authorization_resolved"),
	)
	if err := a.notifier.Publish(ctx, notifications.EventAuthorizationResolved, notifications.Payload{
		"capability": capability,
		"state":      state.String(),
	}); err != nil {
		a.logger.Debug("authorization resolution not mirrored", logging.Error(err))
	}
	return evt, nil
}

// Requests lists authorization requests for capability, newest first.
func (a *StoreAuthorizer) Requests(ctx context.Context, capability string, limit int) ([]store.AuthorizationRequest, error) {
	return a.store.AuthorizationRequests(ctx, capability, limit)
}

func (a *StoreAuthorizer) Subscribe() (<-chan Event, func()) {
	return a.events.subscribe()
}

// Close waits for in-flight prompts to finish.
func (a *StoreAuthorizer) Close() {
	a.prompts.Wait()
}
