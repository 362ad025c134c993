package capability

import (
	"context"
	"log/slog"

	"safora/internal/logging"
)

// Gate decides whether a sensitive operation may run.
type Gate struct {
	auth   Authorizer
	logger *slog.Logger
}

// NewGate wraps auth.
func NewGate(auth Authorizer, logger *slog.Logger) *Gate {
	return &Gate{auth: auth, logger: logging.NewComponentLogger(logger, "capability")}
}

// EnsureGranted returns Granted when the capability is held. Otherwise it
// issues one authorization request and returns the state it observed; the
// caller must treat anything but Granted as not permitted. Read failures are
// reported as Unknown.
func (g *Gate) EnsureGranted(ctx context.Context, capability string) State {
	logger := logging.WithContext(ctx, g.logger)
	state, err := g.auth.Status(ctx, capability)
	if err != nil {
		logging.WarnWithContext(logger, "capability state unreadable; treating as unknown", "capability_read_failed",
			logging.String(logging.FieldCapability, capability),
			logging.Error(err),
			logging.Hint("check the state database"),
			logging.Impact("operation refused"),
		)
		state = Unknown
	}
	if state == Granted {
		return Granted
	}

	if _, err := g.auth.RequestAuthorization(ctx, capability); err != nil {
		logging.WarnWithContext(logger, "authorization request not recorded", "authorization_request_failed",
			logging.String(logging.FieldCapability, capability),
			logging.Error(err),
			logging.Impact("user was not prompted"),
		)
	}
	logger.Info("capability not granted",
		logging.String(logging.FieldCapability, capability),
		logging.String("state", state.String()),
		logging.String(logging.FieldEventType, "capability_denied"),
	)
	return state
}

// Current reports the last known state without issuing a request.
func (g *Gate) Current(ctx context.Context, capability string) State {
	state, err := g.auth.Status(ctx, capability)
	if err != nil {
		return Unknown
	}
	return state
}

// Subscribe streams capability state changes.
func (g *Gate) Subscribe() (<-chan Event, func()) {
	return g.auth.Subscribe()
}
