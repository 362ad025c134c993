package daemon

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"safora/internal/api"
	"safora/internal/capability"
	"safora/internal/logging"
	"safora/internal/preflight"
	"safora/internal/store"
)

const requestHistoryLimit = 50

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	SocketPath   string
	Presence     store.PresenceRecord
	Channels     []string
	Capabilities []api.Capability
	Checks       []preflight.Result
}

// Status returns the current daemon status. Readiness checks run live.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          currentPID(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		SocketPath:   d.cfg.Paths.SocketPath,
		Checks:       preflight.RunAll(ctx, d.cfg),
	}
	for _, id := range d.dispatcher.Bound() {
		status.Channels = append(status.Channels, string(id))
	}

	if rec, err := d.store.Presence(ctx); err == nil {
		status.Presence = rec
	} else {
		d.logger.Warn("presence status unavailable", logging.Error(err))
		status.Presence = store.PresenceRecord{State: "unknown"}
	}

	if caps, err := d.Capabilities(ctx); err == nil {
		status.Capabilities = caps
	} else {
		d.logger.Warn("capability status unavailable", logging.Error(err))
	}
	return status
}

// Payload converts the status into its wire form.
func (s Status) Payload() api.DaemonStatus {
	checks := make([]api.CheckResult, 0, len(s.Checks))
	for _, c := range s.Checks {
		checks = append(checks, api.CheckResult{Name: c.Name, Passed: c.Passed, Detail: c.Detail})
	}
	return api.DaemonStatus{
		Running:      s.Running,
		PID:          s.PID,
		DatabasePath: s.DatabasePath,
		LockFilePath: s.LockFilePath,
		SocketPath:   s.SocketPath,
		Presence:     api.FromPresence(s.Presence),
		Channels:     s.Channels,
		Capabilities: s.Capabilities,
		Checks:       checks,
	}
}

// Capabilities reports every recorded capability plus the messaging
// capability, which is listed as unknown until first requested.
func (d *Daemon) Capabilities(ctx context.Context) ([]api.Capability, error) {
	records, err := d.store.ListCapabilities(ctx)
	if err != nil {
		return nil, err
	}
	configured := d.cfg.Messaging.CapabilityID
	if configured != "" && !slices.ContainsFunc(records, func(r store.CapabilityRecord) bool { return r.Name == configured }) {
		records = append(records, store.CapabilityRecord{Name: configured, State: capability.Unknown.String()})
	}

	out := make([]api.Capability, 0, len(records))
	for _, rec := range records {
		pending, err := d.pendingRequests(ctx, rec.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, api.FromCapabilityRecord(rec, pending))
	}
	return out, nil
}

// Capability reports the state of a single capability without prompting.
func (d *Daemon) Capability(ctx context.Context, name string) (api.Capability, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return api.Capability{}, fmt.Errorf("capability name is required")
	}
	caps, err := d.Capabilities(ctx)
	if err != nil {
		return api.Capability{}, err
	}
	for _, c := range caps {
		if c.Name == name {
			return c, nil
		}
	}
	pending, err := d.pendingRequests(ctx, name)
	if err != nil {
		return api.Capability{}, err
	}
	return api.Capability{Name: name, State: d.gate.Current(ctx, name).String(), PendingRequests: pending}, nil
}

// ResolveAuthorization records the user's answer for a capability and closes
// its pending requests.
func (d *Daemon) ResolveAuthorization(ctx context.Context, name string, granted bool) (api.Capability, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return api.Capability{}, fmt.Errorf("capability name is required")
	}
	if _, err := d.authorizer.Resolve(ctx, name, granted); err != nil {
		return api.Capability{}, err
	}
	return d.Capability(ctx, name)
}

// AuthorizationRequests returns the most recent requests for a capability.
func (d *Daemon) AuthorizationRequests(ctx context.Context, name string) ([]api.AuthorizationRequest, error) {
	list, err := d.authorizer.Requests(ctx, strings.TrimSpace(name), requestHistoryLimit)
	if err != nil {
		return nil, err
	}
	return api.FromAuthorizationRequests(list), nil
}

func (d *Daemon) pendingRequests(ctx context.Context, name string) (int, error) {
	list, err := d.authorizer.Requests(ctx, name, requestHistoryLimit)
	if err != nil {
		return 0, err
	}
	pending := 0
	for _, r := range list {
		if r.Pending() {
			pending++
		}
	}
	return pending, nil
}
