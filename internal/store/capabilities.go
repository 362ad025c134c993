package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CapabilityState returns the stored state for name. The boolean is false when
// the capability has never been recorded.
func (s *Store) CapabilityState(ctx context.Context, name string) (string, bool, error) {
	var state string
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT state FROM capabilities WHERE name = ?`, name,
	).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read capability %s: %w", name, err)
	}
	return state, true, nil
}

// SetCapabilityState records the state for name, replacing any previous value.
func (s *Store) SetCapabilityState(ctx context.Context, name, state string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("capability name is required")
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO capabilities (name, state, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		name, state, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("set capability %s: %w", name, err)
	}
	return nil
}

// ListCapabilities returns every recorded capability ordered by name.
func (s *Store) ListCapabilities(ctx context.Context) ([]CapabilityRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT name, state, updated_at FROM capabilities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list capabilities: %w", err)
	}
	defer rows.Close()

	var out []CapabilityRecord
	for rows.Next() {
		var (
			rec     CapabilityRecord
			updated string
		)
		if err := rows.Scan(&rec.Name, &rec.State, &updated); err != nil {
			return nil, fmt.Errorf("scan capability: %w", err)
		}
		rec.UpdatedAt = parseTime(updated)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// InsertAuthorizationRequest records a new pending authorization request.
func (s *Store) InsertAuthorizationRequest(ctx context.Context, id, capability string, at time.Time) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO authorization_requests (id, capability, requested_at) VALUES (?, ?, ?)`,
		id, capability, formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("insert authorization request: %w", err)
	}
	return nil
}

// ResolveAuthorizationRequests marks every pending request for capability with
// outcome and returns how many were updated.
func (s *Store) ResolveAuthorizationRequests(ctx context.Context, capability, outcome string, at time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE authorization_requests SET resolved_at = ?, outcome = ?
         WHERE capability = ? AND resolved_at IS NULL`,
		formatTime(at), outcome, capability,
	)
	if err != nil {
		return 0, fmt.Errorf("resolve authorization requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// AuthorizationRequests lists requests for capability, newest first. An empty
// capability lists all requests. A limit of zero or less returns every row.
func (s *Store) AuthorizationRequests(ctx context.Context, capability string, limit int) ([]AuthorizationRequest, error) {
	query := `SELECT id, capability, requested_at, resolved_at, outcome FROM authorization_requests`
	var args []any
	if capability != "" {
		query += ` WHERE capability = ?`
		args = append(args, capability)
	}
	query += ` ORDER BY requested_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list authorization requests: %w", err)
	}
	defer rows.Close()

	var out []AuthorizationRequest
	for rows.Next() {
		var (
			req       AuthorizationRequest
			requested string
			resolved  sql.NullString
			outcome   sql.NullString
		)
		if err := rows.Scan(&req.ID, &req.Capability, &requested, &resolved, &outcome); err != nil {
			return nil, fmt.Errorf("scan authorization request: %w", err)
		}
		req.RequestedAt = parseTime(requested)
		req.ResolvedAt = parseNullableTime(resolved)
		req.Outcome = outcome.String
		out = append(out, req)
	}
	return out, rows.Err()
}
