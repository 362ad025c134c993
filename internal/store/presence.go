package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PresenceStopped is reported when no presence state has been persisted yet.
const PresenceStopped = "stopped"

// Presence returns the persisted presence record. A fresh database reports
// PresenceStopped.
func (s *Store) Presence(ctx context.Context) (PresenceRecord, error) {
	var (
		rec       PresenceRecord
		updated   string
		heartbeat sql.NullString
	)
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT state, updated_at, last_heartbeat FROM presence WHERE id = 1`,
	).Scan(&rec.State, &updated, &heartbeat)
	if errors.Is(err, sql.ErrNoRows) {
		return PresenceRecord{State: PresenceStopped}, nil
	}
	if err != nil {
		return PresenceRecord{}, fmt.Errorf("read presence: %w", err)
	}
	rec.UpdatedAt = parseTime(updated)
	rec.LastHeartbeat = parseNullableTime(heartbeat)
	return rec, nil
}

// SetPresenceState persists the presence lifecycle state.
func (s *Store) SetPresenceState(ctx context.Context, state string) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO presence (id, state, updated_at) VALUES (1, ?, ?)
         ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		state, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("set presence state: %w", err)
	}
	return nil
}

// RecordPresenceHeartbeat stamps the keepalive time on the presence record.
func (s *Store) RecordPresenceHeartbeat(ctx context.Context, at time.Time) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE presence SET last_heartbeat = ? WHERE id = 1`, formatTime(at))
	if err != nil {
		return fmt.Errorf("record presence heartbeat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("record presence heartbeat: presence state not initialized")
	}
	return nil
}
