package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RegisterNoticeChannel inserts ch unless a channel with the same identifier
// already exists. It reports whether a new row was written.
func (s *Store) RegisterNoticeChannel(ctx context.Context, ch NoticeChannel) (bool, error) {
	registered := ch.RegisteredAt
	if registered.IsZero() {
		registered = time.Now()
	}
	res, err := s.execWithRetry(ctx,
		`INSERT OR IGNORE INTO notice_channels (id, name, description, importance, show_badge, registered_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		ch.ID, ch.Name, ch.Description, ch.Importance, boolToInt(ch.ShowBadge), formatTime(registered),
	)
	if err != nil {
		return false, fmt.Errorf("register notice channel %s: %w", ch.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// NoticeChannels lists registered channels ordered by registration time.
func (s *Store) NoticeChannels(ctx context.Context) ([]NoticeChannel, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, name, description, importance, show_badge, registered_at
         FROM notice_channels ORDER BY registered_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list notice channels: %w", err)
	}
	defer rows.Close()

	var out []NoticeChannel
	for rows.Next() {
		var (
			ch         NoticeChannel
			badge      int
			registered string
		)
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Description, &ch.Importance, &badge, &registered); err != nil {
			return nil, fmt.Errorf("scan notice channel: %w", err)
		}
		ch.ShowBadge = badge != 0
		ch.RegisteredAt = parseTime(registered)
		out = append(out, ch)
	}
	return out, rows.Err()
}

// UpsertNotice stores n as active, replacing any notice with the same id.
func (s *Store) UpsertNotice(ctx context.Context, n ActiveNotice) error {
	posted := n.PostedAt
	if posted.IsZero() {
		posted = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT OR REPLACE INTO active_notices (id, channel_id, title, body, priority, ongoing, dismissible, posted_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.ChannelID, n.Title, n.Body, n.Priority, boolToInt(n.Ongoing), boolToInt(n.Dismissible), formatTime(posted),
	)
	if err != nil {
		return fmt.Errorf("upsert notice %d: %w", n.ID, err)
	}
	return nil
}

// DeleteNotice removes the active notice with id and reports whether one existed.
func (s *Store) DeleteNotice(ctx context.Context, id int) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM active_notices WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete notice %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Notice returns the active notice with id, or nil when none is shown.
func (s *Store) Notice(ctx context.Context, id int) (*ActiveNotice, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT id, channel_id, title, body, priority, ongoing, dismissible, posted_at
         FROM active_notices WHERE id = ?`, id)
	n, err := scanNotice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notice %d: %w", id, err)
	}
	return n, nil
}

// ActiveNotices lists every active notice ordered by id.
func (s *Store) ActiveNotices(ctx context.Context) ([]ActiveNotice, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, channel_id, title, body, priority, ongoing, dismissible, posted_at
         FROM active_notices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active notices: %w", err)
	}
	defer rows.Close()

	var out []ActiveNotice
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func scanNotice(scanner interface{ Scan(dest ...any) error }) (*ActiveNotice, error) {
	var (
		n           ActiveNotice
		ongoing     int
		dismissible int
		posted      string
	)
	if err := scanner.Scan(&n.ID, &n.ChannelID, &n.Title, &n.Body, &n.Priority, &ongoing, &dismissible, &posted); err != nil {
		return nil, err
	}
	n.Ongoing = ongoing != 0
	n.Dismissible = dismissible != 0
	n.PostedAt = parseTime(posted)
	return &n, nil
}
