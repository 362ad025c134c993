package store

import (
	"context"
	"database/sql"
)

// ForceSchemaVersion rewrites the stored schema version for mismatch tests.
func (s *Store) ForceSchemaVersion(ctx context.Context, version int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE schema_version SET version = ?`, version)
	return err
}

// PragmaPerConn reads pragma from n pooled connections held open together,
// so each read lands on a distinct connection.
func (s *Store) PragmaPerConn(ctx context.Context, pragma string, n int) ([]int64, error) {
	conns := make([]*sql.Conn, 0, n)
	defer func() {
		for _, c := range conns {
			_ = c.Close()
		}
	}()
	values := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		c, err := s.db.Conn(ctx)
		if err != nil {
			return nil, err
		}
		conns = append(conns, c)
		var v int64
		if err := c.QueryRowContext(ctx, "PRAGMA "+pragma).Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
