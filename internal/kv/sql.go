package kv

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/lostfound/internal/db"
)

// SQL is a Store over the kv table of a SQLite or Postgres database.
type SQL struct {
	db      *sql.DB
	dialect db.Dialect
}

// NewSQL wraps an open database whose schema has been ensured.
func NewSQL(database *sql.DB, dialect db.Dialect) *SQL {
	return &SQL{db: database, dialect: dialect}
}

// bind rewrites '?' placeholders to '$n' for Postgres.
func (s *SQL) bind(query string) string {
	if s.dialect != db.Postgres {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		s.bind(`SELECT value FROM kv WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`),
		key, time.Now().Unix(),
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", key, err)
	}
	return value, nil
}

func (s *SQL) Put(ctx context.Context, key string, value []byte) error {
	return s.put(ctx, key, value, nil)
}

// PutIfAbsent inserts value unless a live row exists, then reads back the
// winner. An expired row is replaced.
func (s *SQL) PutIfAbsent(ctx context.Context, key string, value []byte) ([]byte, error) {
	_, err := s.db.ExecContext(ctx,
		s.bind(`INSERT INTO kv (key, value, expires_at, updated_at) VALUES (?, ?, NULL, CURRENT_TIMESTAMP)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = NULL,
		 updated_at = CURRENT_TIMESTAMP
		 WHERE kv.expires_at IS NOT NULL AND kv.expires_at <= ?`),
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting %s: %w", key, err)
	}
	return s.Get(ctx, key)
}

func (s *SQL) PutWithExpiry(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	exp := expiresAt.Unix()
	if err := s.put(ctx, key, value, &exp); err != nil {
		return err
	}

	// Opportunistically clean up expired slots.
	_, _ = s.db.ExecContext(ctx,
		s.bind(`DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at < ?`), time.Now().Unix(),
	)
	return nil
}

// put stores value; expiresAt is a unix timestamp or nil for no expiry.
func (s *SQL) put(ctx context.Context, key string, value []byte, expiresAt *int64) error {
	_, err := s.db.ExecContext(ctx,
		s.bind(`INSERT INTO kv (key, value, expires_at, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at,
		 updated_at = CURRENT_TIMESTAMP`),
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("putting %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM kv WHERE key = ?`), key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}
