package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent and valid for every dialect. Append new
// migrations at the end.
var migrations = []string{
	// Migration 1: expiring slots (revoked tokens) are swept by expires_at.
	`CREATE INDEX IF NOT EXISTS idx_kv_expires_at ON kv(expires_at)`,
}

func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
