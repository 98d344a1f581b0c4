package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Setting keys used by the rest of the program.
const (
	// SettingLastSyncAt is the wall-clock finish time of the most recent
	// successful sync, stored by the daemon for its status line.
	SettingLastSyncAt = "last_sync_at"
)

// GetSetting returns the stored value for key, or "" when the key has never
// been set.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.queryOne(ctx, `SELECT value FROM settings WHERE key = ?`, []any{key}, func(row *sql.Row) error {
		return row.Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a key-value pair, overwriting any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.execute(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("storing setting %q: %w", key, err)
	}
	return nil
}
