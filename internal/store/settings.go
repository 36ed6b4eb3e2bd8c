package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// KeyLastResetDate holds the local calendar date (YYYY-MM-DD) of the most
// recent daily reset.
const KeyLastResetDate = "last_reset_date"

// KeyDefaultLanguage holds the household language for users without one.
const KeyDefaultLanguage = "default_language"

type SettingsStore struct {
	db DBTX
}

func NewSettingsStore(db DBTX) *SettingsStore {
	return &SettingsStore{db: db}
}

// Lookup returns the value for key and whether it was set.
func (s *SettingsStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, dbTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}
