package db

import (
	"context"
	"database/sql"
	"errors"
)

// Preference keys.
const (
	PrefViewMode = "view_mode"
	PrefSortKey  = "sort_key"
)

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

// Pref returns the stored value of key.
func (d *DB) Pref(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := d.sql.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, key).Scan(&v)
	if isNoRows(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// SetPref stores value under key.
func (d *DB) SetPref(ctx context.Context, key, value string) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	return err
}
