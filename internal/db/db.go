// Package db is the local SQLite store. It emulates the sheet (data and config
// tabs) for demo and offline use, and keeps small UI preferences.
package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// DB wraps the SQLite handle.
type DB struct {
	sql *sql.DB
	log *slog.Logger
}

// DefaultPath is the database file used when none is configured.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "brain", "brain.db"), nil
}

// Open opens (creating if needed) the database at path and applies the
// schema. An empty path means DefaultPath.
func Open(path string, log *slog.Logger) (*DB, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		path,
	)
	h, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer; positions are renumbered inside transactions
	h.SetMaxOpenConns(1)

	if err := migrate(h); err != nil {
		_ = h.Close()
		return nil, err
	}
	log.Debug("db: opened", "path", path)
	return &DB{sql: h, log: log}, nil
}

// Close closes the handle.
func (d *DB) Close() error { return d.sql.Close() }

func migrate(h *sql.DB) error {
	b, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	if _, err := h.Exec(string(b)); err != nil {
		return errors.Join(fmt.Errorf("schema apply failed"), err)
	}
	return nil
}
