package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/catalog"
)

// EnsureConfigSheet is a no-op: the table is created with the schema.
func (d *DB) EnsureConfigSheet(ctx context.Context) error { return nil }

// FetchConfig returns the config lines in order.
func (d *DB) FetchConfig(ctx context.Context) ([]catalog.Item, error) {
	rs, err := d.sql.QueryContext(ctx, `SELECT position, type, value, meta FROM config_items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("local config: %w", err)
	}
	defer rs.Close()

	var out []catalog.Item
	for rs.Next() {
		var it catalog.Item
		if err := rs.Scan(&it.Position, &it.Type, &it.Value, &it.Meta); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rs.Err()
}

// AppendConfig adds a config line.
func (d *DB) AppendConfig(ctx context.Context, it catalog.Item) error {
	if it.Type == "" || it.Value == "" {
		return apperr.Validationf("config item needs a type and a value")
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO config_items (position, type, value, meta)
		 VALUES ((SELECT COALESCE(MAX(position), 1) + 1 FROM config_items), ?, ?, ?)`,
		it.Type, it.Value, it.Meta)
	if err != nil {
		return fmt.Errorf("local config append: %w", err)
	}
	return nil
}

// DeleteConfig removes the first line matching typ and value.
func (d *DB) DeleteConfig(ctx context.Context, typ, value string) error {
	var pos int
	err := d.sql.QueryRowContext(ctx,
		`SELECT position FROM config_items WHERE lower(type) = lower(?) AND value = ? ORDER BY position LIMIT 1`,
		typ, strings.TrimSpace(value)).Scan(&pos)
	if err != nil {
		if isNoRows(err) {
			return nil
		}
		return err
	}
	return d.deleteLine(ctx, "config_items", pos)
}
