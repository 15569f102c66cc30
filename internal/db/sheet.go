package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/row"
)

// columns in sheet order (A..O).
var columns = []string{
	"sr_no", "title", "created_at", "updated_at", "category", "sub_category",
	"original", "rewritten", "action_items", "due_date", "task_status",
	"links", "media_url", "tags", "message_id",
}

var (
	columnList   = strings.Join(columns, ", ")
	placeholders = strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
)

func cellArgs(r row.Row) []any {
	vals := row.Values(r)
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// Fetch returns every data line, parsed the same way as a remote sheet.
func (d *DB) Fetch(ctx context.Context) ([]row.Row, error) {
	rs, err := d.sql.QueryContext(ctx, `SELECT position, `+columnList+` FROM sheet_rows ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("local fetch: %w", err)
	}
	defer rs.Close()

	grid := [][]string{row.Header}
	for rs.Next() {
		var pos int
		cells := make([]string, len(columns))
		dest := []any{&pos}
		for i := range cells {
			dest = append(dest, &cells[i])
		}
		if err := rs.Scan(dest...); err != nil {
			return nil, err
		}
		// gaps are blank sheet lines
		for len(grid) < pos-1 {
			grid = append(grid, nil)
		}
		grid = append(grid, cells)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return row.Parse(grid), nil
}

// Update writes r at r.Position, creating the line when it does not exist.
func (d *DB) Update(ctx context.Context, r row.Row) error {
	if r.Position < 2 {
		return apperr.Validationf("row position %d is not a data row", r.Position)
	}
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = c + " = excluded." + c
	}
	q := `INSERT INTO sheet_rows (position, ` + columnList + `) VALUES (?, ` + placeholders + `)
		ON CONFLICT(position) DO UPDATE SET ` + strings.Join(sets, ", ")
	args := append([]any{r.Position}, cellArgs(r)...)
	if _, err := d.sql.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("local update: %w", err)
	}
	d.log.Debug("db: updated row", "pos", r.Position)
	return nil
}

// Append adds r after the last line.
func (d *DB) Append(ctx context.Context, r row.Row) error {
	q := `INSERT INTO sheet_rows (position, ` + columnList + `)
		VALUES ((SELECT COALESCE(MAX(position), 1) + 1 FROM sheet_rows), ` + placeholders + `)`
	if _, err := d.sql.ExecContext(ctx, q, cellArgs(r)...); err != nil {
		return fmt.Errorf("local append: %w", err)
	}
	return nil
}

// Delete removes the line at position and shifts later lines up by one.
func (d *DB) Delete(ctx context.Context, position int) error {
	if position < 2 {
		return apperr.Validationf("row position %d is not a data row", position)
	}
	return d.deleteLine(ctx, "sheet_rows", position)
}

// deleteLine removes a line and renumbers the ones below it. Renumbering
// goes through negative positions so the primary key never collides.
func (d *DB) deleteLine(ctx context.Context, table string, position int) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE position = ?`, position)
	if err != nil {
		return fmt.Errorf("local delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &apperr.RemoteError{Service: "local", Status: 400, Message: fmt.Sprintf("no line at position %d", position)}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE `+table+` SET position = -(position - 1) WHERE position > ?`, position); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE `+table+` SET position = -position WHERE position < 0`); err != nil {
		return err
	}
	return tx.Commit()
}

// Count returns the number of stored lines.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM sheet_rows`).Scan(&n)
	return n, err
}
