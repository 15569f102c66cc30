package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ramanasai/brain/internal/row"
)

// Template is a reusable body for new entries. Content may reference
// {{variables}}; {{date}} is always available.
type Template struct {
	ID          string
	Name        string
	Category    string
	Content     string
	Description string
	Variables   []string
	IsCustom    bool
	UsageCount  int
	LastUsed    time.Time
}

var defaultTemplates = []Template{
	{
		ID:          "meeting_notes",
		Name:        "Meeting Notes",
		Category:    "Work",
		Content:     "Meeting {{date}} with {{attendees}}\n\nAgenda:\n- \n\nDecisions:\n- \n\nAction items:\n- ",
		Description: "Agenda, decisions and action items",
		Variables:   []string{"date", "attendees"},
	},
	{
		ID:          "daily_journal",
		Name:        "Daily Journal",
		Category:    "Journal",
		Content:     "{{date}}\n\nGrateful for:\n- \n\nHighlights:\n- \n\nTomorrow:\n- ",
		Description: "Daily journaling prompts",
		Variables:   []string{"date"},
	},
	{
		ID:          "learning_log",
		Name:        "Learning Log",
		Category:    "Learning",
		Content:     "Topic: {{topic}}\nSource: \n\nKey ideas:\n- \n\nQuestions:\n- ",
		Description: "Notes from a talk, book or course",
		Variables:   []string{"topic"},
	},
	{
		ID:          "idea",
		Name:        "Idea",
		Category:    "Ideas",
		Content:     "Idea: {{title}}\n\nProblem:\n\nWho has it:\n\nFirst step:",
		Description: "Capture an idea before it escapes",
		Variables:   []string{"title"},
	},
	{
		ID:          "quick_note",
		Name:        "Quick Note",
		Category:    "Other",
		Content:     "{{date}}: ",
		Description: "A dated one-liner",
		Variables:   []string{"date"},
	},
}

// InitDefaultTemplates inserts the built-in templates once.
func (d *DB) InitDefaultTemplates(ctx context.Context) error {
	var count int
	if err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM templates WHERE is_custom = FALSE`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, t := range defaultTemplates {
		vars, err := encodeVariables(t.Variables)
		if err != nil {
			return err
		}
		_, err = d.sql.ExecContext(ctx, `
			INSERT OR IGNORE INTO templates (id, name, category, content, description, variables, is_custom)
			VALUES (?, ?, ?, ?, ?, ?, FALSE)
		`, t.ID, t.Name, t.Category, t.Content, t.Description, vars)
		if err != nil {
			return fmt.Errorf("failed to insert template %s: %w", t.ID, err)
		}
	}
	return nil
}

const templateColumns = `id, name, category, content, description, variables, is_custom, usage_count, last_used`

type scanner interface{ Scan(dest ...any) error }

func scanTemplate(s scanner) (Template, error) {
	var t Template
	var vars string
	var lastUsed sql.NullString
	err := s.Scan(&t.ID, &t.Name, &t.Category, &t.Content, &t.Description, &vars, &t.IsCustom, &t.UsageCount, &lastUsed)
	if err != nil {
		return t, err
	}
	t.LastUsed = row.ParseTime(lastUsed.String)
	t.Variables, err = decodeVariables(vars)
	return t, err
}

// Template returns the template with id.
func (d *DB) Template(ctx context.Context, id string) (Template, error) {
	t, err := scanTemplate(d.sql.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = ?`, id))
	if isNoRows(err) {
		return t, fmt.Errorf("no template %q", id)
	}
	return t, err
}

// Templates lists every template, most used first.
func (d *DB) Templates(ctx context.Context) ([]Template, error) {
	rs, err := d.sql.QueryContext(ctx, `SELECT `+templateColumns+` FROM templates ORDER BY usage_count DESC, category, name`)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []Template
	for rs.Next() {
		t, err := scanTemplate(rs)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rs.Err()
}

// CreateTemplate stores a custom template.
func (d *DB) CreateTemplate(ctx context.Context, t Template) error {
	vars, err := encodeVariables(t.Variables)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx, `
		INSERT INTO templates (id, name, category, content, description, variables, is_custom)
		VALUES (?, ?, ?, ?, ?, ?, TRUE)
	`, t.ID, t.Name, t.Category, t.Content, t.Description, vars)
	return err
}

// DeleteTemplate removes a custom template. Built-ins cannot be deleted.
func (d *DB) DeleteTemplate(ctx context.Context, id string) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM templates WHERE id = ? AND is_custom = TRUE`, id)
	return err
}

// MarkTemplateUsed bumps the usage counter of id.
func (d *DB) MarkTemplateUsed(ctx context.Context, id string) error {
	_, err := d.sql.ExecContext(ctx, `
		UPDATE templates
		SET usage_count = usage_count + 1, last_used = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, id)
	return err
}

// Render fills the {{variables}} of t. Unknown variables are left blank.
func (t Template) Render(vars map[string]string, now time.Time) string {
	out := t.Content
	if _, ok := vars["date"]; !ok {
		out = strings.ReplaceAll(out, "{{date}}", now.Format("2006-01-02"))
	}
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	for _, k := range t.Variables {
		out = strings.ReplaceAll(out, "{{"+k+"}}", "")
	}
	return out
}

func decodeVariables(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var vars []string
	err := json.Unmarshal([]byte(s), &vars)
	return vars, err
}

func encodeVariables(vars []string) (string, error) {
	if len(vars) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(vars)
	return string(b), err
}
