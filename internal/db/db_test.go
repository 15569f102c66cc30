package db

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/catalog"
	"github.com/ramanasai/brain/internal/row"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "brain.db"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func titles(rows []row.Row) string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Title
	}
	return strings.Join(out, ",")
}

func TestAppendFetchUpdate(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		if err := d.Append(ctx, row.Row{Title: title}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	rows, err := d.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if titles(rows) != "a,b,c" || rows[0].Position != 2 || rows[2].Position != 4 {
		t.Fatalf("Fetch() = %+v", rows)
	}

	r := rows[1]
	r.Title, r.Tags = "b2", "x, y"
	if err := d.Update(ctx, r); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	rows, _ = d.Fetch(ctx)
	if rows[1].Title != "b2" || rows[1].Tags != "x, y" {
		t.Fatalf("row after update = %+v", rows[1])
	}
	if err := d.Update(ctx, row.Row{Position: 1}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("Update(header) error = %v", err)
	}
}

func TestDeleteShiftsLaterLines(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c", "d"} {
		d.Append(ctx, row.Row{Title: title})
	}
	if err := d.Delete(ctx, 3); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	rows, _ := d.Fetch(ctx)
	if titles(rows) != "a,c,d" {
		t.Fatalf("after delete = %s", titles(rows))
	}
	if rows[1].Position != 3 || rows[2].Position != 4 {
		t.Fatalf("positions = %d,%d", rows[1].Position, rows[2].Position)
	}
	var re *apperr.RemoteError
	if err := d.Delete(ctx, 40); !errors.As(err, &re) {
		t.Fatalf("Delete(missing) error = %v", err)
	}
}

func TestBlankLinesAreSkippedButKeepPositions(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	d.Append(ctx, row.Row{Title: "a"})
	d.Append(ctx, row.Row{Tags: "only tags"})
	d.Append(ctx, row.Row{Title: "c"})
	rows, _ := d.Fetch(ctx)
	if titles(rows) != "a,c" || rows[1].Position != 4 {
		t.Fatalf("Fetch() = %+v", rows)
	}
}

func TestConfigItems(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	m := catalog.New(d, nil)
	if err := m.AddCategory(ctx, "Travel"); err != nil {
		t.Fatalf("AddCategory() error = %v", err)
	}
	if err := m.AddTag(ctx, "go"); err != nil {
		t.Fatalf("AddTag() error = %v", err)
	}
	if err := m.SetColor(ctx, "Travel", "#00aaff"); err != nil {
		t.Fatalf("SetColor() error = %v", err)
	}
	c := m.Load(ctx)
	if !c.HasCategory("Travel") || !c.HasTag("go") || c.Colors["Travel"] != "#00aaff" {
		t.Fatalf("Load() = %+v", c)
	}
	if err := m.Remove(ctx, catalog.TypeCategory, "Travel"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	items, _ := d.FetchConfig(ctx)
	if len(items) != 2 || items[0].Position != 2 {
		t.Fatalf("items = %+v", items)
	}
}

func TestPrefs(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	if _, ok, err := d.Pref(ctx, PrefViewMode); err != nil || ok {
		t.Fatalf("Pref() = %v, %v", ok, err)
	}
	d.SetPref(ctx, PrefViewMode, "table")
	d.SetPref(ctx, PrefViewMode, "kanban")
	v, ok, err := d.Pref(ctx, PrefViewMode)
	if err != nil || !ok || v != "kanban" {
		t.Fatalf("Pref() = %q, %v, %v", v, ok, err)
	}
}

func TestSeedDemoOnlyWhenEmpty(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	n, err := d.SeedDemo(ctx, now)
	if err != nil || n == 0 {
		t.Fatalf("SeedDemo() = %d, %v", n, err)
	}
	if n2, _ := d.SeedDemo(ctx, now); n2 != 0 {
		t.Fatalf("second SeedDemo() = %d", n2)
	}
	rows, _ := d.Fetch(ctx)
	if len(rows) != n {
		t.Fatalf("Fetch() = %d rows, want %d", len(rows), n)
	}
}

func TestTemplates(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	if err := d.InitDefaultTemplates(ctx); err != nil {
		t.Fatalf("InitDefaultTemplates() error = %v", err)
	}
	if err := d.InitDefaultTemplates(ctx); err != nil {
		t.Fatalf("second InitDefaultTemplates() error = %v", err)
	}
	all, err := d.Templates(ctx)
	if err != nil || len(all) != len(defaultTemplates) {
		t.Fatalf("Templates() = %d, %v", len(all), err)
	}

	tpl, err := d.Template(ctx, "meeting_notes")
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	out := tpl.Render(map[string]string{"attendees": "Ana"}, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	if !strings.HasPrefix(out, "Meeting 2025-03-10 with Ana") {
		t.Fatalf("Render() = %q", out)
	}

	if err := d.MarkTemplateUsed(ctx, "idea"); err != nil {
		t.Fatalf("MarkTemplateUsed() error = %v", err)
	}
	all, _ = d.Templates(ctx)
	if all[0].ID != "idea" || all[0].UsageCount != 1 {
		t.Fatalf("most used = %+v", all[0])
	}

	if err := d.DeleteTemplate(ctx, "idea"); err != nil {
		t.Fatalf("DeleteTemplate() error = %v", err)
	}
	if _, err := d.Template(ctx, "idea"); err != nil {
		t.Fatal("built-in template was deleted")
	}
}
