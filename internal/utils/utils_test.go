package utils

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ramanasai/brain/internal/filter"
	"github.com/ramanasai/brain/internal/row"
)

func TestParseFlexibleDate(t *testing.T) {
	now := time.Date(2025, 3, 5, 15, 30, 0, 0, time.UTC) // Wednesday
	day := func(m time.Month, d int) time.Time { return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		in   string
		want time.Time
	}{
		{"today", day(3, 5)},
		{"Yesterday", day(3, 4)},
		{"tomorrow", day(3, 6)},
		{"3 days ago", day(3, 2)},
		{"in 2 weeks", day(3, 19)},
		{"friday", day(3, 7)},
		{"wed", day(3, 12)},
		{"2025-04-01", day(4, 1)},
		{"Mar 10, 2025", day(3, 10)},
		{"mar 10", day(3, 10)},
	}
	for _, tt := range tests {
		got, err := ParseFlexibleDate(tt.in, now)
		if err != nil {
			t.Errorf("ParseFlexibleDate(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseFlexibleDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseFlexibleDate("someday", now); err == nil {
		t.Fatal("ParseFlexibleDate(someday) succeeded")
	}
}

func TestGetDateRange(t *testing.T) {
	now := time.Date(2025, 3, 5, 15, 30, 0, 0, time.UTC)
	from, to, err := GetDateRange("week", now)
	if err != nil {
		t.Fatalf("GetDateRange() error = %v", err)
	}
	if from.Day() != 3 || to.Day() != 9 {
		t.Fatalf("week = %v..%v", from, to)
	}
	from, to, _ = GetDateRange("month", now)
	if from.Day() != 1 || to.Day() != 31 {
		t.Fatalf("month = %v..%v", from, to)
	}
	if _, _, err := GetDateRange("fortnight", now); err == nil {
		t.Fatal("unknown preset accepted")
	}
}

func TestPagination(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	p := NewPagination(len(items), 3, 3)
	if got := Paginate(items, p); len(got) != 1 || got[0] != 7 {
		t.Fatalf("Paginate() = %v", got)
	}
	if p.FormatSummary() != "Showing 7-7 of 7 entries (page 3 of 3)" {
		t.Fatalf("FormatSummary() = %q", p.FormatSummary())
	}
	if p.FormatNavigation() != "use --page 2 for previous" {
		t.Fatalf("FormatNavigation() = %q", p.FormatNavigation())
	}
	if p := NewPagination(len(items), 0, 1); len(Paginate(items, p)) != 7 {
		t.Fatal("perPage 0 should show everything")
	}
	if n, _ := ParsePage("last", 3); n != 3 {
		t.Fatalf("ParsePage(last) = %d", n)
	}
	if _, err := ParsePage("zero", 3); err == nil {
		t.Fatal("ParsePage(zero) succeeded")
	}
}

func testRows() []row.Row {
	return []row.Row{
		{Position: 2, Title: "Plan sprint", Category: "Work", TaskStatus: "In progress", Tags: "planning, team", Original: "talk\nto team", CreatedAt: "2025-03-01T10:00:00.000Z"},
		{Position: 4, Original: "untitled body", DueDate: "2025-03-20"},
	}
}

func TestRenderFormats(t *testing.T) {
	cfg := DefaultRenderConfig()
	cfg.Color = false
	cfg.Location = time.UTC
	list := &RowList{Rows: testRows(), Total: 2}

	for _, f := range []OutputFormat{FormatDefault, FormatTable, FormatCompact} {
		cfg.Format = f
		out, err := NewRenderer(cfg).RenderRows(list)
		if err != nil {
			t.Fatalf("%s: RenderRows() error = %v", f, err)
		}
		if !strings.Contains(out, "Plan sprint") {
			t.Fatalf("%s output missing title:\n%s", f, out)
		}
	}

	cfg.Format = FormatDefault
	out, _ := NewRenderer(cfg).RenderRows(list)
	for _, want := range []string{"#2", "2025-03-01", "Work", "#planning #team", "Untitled", "2025-03-20", "talk to team"} {
		if !strings.Contains(out, want) {
			t.Errorf("default output missing %q:\n%s", want, out)
		}
	}

	cfg.Format = FormatQuiet
	out, _ = NewRenderer(cfg).RenderRows(list)
	if out != "2\n4\n" {
		t.Fatalf("quiet = %q", out)
	}

	cfg.Format = FormatJSON
	out, _ = NewRenderer(cfg).RenderRows(list)
	var decoded struct {
		Entries []row.Row `json:"entries"`
		Total   int       `json:"total"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil || decoded.Total != 2 || decoded.Entries[0].Title != "Plan sprint" {
		t.Fatalf("json = %s (%v)", out, err)
	}
}

func TestRenderRowAndStats(t *testing.T) {
	cfg := DefaultRenderConfig()
	cfg.Color = false
	r := NewRenderer(cfg)
	out := r.RenderRow(testRows()[0])
	if !strings.Contains(out, "Original:\n  talk\n  to team") || !strings.Contains(out, "Status: In progress") {
		t.Fatalf("RenderRow() =\n%s", out)
	}
	rows := testRows()
	stats := r.RenderStats(filter.CountsOf(rows), filter.FacetsOf(rows))
	if !strings.Contains(stats, "Total 2") || !strings.Contains(stats, "Categories: Work") {
		t.Fatalf("RenderStats() =\n%s", stats)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo world", 5); got != "héll…" {
		t.Fatalf("Truncate() = %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("Truncate() = %q", got)
	}
}

func TestRenderTableHasHeaderAndEveryRow(t *testing.T) {
	cfg := DefaultRenderConfig()
	cfg.Color = false
	cfg.Format = FormatTable
	cfg.Location = time.UTC
	out, err := NewRenderer(cfg).RenderRows(&RowList{Rows: testRows(), Total: 2})
	if err != nil {
		t.Fatalf("RenderRows() error = %v", err)
	}
	lines := strings.Split(out, "\n")
	header := -1
	for i, l := range lines {
		if strings.Contains(l, "Title") && strings.Contains(l, "Category") {
			header = i
			break
		}
	}
	if header < 0 {
		t.Fatalf("table has no header:\n%s", out)
	}
	for _, want := range []string{"Plan sprint", "2025-03-20"} {
		if !strings.Contains(strings.Join(lines[header+1:], "\n"), want) {
			t.Errorf("table rows missing %q:\n%s", want, out)
		}
	}
}
