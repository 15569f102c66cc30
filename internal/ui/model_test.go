package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ramanasai/brain/internal/app"
	"github.com/ramanasai/brain/internal/config"
	"github.com/ramanasai/brain/internal/db"
	"github.com/ramanasai/brain/internal/filter"
	"github.com/ramanasai/brain/internal/logging"
	"github.com/ramanasai/brain/internal/row"
	bsync "github.com/ramanasai/brain/internal/sync"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newModel(t *testing.T) (Model, *app.App) {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.Local.Path = filepath.Join(t.TempDir(), "brain.db")
	cfg.DemoMode = true
	ctx := context.Background()
	a, err := app.New(ctx, app.Options{Config: &cfg, Logger: logging.Discard(), Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })

	m := New(ctx, a, nil)
	nm, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = run(t, nm.(Model), m.loadCmd())
	return m, a
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var nm tea.Model
		nm, cmd = m.Update(keyMsg(k))
		m = nm.(Model)
	}
	return m, cmd
}

// run executes a background command synchronously and feeds its result back.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	nm, _ := m.Update(cmd())
	return nm.(Model)
}

func TestLoadNavigateAndPersistView(t *testing.T) {
	m, a := newModel(t)
	if len(m.rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(m.rows))
	}
	if m.rows[0].Title != "App idea: plant tracker" {
		t.Fatalf("first row = %q, want newest first", m.rows[0].Title)
	}
	m, _ = press(m, "j", "j")
	if m.cursor != 2 {
		t.Fatalf("cursor = %d", m.cursor)
	}
	m, _ = press(m, "k")
	if m.cursor != 1 {
		t.Fatalf("cursor = %d", m.cursor)
	}

	for _, want := range []viewMode{viewTable, viewKanban, viewCards} {
		m, _ = press(m, "v")
		if m.view != want {
			t.Fatalf("view = %d, want %d", m.view, want)
		}
		if out := m.View(); !strings.Contains(out, "Brain • demo • "+viewNames[want]) {
			t.Fatalf("View() missing top bar for %s", viewNames[want])
		}
	}
	m, _ = press(m, "v")
	if got := a.Pref(context.Background(), db.PrefViewMode, ""); got != "table" {
		t.Fatalf("stored view = %q", got)
	}
	if again := New(context.Background(), a, nil); again.view != viewTable {
		t.Fatalf("restored view = %d", again.view)
	}
}

func TestSearchNarrowsAndEscClears(t *testing.T) {
	m, _ := newModel(t)
	m, _ = press(m, "/")
	if m.mode != modeSearch {
		t.Fatalf("mode = %d", m.mode)
	}
	m, _ = press(m, "budget")
	if len(m.rows) != 1 || m.rows[0].Title != "Budget review" {
		t.Fatalf("rows = %+v", m.rows)
	}
	m, _ = press(m, "esc")
	if m.mode != modeNormal || m.filter.Search != "" || len(m.rows) != 5 {
		t.Fatalf("after esc: mode %d search %q rows %d", m.mode, m.filter.Search, len(m.rows))
	}
}

func TestStatusAndSortCycle(t *testing.T) {
	m, a := newModel(t)
	m, _ = press(m, "f")
	if m.filter.Status != row.BucketPending {
		t.Fatalf("status = %q", m.filter.Status)
	}
	for _, r := range m.rows {
		if row.StatusBucket(r.TaskStatus) != row.BucketPending {
			t.Fatalf("row %q has status %q", r.Title, r.TaskStatus)
		}
	}
	m, _ = press(m, "x")
	if m.filter.Active() {
		t.Fatalf("filter still active: %+v", m.filter)
	}
	m, _ = press(m, "s")
	if m.filter.Sort != filter.SortDateAsc {
		t.Fatalf("sort = %q", m.filter.Sort)
	}
	if got := a.Pref(context.Background(), db.PrefSortKey, ""); got != string(filter.SortDateAsc) {
		t.Fatalf("stored sort = %q", got)
	}
}

func TestEditUndoRedo(t *testing.T) {
	m, a := newModel(t)
	pos := m.rows[0].Position
	orig := m.rows[0].Title

	m, _ = press(m, "e")
	if m.mode != modeForm || m.form.editing == nil {
		t.Fatalf("mode = %d", m.mode)
	}
	m.form.inputs[fieldIndex(row.Title)].SetValue("Renamed")
	m, cmd := press(m, "ctrl+s")
	m = run(t, m, cmd)
	if r, _ := a.Sync.Row(pos); r.Title != "Renamed" {
		t.Fatalf("title = %q after edit", r.Title)
	}

	m, cmd = press(m, "u")
	m = run(t, m, cmd)
	if r, _ := a.Sync.Row(pos); r.Title != orig {
		t.Fatalf("title = %q after undo, want %q", r.Title, orig)
	}

	m, cmd = press(m, "ctrl+r")
	m = run(t, m, cmd)
	if r, _ := a.Sync.Row(pos); r.Title != "Renamed" {
		t.Fatalf("title = %q after redo", r.Title)
	}
	if m.statusErr {
		t.Fatalf("status error: %s", m.status)
	}
}

func TestEditWithoutChanges(t *testing.T) {
	m, _ := newModel(t)
	m, _ = press(m, "e")
	m, cmd := press(m, "ctrl+s")
	if cmd != nil || m.status != "No changes" {
		t.Fatalf("cmd = %v, status = %q", cmd != nil, m.status)
	}
}

func TestNewEntryAndDeleteConfirm(t *testing.T) {
	m, a := newModel(t)

	m, _ = press(m, "n")
	m, cmd := press(m, "ctrl+s")
	if cmd != nil || !m.statusErr {
		t.Fatalf("empty form should be rejected, status = %q", m.status)
	}
	m.form.inputs[fieldIndex(row.Title)].SetValue("From the TUI")
	m.form.inputs[fieldIndex(row.DueDate)].SetValue("tomorrow")
	m, cmd = press(m, "ctrl+s")
	m = run(t, m, cmd)
	if len(a.Sync.Rows()) != 6 {
		t.Fatalf("rows = %d after create", len(a.Sync.Rows()))
	}
	var created row.Row
	for _, r := range a.Sync.Rows() {
		if r.Title == "From the TUI" {
			created = r
		}
	}
	if created.DueDate != "2025-03-11" {
		t.Fatalf("due = %q", created.DueDate)
	}

	m, _ = press(m, "d", "n")
	if m.mode != modeNormal || len(m.rows) != 6 {
		t.Fatalf("cancelled delete removed a row")
	}
	m, _ = press(m, "d")
	m, cmd = press(m, "y")
	m = run(t, m, cmd)
	if len(a.Sync.Rows()) != 5 || len(m.rows) != 5 {
		t.Fatalf("rows = %d after delete", len(a.Sync.Rows()))
	}
}

func TestCopySelected(t *testing.T) {
	m, _ := newModel(t)
	var got string
	old := writeClipboard
	writeClipboard = func(s string) error { got = s; return nil }
	defer func() { writeClipboard = old }()

	m, _ = press(m, "y")
	if got != m.rows[0].Body() || m.status != "Copied to clipboard" {
		t.Fatalf("copied %q, status %q", got, m.status)
	}

	writeClipboard = func(string) error { return errors.New("no display") }
	m, _ = press(m, "y")
	if !m.statusErr {
		t.Fatalf("status = %q", m.status)
	}
}

func TestAIWithoutKeyReportsConfig(t *testing.T) {
	m, _ := newModel(t)
	m, _ = press(m, "a")
	if m.mode != modeAI {
		t.Fatalf("mode = %d", m.mode)
	}
	m, cmd := press(m, "enter")
	m = run(t, m, cmd)
	if !m.statusErr || !strings.Contains(m.status, "openai.api_key") {
		t.Fatalf("status = %q", m.status)
	}
	if m.busy != 0 {
		t.Fatalf("busy = %d", m.busy)
	}

	m, _ = press(m, "b")
	if m.status != "No bulk AI run to undo" {
		t.Fatalf("status = %q", m.status)
	}
	m, _ = press(m, "u")
	if m.status != "Nothing to undo" {
		t.Fatalf("status = %q", m.status)
	}
}

func TestSignedOutBlocksRemoteKeys(t *testing.T) {
	m, _ := newModel(t)
	m.needLogin = true
	m, cmd := press(m, "e")
	if cmd != nil || m.mode != modeNormal || !strings.Contains(m.status, "Press L") {
		t.Fatalf("mode = %d, status = %q", m.mode, m.status)
	}
	m, _ = press(m, "j")
	if m.cursor != 1 {
		t.Fatalf("navigation should still work, cursor = %d", m.cursor)
	}
}

func TestEventsDropWhenFull(t *testing.T) {
	ev := make(Events, 1)
	ev.Notice(bsync.Notice{Message: "one"})
	ev.Notice(bsync.Notice{Message: "two"})
	if got := (<-ev).(noticeMsg); got.Message != "one" {
		t.Fatalf("notice = %q", got.Message)
	}
	var none Events
	none.Notice(bsync.Notice{Message: "ignored"})
	if none.wait() != nil {
		t.Fatal("nil Events should not wait")
	}
}
