package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"testing"
	"time"

	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/row"
	"github.com/ramanasai/brain/internal/store"
)

// fakeSheet is an in-memory Gateway that behaves like a sheet: positions are
// dense from 2 and deleting a row shifts the later ones up.
type fakeSheet struct {
	mu        stdsync.Mutex
	rows      []row.Row
	fetchErr  error
	updateErr map[int]error
	deleteErr error
	appendErr error
	calls     int
	beforeGet func(n int)
	fetches   int
}

func newFakeSheet(n int) *fakeSheet {
	f := &fakeSheet{updateErr: map[int]error{}}
	for i := 0; i < n; i++ {
		f.rows = append(f.rows, row.Row{
			SrNo:      fmt.Sprint(i + 1),
			Title:     fmt.Sprintf("row %d", i+1),
			CreatedAt: fmt.Sprintf("2025-01-%02dT00:00:00.000Z", i+1),
		})
	}
	return f
}

func (f *fakeSheet) Fetch(ctx context.Context) ([]row.Row, error) {
	f.mu.Lock()
	f.calls++
	f.fetches++
	n, hook := f.fetches, f.beforeGet
	if f.fetchErr != nil {
		f.mu.Unlock()
		return nil, f.fetchErr
	}
	out := make([]row.Row, len(f.rows))
	for i, r := range f.rows {
		r.Position = i + 2
		out[i] = r
	}
	f.mu.Unlock()

	// hook runs after the snapshot so a slow response carries old data.
	if hook != nil {
		hook(n)
	}
	return out, nil
}

func (f *fakeSheet) Update(ctx context.Context, r row.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.updateErr[r.Position]; err != nil {
		return err
	}
	i := r.Position - 2
	if i < 0 || i >= len(f.rows) {
		return fmt.Errorf("row %d out of range", r.Position)
	}
	r.ID, r.Dirty = "", false
	f.rows[i] = r
	return nil
}

func (f *fakeSheet) Append(ctx context.Context, r row.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.appendErr != nil {
		return f.appendErr
	}
	f.rows = append(f.rows, r)
	return nil
}

func (f *fakeSheet) Delete(ctx context.Context, pos int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	i := pos - 2
	if i < 0 || i >= len(f.rows) {
		return fmt.Errorf("row %d out of range", pos)
	}
	f.rows = append(f.rows[:i], f.rows[i+1:]...)
	return nil
}

func (f *fakeSheet) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type harness struct {
	orc     *Orchestrator
	sheet   *fakeSheet
	notices []Notice
}

func newHarness(t *testing.T, n int) *harness {
	t.Helper()
	h := &harness{sheet: newFakeSheet(n)}
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h.orc = New(store.New(), h.sheet,
		WithClock(func() time.Time { return clock }),
		WithNotices(func(n Notice) { h.notices = append(h.notices, n) }),
	)
	if err := h.orc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	return h
}

func (h *harness) title(t *testing.T, pos int) string {
	t.Helper()
	r, ok := h.orc.Row(pos)
	if !ok {
		t.Fatalf("no row at position %d", pos)
	}
	return r.Title
}

func TestRefreshLoadsRows(t *testing.T) {
	h := newHarness(t, 3)
	if got := len(h.orc.Rows()); got != 3 {
		t.Fatalf("Rows() = %d, want 3", got)
	}
	if h.orc.LastSynced().IsZero() {
		t.Fatal("LastSynced() not recorded")
	}
	if h.notices[len(h.notices)-1].Message != "Loaded 3 entries" {
		t.Fatalf("notice = %q", h.notices[len(h.notices)-1].Message)
	}
}

func TestRefreshFailureKeepsRows(t *testing.T) {
	h := newHarness(t, 2)
	h.sheet.fetchErr = errors.New("offline")
	if err := h.orc.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() error = nil")
	}
	if len(h.orc.Rows()) != 2 {
		t.Fatalf("rows lost on failed refresh: %d", len(h.orc.Rows()))
	}
	if h.notices[len(h.notices)-1].Level != LevelError {
		t.Fatal("expected error notice")
	}
}

func TestSaveRowWritesAndRecordsHistory(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	if err := h.orc.SaveRow(ctx, 2, row.Patch{row.Title: "edited"}, ""); err != nil {
		t.Fatalf("SaveRow() error = %v", err)
	}
	r, _ := h.orc.Row(2)
	if r.Title != "edited" || r.Dirty {
		t.Fatalf("row after save = %+v", r)
	}
	if r.UpdatedAt != "2025-03-01T12:00:00.000Z" {
		t.Fatalf("UpdatedAt = %q", r.UpdatedAt)
	}
	hist := h.orc.Store().History(r.ID)
	if len(hist) != 1 || hist[0].Label != LabelEdit || hist[0].Fields[row.Title] != "row 1" {
		t.Fatalf("history = %+v", hist)
	}
}

func TestSaveRowMissingIsNoop(t *testing.T) {
	h := newHarness(t, 1)
	before := h.sheet.callCount()
	if err := h.orc.SaveRow(context.Background(), 40, row.Patch{row.Title: "x"}, ""); err != nil {
		t.Fatalf("SaveRow() error = %v", err)
	}
	if h.sheet.callCount() != before {
		t.Fatal("SaveRow() on missing row hit the gateway")
	}
}

func TestUndoThenRedoRestoresValues(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	h.orc.SaveRow(ctx, 2, row.Patch{row.Title: "A"}, "")
	h.orc.SaveRow(ctx, 2, row.Patch{row.Title: "B", row.Tags: "x"}, "")

	if err := h.orc.UndoRow(ctx, 2); err != nil {
		t.Fatalf("UndoRow() error = %v", err)
	}
	if got := h.title(t, 2); got != "A" {
		t.Fatalf("title after undo = %q, want A", got)
	}
	if err := h.orc.RedoRow(ctx, 2); err != nil {
		t.Fatalf("RedoRow() error = %v", err)
	}
	r, _ := h.orc.Row(2)
	if r.Title != "B" || r.Tags != "x" {
		t.Fatalf("row after redo = %+v", r)
	}
}

func TestHistoryDepthAcrossSavesAndUndo(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	const n = 4
	for i := 0; i < n; i++ {
		if err := h.orc.SaveRow(ctx, 2, row.Patch{row.Title: fmt.Sprint("v", i)}, ""); err != nil {
			t.Fatalf("SaveRow() error = %v", err)
		}
	}
	if h.orc.HistoryDepth(2) != n || h.orc.FutureDepth(2) != 0 {
		t.Fatalf("depths = %d/%d, want %d/0", h.orc.HistoryDepth(2), h.orc.FutureDepth(2), n)
	}
	h.orc.UndoRow(ctx, 2)
	if h.orc.HistoryDepth(2) != n-1 || h.orc.FutureDepth(2) != 1 {
		t.Fatalf("depths after undo = %d/%d", h.orc.HistoryDepth(2), h.orc.FutureDepth(2))
	}
}

func TestSaveAfterUndoClearsFuture(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	h.orc.SaveRow(ctx, 2, row.Patch{row.Title: "A"}, "")
	h.orc.UndoRow(ctx, 2)
	if h.orc.FutureDepth(2) != 1 {
		t.Fatalf("FutureDepth() = %d", h.orc.FutureDepth(2))
	}
	h.orc.SaveRow(ctx, 2, row.Patch{row.Title: "C"}, "")
	if h.orc.FutureDepth(2) != 0 {
		t.Fatalf("future survived a fresh save: %d", h.orc.FutureDepth(2))
	}
}

func TestUndoEmptyIsNoop(t *testing.T) {
	h := newHarness(t, 1)
	before := h.sheet.callCount()
	if err := h.orc.UndoRow(context.Background(), 2); err != nil {
		t.Fatalf("UndoRow() error = %v", err)
	}
	if h.sheet.callCount() != before {
		t.Fatal("empty undo hit the gateway")
	}
	if h.notices[len(h.notices)-1].Message != "Nothing to undo" {
		t.Fatalf("notice = %q", h.notices[len(h.notices)-1].Message)
	}
}

func TestFailedWriteRevertsRow(t *testing.T) {
	h := newHarness(t, 10)
	failing := errors.New("quota")
	h.sheet.updateErr[6] = failing // fifth data row

	err := h.orc.SaveRow(context.Background(), 6, row.Patch{row.Title: "lost"}, "")
	if !errors.Is(err, failing) {
		t.Fatalf("SaveRow() error = %v, want %v", err, failing)
	}
	r, _ := h.orc.Row(6)
	if r.Title != "row 5" || r.Dirty {
		t.Fatalf("row after failed save = %+v", r)
	}
	if h.orc.HistoryDepth(6) != 0 {
		t.Fatal("failed save recorded history")
	}
}

func TestFailedUndoRestoresStacks(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	h.orc.SaveRow(ctx, 2, row.Patch{row.Title: "A"}, "")
	h.sheet.updateErr[2] = errors.New("offline")

	if err := h.orc.UndoRow(ctx, 2); err == nil {
		t.Fatal("UndoRow() error = nil")
	}
	if h.orc.HistoryDepth(2) != 1 || h.orc.FutureDepth(2) != 0 {
		t.Fatalf("stacks after failed undo = %d/%d", h.orc.HistoryDepth(2), h.orc.FutureDepth(2))
	}
	if got := h.title(t, 2); got != "A" {
		t.Fatalf("title = %q", got)
	}
}

func TestCreateRowValidation(t *testing.T) {
	h := newHarness(t, 0)
	before := h.sheet.callCount()
	err := h.orc.CreateRow(context.Background(), row.Patch{row.Tags: "x"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("CreateRow() error = %v, want ErrValidation", err)
	}
	if h.sheet.callCount() != before {
		t.Fatal("invalid create hit the gateway")
	}
}

func TestCreateRowAppends(t *testing.T) {
	h := newHarness(t, 1)
	err := h.orc.CreateRow(context.Background(), row.Patch{row.Title: "new", row.SrNo: "99"})
	if err != nil {
		t.Fatalf("CreateRow() error = %v", err)
	}
	r, ok := h.orc.Row(3)
	if !ok || r.Title != "new" {
		t.Fatalf("Row(3) = %+v, %v", r, ok)
	}
	if r.SrNo != "" || r.CreatedAt != "2025-03-01T12:00:00.000Z" {
		t.Fatalf("created row = %+v", r)
	}
}

func TestRemoveRowShiftsPositions(t *testing.T) {
	h := newHarness(t, 4)
	ctx := context.Background()
	h.orc.SaveRow(ctx, 4, row.Patch{row.Title: "third edited"}, "")

	if err := h.orc.RemoveRow(ctx, 3); err != nil {
		t.Fatalf("RemoveRow() error = %v", err)
	}
	if got := h.title(t, 3); got != "third edited" {
		t.Fatalf("Row(3).Title = %q, want former position 4", got)
	}
	if h.orc.HistoryDepth(3) != 1 {
		t.Fatalf("history did not follow the shifted row: %d", h.orc.HistoryDepth(3))
	}
	if _, ok := h.orc.Row(5); ok {
		t.Fatal("position 5 still present")
	}
}

func TestRemoveRowFailureRestores(t *testing.T) {
	h := newHarness(t, 2)
	h.sheet.deleteErr = errors.New("denied")
	if err := h.orc.RemoveRow(context.Background(), 2); err == nil {
		t.Fatal("RemoveRow() error = nil")
	}
	if _, ok := h.orc.Row(2); !ok {
		t.Fatal("row not restored after failed delete")
	}
}

func TestStaleRefreshDropped(t *testing.T) {
	h := newHarness(t, 1)
	entered := make(chan struct{})
	release := make(chan struct{})
	first := h.sheet.fetches + 1
	h.sheet.beforeGet = func(n int) {
		if n == first {
			close(entered)
			<-release
		}
	}

	// The slow refresh reads the sheet while it still holds one row.
	done := make(chan error)
	go func() { done <- h.orc.Refresh(context.Background()) }()
	<-entered

	h.sheet.mu.Lock()
	h.sheet.rows = append(h.sheet.rows, row.Row{Title: "late", CreatedAt: "2025-02-01T00:00:00.000Z"})
	h.sheet.mu.Unlock()
	if err := h.orc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("slow Refresh() error = %v", err)
	}
	if got := len(h.orc.Rows()); got != 2 {
		t.Fatalf("stale refresh overwrote newer rows: %d", got)
	}
}

func TestOlderRefreshAppliesWhenNewerFails(t *testing.T) {
	h := newHarness(t, 1)
	first := h.sheet.fetches + 1
	var innerErr error
	h.sheet.beforeGet = func(n int) {
		if n != first {
			return
		}
		h.sheet.mu.Lock()
		h.sheet.fetchErr = errors.New("boom")
		h.sheet.mu.Unlock()
		innerErr = h.orc.Refresh(context.Background())
		h.sheet.mu.Lock()
		h.sheet.fetchErr = nil
		h.sheet.mu.Unlock()
	}
	h.sheet.mu.Lock()
	h.sheet.rows = append(h.sheet.rows, row.Row{Title: "second", CreatedAt: "2025-02-01T00:00:00.000Z"})
	h.sheet.mu.Unlock()

	if err := h.orc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if innerErr == nil {
		t.Fatal("inner Refresh() error = nil")
	}
	if got := len(h.orc.Rows()); got != 2 {
		t.Fatalf("rows = %d, want the older successful response applied", got)
	}
}

// newBareHarness loads rows that carry only a title, as in hand-edited sheets.
func newBareHarness(t *testing.T, titles ...string) *harness {
	t.Helper()
	h := newHarness(t, 0)
	h.sheet.mu.Lock()
	for _, title := range titles {
		h.sheet.rows = append(h.sheet.rows, row.Row{Title: title})
	}
	h.sheet.mu.Unlock()
	if err := h.orc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	return h
}

func TestRemoteDeleteDoesNotHandHistoryToNextRow(t *testing.T) {
	h := newBareHarness(t, "A", "B", "C")
	ctx := context.Background()
	if err := h.orc.SaveRow(ctx, 3, row.Patch{row.Title: "B2"}, ""); err != nil {
		t.Fatalf("SaveRow() error = %v", err)
	}

	// B2 is deleted in the sheet by someone else.
	h.sheet.mu.Lock()
	h.sheet.rows = append(h.sheet.rows[:1:1], h.sheet.rows[2:]...)
	h.sheet.mu.Unlock()
	if err := h.orc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if d := h.orc.HistoryDepth(3); d != 0 {
		t.Fatalf("HistoryDepth(3) = %d, row C inherited B's history", d)
	}
	if err := h.orc.UndoRow(ctx, 3); err != nil {
		t.Fatalf("UndoRow() error = %v", err)
	}
	if got := h.title(t, 3); got != "C" {
		t.Fatalf("Row(3).Title = %q after undo, want C", got)
	}
}

func TestLocalDeleteKeepsHistoryOfShiftedBareRow(t *testing.T) {
	h := newBareHarness(t, "A", "B", "C")
	ctx := context.Background()
	if err := h.orc.SaveRow(ctx, 4, row.Patch{row.Title: "C2"}, ""); err != nil {
		t.Fatalf("SaveRow() error = %v", err)
	}
	if err := h.orc.RemoveRow(ctx, 3); err != nil {
		t.Fatalf("RemoveRow() error = %v", err)
	}
	if got := h.title(t, 3); got != "C2" {
		t.Fatalf("Row(3).Title = %q", got)
	}
	if d := h.orc.HistoryDepth(3); d != 1 {
		t.Fatalf("HistoryDepth(3) = %d, want 1", d)
	}
	if err := h.orc.UndoRow(ctx, 3); err != nil {
		t.Fatalf("UndoRow() error = %v", err)
	}
	if got := h.title(t, 3); got != "C" {
		t.Fatalf("Row(3).Title = %q after undo, want C", got)
	}
}

func enhance(failPos int) ProduceFunc {
	return func(ctx context.Context, r row.Row) (row.Patch, error) {
		if r.Position == failPos {
			return nil, errors.New("model refused")
		}
		return row.Patch{row.Rewritten: "AI " + r.Title}, nil
	}
}

func TestRunBulkThenUndoBulk(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()

	var ticks int
	rep, err := h.orc.RunBulk(ctx, []int{2, 3, 4}, "AI: Enhance all", enhance(4), func(done, total int) { ticks++ })
	if err != nil {
		t.Fatalf("RunBulk() error = %v", err)
	}
	if rep.Updated != 2 || rep.Failed != 1 || ticks != 3 {
		t.Fatalf("report = %+v, ticks = %d", rep, ticks)
	}
	if r, _ := h.orc.Row(2); r.Rewritten != "AI row 1" {
		t.Fatalf("row 2 rewritten = %q", r.Rewritten)
	}
	if !h.orc.CanUndoBulk() {
		t.Fatal("CanUndoBulk() = false after run")
	}

	n, err := h.orc.UndoBulk(ctx)
	if err != nil {
		t.Fatalf("UndoBulk() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("UndoBulk() reverted %d, want 2", n)
	}
	for _, pos := range []int{2, 3} {
		r, _ := h.orc.Row(pos)
		if r.Rewritten != "" {
			t.Fatalf("row %d still enhanced: %q", pos, r.Rewritten)
		}
		if h.orc.FutureDepth(pos) != 1 {
			t.Fatalf("row %d future depth = %d", pos, h.orc.FutureDepth(pos))
		}
	}
	if h.orc.CanUndoBulk() {
		t.Fatal("bulk record not cleared")
	}
}

func TestUndoBulkKeepsLaterEdits(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	if _, err := h.orc.RunBulk(ctx, []int{2}, "AI: Enhance all", enhance(0), nil); err != nil {
		t.Fatalf("RunBulk() error = %v", err)
	}
	h.orc.SaveRow(ctx, 2, row.Patch{row.Tags: "manual"}, "")

	if n, _ := h.orc.UndoBulk(ctx); n != 1 {
		t.Fatalf("UndoBulk() = %d", n)
	}
	// The manual edit entry stays on the stack; only the bulk entry is taken.
	hist := h.orc.Store().History(h.mustID(t, 2))
	if len(hist) != 1 || hist[0].Label != LabelEdit {
		t.Fatalf("history after bulk undo = %+v", hist)
	}
}

func TestUndoBulkWithoutRecord(t *testing.T) {
	h := newHarness(t, 2)
	before := h.sheet.callCount()
	n, err := h.orc.UndoBulk(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("UndoBulk() = %d, %v", n, err)
	}
	if h.sheet.callCount() != before {
		t.Fatal("UndoBulk() without record hit the gateway")
	}
}

func TestUndoBulkSkipsVanishedRows(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	h.orc.RunBulk(ctx, []int{2, 3}, "AI: Enhance all", enhance(0), nil)
	if err := h.orc.RemoveRow(ctx, 2); err != nil {
		t.Fatalf("RemoveRow() error = %v", err)
	}
	n, err := h.orc.UndoBulk(ctx)
	if err != nil || n != 1 {
		t.Fatalf("UndoBulk() = %d, %v", n, err)
	}
	if r, _ := h.orc.Row(2); r.Rewritten != "" {
		t.Fatalf("shifted row not reverted: %q", r.Rewritten)
	}
}

func (h *harness) mustID(t *testing.T, pos int) string {
	t.Helper()
	r, ok := h.orc.Row(pos)
	if !ok {
		t.Fatalf("no row at position %d", pos)
	}
	return r.ID
}
