// Package sync keeps the local row store consistent with the remote sheet:
// optimistic local mutation, write-through, refetch, revert on failure and
// per-row undo/redo.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/row"
	"github.com/ramanasai/brain/internal/store"
)

// Sentinel labels suppress history recording during undo/redo replays.
const (
	LabelEdit = "Edit"
	LabelUndo = "__undo__"
	LabelRedo = "__redo__"
)

// Gateway is the remote tabular resource.
type Gateway interface {
	Fetch(ctx context.Context) ([]row.Row, error)
	Update(ctx context.Context, r row.Row) error
	Append(ctx context.Context, r row.Row) error
	Delete(ctx context.Context, position int) error
}

// Level grades a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// Notice is a user-facing message emitted by an operation.
type Notice struct {
	Level   Level
	Message string
}

// Orchestrator coordinates the store and the gateway.
type Orchestrator struct {
	store   *store.Store
	gw      Gateway
	log     *slog.Logger
	now     func() time.Time
	notices func(Notice)

	mu      stdsync.Mutex
	issued  uint64
	syncing int

	// applyMu orders SetRows calls; applied is the newest generation shown.
	applyMu stdsync.Mutex
	applied uint64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *Orchestrator) { o.log = l } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// WithNotices delivers user-facing notices to fn.
func WithNotices(fn func(Notice)) Option { return func(o *Orchestrator) { o.notices = fn } }

// New builds an Orchestrator over s and gw.
func New(s *store.Store, gw Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store: s,
		gw:    gw,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Store exposes the underlying row store.
func (o *Orchestrator) Store() *store.Store { return o.store }

func (o *Orchestrator) notify(l Level, format string, args ...any) {
	if o.notices != nil {
		o.notices(Notice{Level: l, Message: fmt.Sprintf(format, args...)})
	}
}

func (o *Orchestrator) begin() {
	o.mu.Lock()
	o.syncing++
	o.mu.Unlock()
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.syncing--
	o.mu.Unlock()
}

// Syncing reports whether a remote call is in flight.
func (o *Orchestrator) Syncing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.syncing > 0
}

// Rows returns the current local rows.
func (o *Orchestrator) Rows() []row.Row { return o.store.Rows() }

// Row returns the local row at pos.
func (o *Orchestrator) Row(pos int) (row.Row, bool) { return o.store.Row(pos) }

// LastSynced returns the time of the last successful refresh.
func (o *Orchestrator) LastSynced() time.Time { return o.store.LastSynced() }

// HistoryDepth returns the undo depth of the row at pos.
func (o *Orchestrator) HistoryDepth(pos int) int {
	r, ok := o.store.Row(pos)
	if !ok {
		return 0
	}
	return o.store.HistoryDepth(r.ID)
}

// FutureDepth returns the redo depth of the row at pos.
func (o *Orchestrator) FutureDepth(pos int) int {
	r, ok := o.store.Row(pos)
	if !ok {
		return 0
	}
	return o.store.FutureDepth(r.ID)
}

// Refresh fetches the whole table and replaces the local rows. A response is
// dropped only when a newer refresh has already been applied, so a failed
// newer refresh never hides an older successful one.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	o.mu.Lock()
	o.issued++
	gen := o.issued
	o.mu.Unlock()

	o.begin()
	defer o.end()

	o.log.Debug("refresh: fetching rows", "gen", gen)
	rows, err := o.gw.Fetch(ctx)
	if err != nil {
		o.log.Warn("refresh failed", "err", err)
		o.notify(LevelError, "Failed to load: %v", err)
		return fmt.Errorf("refresh: %w", err)
	}

	o.applyMu.Lock()
	if gen <= o.applied {
		o.applyMu.Unlock()
		o.log.Debug("refresh: dropping stale response", "gen", gen)
		return nil
	}
	o.applied = gen
	o.store.SetRows(rows)
	o.store.MarkSynced(o.now())
	o.applyMu.Unlock()
	o.log.Debug("refresh: applied", "rows", len(rows))
	if len(rows) == 0 {
		o.notify(LevelInfo, "Sheet is empty, add some entries!")
	} else {
		o.notify(LevelSuccess, "Loaded %d entries", len(rows))
	}
	return nil
}

// SaveRow applies patch to the row at pos optimistically, writes the row and
// reconciles with a refresh. A missing row is a no-op.
func (o *Orchestrator) SaveRow(ctx context.Context, pos int, patch row.Patch, label string) error {
	_, err := o.saveRow(ctx, pos, patch, label, "")
	return err
}

type saveResult struct {
	found   bool
	written bool
}

func isSentinel(label string) bool { return label == LabelUndo || label == LabelRedo }

func (o *Orchestrator) saveRow(ctx context.Context, pos int, patch row.Patch, label, runID string) (saveResult, error) {
	if label == "" {
		label = LabelEdit
	}
	current, ok := o.store.Row(pos)
	if !ok {
		o.log.Debug("save: no row at position", "pos", pos)
		return saveResult{}, nil
	}
	before := row.Snapshot(current)

	o.store.Patch(pos, patch)
	updated := row.Apply(current, patch)
	updated.UpdatedAt = row.Now(o.now())
	updated.Dirty = false

	o.begin()
	defer o.end()

	if err := o.gw.Update(ctx, updated); err != nil {
		o.log.Warn("save failed, reverting", "pos", pos, "err", err)
		o.store.Restore(pos, before)
		o.notify(LevelError, "Save failed: %v", err)
		if rerr := o.Refresh(ctx); rerr != nil {
			o.log.Warn("refresh after failed save", "err", rerr)
		}
		return saveResult{found: true}, fmt.Errorf("save row %d: %w", pos, err)
	}

	if !isSentinel(label) {
		o.store.PushHistory(current.ID, store.Entry{
			Fields:  before,
			Label:   label,
			RunID:   runID,
			SavedAt: o.now(),
		})
		o.store.ClearFuture(current.ID)
	}
	o.notify(LevelSuccess, "Saved ✓")
	res := saveResult{found: true, written: true}
	// The write landed even when the reconcile fails.
	return res, o.Refresh(ctx)
}

// UndoRow reverts the most recent save of the row at pos.
func (o *Orchestrator) UndoRow(ctx context.Context, pos int) error {
	return o.step(ctx, pos, true)
}

// RedoRow re-applies the most recently undone save of the row at pos.
func (o *Orchestrator) RedoRow(ctx context.Context, pos int) error {
	return o.step(ctx, pos, false)
}

func (o *Orchestrator) step(ctx context.Context, pos int, undo bool) error {
	current, ok := o.store.Row(pos)
	if !ok {
		return nil
	}
	pop, push, label, verb := o.store.PopHistory, o.store.PushFuture, LabelUndo, "undo"
	unpop, unpush := o.store.PushHistory, o.store.PopFuture
	if !undo {
		pop, push, label, verb = o.store.PopFuture, o.store.PushHistory, LabelRedo, "redo"
		unpop, unpush = o.store.PushFuture, o.store.PopHistory
	}

	e, ok := pop(current.ID)
	if !ok {
		o.notify(LevelInfo, "Nothing to %s", verb)
		return nil
	}
	push(current.ID, store.Entry{
		Fields:  row.Snapshot(current),
		Label:   e.Label,
		RunID:   e.RunID,
		SavedAt: o.now(),
	})
	res, err := o.saveRow(ctx, pos, e.Fields, label, "")
	if err != nil && !res.written {
		unpush(current.ID)
		unpop(current.ID, e)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", verb, err)
	}
	return nil
}

// CreateRow appends a new entry. A title or original text is required.
func (o *Orchestrator) CreateRow(ctx context.Context, fields row.Patch) error {
	if fields[row.Title] == "" && fields[row.Original] == "" {
		return apperr.Validationf("a title or original text is required")
	}
	now := row.Now(o.now())
	var r row.Row
	for f, v := range fields {
		if f.IsEditable() {
			r.Set(f, v)
		}
	}
	r.CreatedAt, r.UpdatedAt = now, now

	o.begin()
	defer o.end()

	if err := o.gw.Append(ctx, r); err != nil {
		o.log.Warn("create failed", "err", err)
		o.notify(LevelError, "Create failed: %v", err)
		return fmt.Errorf("create row: %w", err)
	}
	o.notify(LevelSuccess, "Entry created ✓")
	return o.Refresh(ctx)
}

// RemoveRow deletes the row at pos locally, then remotely, then refreshes.
// When the remote delete fails the refresh brings the row back.
func (o *Orchestrator) RemoveRow(ctx context.Context, pos int) error {
	o.store.Remove(pos)

	o.begin()
	defer o.end()

	if err := o.gw.Delete(ctx, pos); err != nil {
		o.log.Warn("delete failed", "pos", pos, "err", err)
		o.notify(LevelError, "Delete failed: %v", err)
		if rerr := o.Refresh(ctx); rerr != nil {
			o.log.Warn("refresh after failed delete", "err", rerr)
		}
		return fmt.Errorf("delete row %d: %w", pos, err)
	}
	o.notify(LevelSuccess, "Entry deleted")
	return o.Refresh(ctx)
}
