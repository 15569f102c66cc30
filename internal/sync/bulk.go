package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ramanasai/brain/internal/row"
	"github.com/ramanasai/brain/internal/store"
)

// ProduceFunc computes the patch for one row of a bulk run. An empty patch
// leaves the row untouched.
type ProduceFunc func(ctx context.Context, r row.Row) (row.Patch, error)

// BulkReport summarises a bulk run.
type BulkReport struct {
	RunID   string
	Updated int
	Skipped int
	Failed  int
	Errors  []error
}

// RunBulk applies produce to the rows at positions, one at a time, saving
// each non-empty patch under label. Per-row failures are counted and the run
// continues. The touched rows are recorded for UndoBulk. progress, when set,
// is called after every row.
func (o *Orchestrator) RunBulk(ctx context.Context, positions []int, label string, produce ProduceFunc, progress func(done, total int)) (BulkReport, error) {
	if label == "" {
		label = LabelEdit
	}
	rep := BulkReport{RunID: uuid.NewString()}
	run := store.BulkRun{ID: rep.RunID, Label: label}

	// Resolve ids up front: positions shift when other rows are deleted.
	ids := make([]string, 0, len(positions))
	for _, pos := range positions {
		if r, ok := o.store.Row(pos); ok {
			ids = append(ids, r.ID)
		}
	}
	rep.Skipped = len(positions) - len(ids)

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			o.finishBulk(run, rep)
			return rep, err
		}
		r, ok := o.store.RowByID(id)
		if !ok {
			rep.Skipped++
			o.tick(progress, i+1, len(ids))
			continue
		}
		patch, err := produce(ctx, r)
		switch {
		case err != nil:
			o.log.Warn("bulk: produce failed", "pos", r.Position, "err", err)
			rep.Failed++
			rep.Errors = append(rep.Errors, fmt.Errorf("row %d: %w", r.Position, err))
		case len(patch) == 0:
			rep.Skipped++
		default:
			res, err := o.saveRow(ctx, r.Position, patch, label, run.ID)
			if res.written {
				rep.Updated++
				run.IDs = append(run.IDs, id)
				run.Positions = append(run.Positions, r.Position)
			}
			if err != nil && !res.written {
				rep.Failed++
				rep.Errors = append(rep.Errors, err)
			}
		}
		o.tick(progress, i+1, len(ids))
	}
	o.finishBulk(run, rep)
	o.notify(LevelSuccess, "%s: %d updated, %d failed", label, rep.Updated, rep.Failed)
	return rep, nil
}

func (o *Orchestrator) tick(progress func(done, total int), done, total int) {
	if progress != nil {
		progress(done, total)
	}
}

func (o *Orchestrator) finishBulk(run store.BulkRun, rep BulkReport) {
	if rep.Updated > 0 {
		o.store.SetBulk(run)
	}
}

// CanUndoBulk reports whether a bulk run is available to roll back.
func (o *Orchestrator) CanUndoBulk() bool {
	_, ok := o.store.Bulk()
	return ok
}

// UndoBulk reverts every row touched by the most recent bulk run and returns
// how many rows were reverted. Without a run record it does nothing. Rows
// that have vanished, or whose history no longer holds an entry from that
// run, are skipped.
func (o *Orchestrator) UndoBulk(ctx context.Context) (int, error) {
	run, ok := o.store.Bulk()
	if !ok {
		o.notify(LevelInfo, "No bulk run to undo")
		return 0, nil
	}
	match := func(e store.Entry) bool { return e.Label == run.Label && e.RunID == run.ID }

	var (
		reverted int
		errs     []error
	)
	for _, id := range run.IDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		current, ok := o.store.RowByID(id)
		if !ok {
			continue
		}
		e, ok := o.store.TakeHistory(id, match)
		if !ok {
			continue
		}
		o.store.PushFuture(id, store.Entry{
			Fields:  row.Snapshot(current),
			Label:   e.Label,
			RunID:   e.RunID,
			SavedAt: o.now(),
		})
		res, err := o.saveRow(ctx, current.Position, e.Fields, LabelUndo, "")
		if res.written {
			reverted++
		}
		if err != nil {
			if !res.written {
				o.store.PopFuture(id)
				o.store.PushHistory(id, e)
			}
			errs = append(errs, err)
		}
	}
	o.store.ClearBulk()
	o.notify(LevelSuccess, "Reverted %d entries", reverted)
	if len(errs) > 0 {
		return reverted, fmt.Errorf("undo bulk: %w", errors.Join(errs...))
	}
	return reverted, nil
}
