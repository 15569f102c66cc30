package store

import (
	"fmt"
	"testing"

	"github.com/ramanasai/brain/internal/row"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func rowsN(n int) []row.Row {
	out := make([]row.Row, n)
	for i := range out {
		out[i] = row.Row{
			Position:  i + 2,
			SrNo:      fmt.Sprint(i + 1),
			Title:     fmt.Sprintf("row %d", i+1),
			CreatedAt: fmt.Sprintf("2025-01-%02dT00:00:00.000Z", i+1),
		}
	}
	return out
}

func TestSetRowsAssignsIDs(t *testing.T) {
	s := New(WithIDFunc(seqIDs()))
	s.SetRows(rowsN(3))
	seen := map[string]bool{}
	for _, r := range s.Rows() {
		if r.ID == "" || seen[r.ID] {
			t.Fatalf("bad id %q", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestSetRowsKeepsIDAcrossPositionShift(t *testing.T) {
	s := New(WithIDFunc(seqIDs()))
	s.SetRows(rowsN(4))
	before, _ := s.Row(5)

	// delete the row at position 3 remotely: later rows shift up by one
	shifted := rowsN(4)
	shifted = append(shifted[:1], shifted[2:]...)
	for i := range shifted {
		shifted[i].Position = i + 2
	}
	s.SetRows(shifted)

	after, ok := s.Row(4)
	if !ok {
		t.Fatal("row 4 missing after shift")
	}
	if after.ID != before.ID {
		t.Fatalf("id changed across shift: %q -> %q", before.ID, after.ID)
	}
}

func TestSetRowsMatchesBareRowsByContent(t *testing.T) {
	s := New(WithIDFunc(seqIDs()))
	s.SetRows([]row.Row{{Position: 2, Title: "A"}, {Position: 3, Title: "B"}, {Position: 4, Title: "C"}})
	b, _ := s.Row(3)
	c, _ := s.Row(4)

	// B deleted elsewhere: C now sits where B was.
	s.SetRows([]row.Row{{Position: 2, Title: "A"}, {Position: 3, Title: "C"}})
	got, _ := s.Row(3)
	if got.ID != c.ID {
		t.Fatalf("Row(3).ID = %q, want C's id %q (B was %q)", got.ID, c.ID, b.ID)
	}
	if _, ok := s.RowByID(b.ID); ok {
		t.Fatal("B's id survived its deletion")
	}
}

func TestSetRowsNeedsContentForPositionMatch(t *testing.T) {
	s := New(WithIDFunc(seqIDs()))
	s.SetRows([]row.Row{{Position: 2, Title: "a"}, {Position: 3, Title: "b"}})
	first, _ := s.Row(2)
	s.SetRows([]row.Row{{Position: 2, Title: "a"}, {Position: 3, Title: "b"}})
	if again, _ := s.Row(2); again.ID != first.ID {
		t.Fatalf("unchanged row got a new id: %q -> %q", first.ID, again.ID)
	}
	s.SetRows([]row.Row{{Position: 2, Title: "something else"}, {Position: 3, Title: "b"}})
	if other, _ := s.Row(2); other.ID == first.ID {
		t.Fatalf("different row at the same position inherited id %q", first.ID)
	}
}

func TestSetRowsDuplicateContentPrefersSamePosition(t *testing.T) {
	s := New(WithIDFunc(seqIDs()))
	s.SetRows([]row.Row{{Position: 2, Title: "same"}, {Position: 3, Title: "same"}})
	a, _ := s.Row(2)
	b, _ := s.Row(3)
	s.SetRows([]row.Row{{Position: 2, Title: "same"}, {Position: 3, Title: "same"}})
	if got, _ := s.Row(2); got.ID != a.ID {
		t.Fatalf("Row(2).ID = %q, want %q", got.ID, a.ID)
	}
	if got, _ := s.Row(3); got.ID != b.ID {
		t.Fatalf("Row(3).ID = %q, want %q", got.ID, b.ID)
	}
}

func TestSetRowsPrunesStacksOfVanishedRows(t *testing.T) {
	s := New(WithIDFunc(seqIDs()))
	s.SetRows(rowsN(2))
	r, _ := s.Row(3)
	s.PushHistory(r.ID, Entry{Fields: row.Patch{row.Title: "x"}})
	s.SetRows(rowsN(1))
	if d := s.HistoryDepth(r.ID); d != 0 {
		t.Fatalf("HistoryDepth() = %d after prune", d)
	}
}

func TestPatchMarksDirty(t *testing.T) {
	s := New()
	s.SetRows(rowsN(2))
	got, ok := s.Patch(2, row.Patch{row.Title: "new"})
	if !ok || !got.Dirty || got.Title != "new" {
		t.Fatalf("Patch() = %+v, %v", got, ok)
	}
	if _, ok := s.Patch(99, row.Patch{}); ok {
		t.Fatal("Patch() on missing row reported ok")
	}
	s.Restore(2, row.Patch{row.Title: "row 1"})
	got, _ = s.Row(2)
	if got.Dirty || got.Title != "row 1" {
		t.Fatalf("Restore() left %+v", got)
	}
}

func TestRemove(t *testing.T) {
	s := New()
	s.SetRows(rowsN(3))
	if !s.Remove(3) {
		t.Fatal("Remove() = false")
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d", s.Len())
	}
	// the row from position 4 moves up
	if r, ok := s.Row(3); !ok || r.Title != "row 3" {
		t.Fatalf("Row(3) = %+v, %v", r, ok)
	}
	if _, ok := s.Row(4); ok {
		t.Fatal("position 4 still present")
	}
	if s.Remove(9) {
		t.Fatal("Remove(9) = true")
	}
}

func TestHistoryStacks(t *testing.T) {
	s := New(WithMaxDepth(2))
	s.PushHistory("a", Entry{Label: "1"})
	s.PushHistory("a", Entry{Label: "2"})
	s.PushHistory("a", Entry{Label: "3"})
	if d := s.HistoryDepth("a"); d != 2 {
		t.Fatalf("HistoryDepth() = %d, want cap 2", d)
	}
	e, ok := s.PopHistory("a")
	if !ok || e.Label != "3" {
		t.Fatalf("PopHistory() = %+v, %v", e, ok)
	}
	e, _ = s.PopHistory("a")
	if e.Label != "2" {
		t.Fatalf("oldest entry should have been evicted, got %q", e.Label)
	}
	if _, ok := s.PopHistory("a"); ok {
		t.Fatal("PopHistory() on empty stack = ok")
	}

	s.PushFuture("a", Entry{Label: "f"})
	if s.FutureDepth("a") != 1 {
		t.Fatal("FutureDepth() != 1")
	}
	s.ClearFuture("a")
	if s.FutureDepth("a") != 0 {
		t.Fatal("ClearFuture() did not clear")
	}
}

func TestPushClonesFields(t *testing.T) {
	s := New()
	p := row.Patch{row.Title: "before"}
	s.PushHistory("a", Entry{Fields: p})
	p[row.Title] = "mutated"
	e, _ := s.PopHistory("a")
	if e.Fields[row.Title] != "before" {
		t.Fatalf("stored entry aliased caller map: %q", e.Fields[row.Title])
	}
}

func TestTakeHistoryFindsMostRecentMatch(t *testing.T) {
	s := New()
	s.PushHistory("a", Entry{Label: "bulk", RunID: "r1"})
	s.PushHistory("a", Entry{Label: "Edit"})
	s.PushHistory("a", Entry{Label: "bulk", RunID: "r2"})
	s.PushHistory("a", Entry{Label: "Edit"})

	e, ok := s.TakeHistory("a", func(e Entry) bool { return e.Label == "bulk" })
	if !ok || e.RunID != "r2" {
		t.Fatalf("TakeHistory() = %+v, %v", e, ok)
	}
	h := s.History("a")
	if len(h) != 3 || h[2].Label != "Edit" || h[1].Label != "Edit" {
		t.Fatalf("unexpected stack after take: %+v", h)
	}
	if _, ok := s.TakeHistory("a", func(e Entry) bool { return e.Label == "none" }); ok {
		t.Fatal("TakeHistory() matched nothing but returned ok")
	}
}

func TestInsertHistory(t *testing.T) {
	s := New()
	s.PushHistory("a", Entry{Label: "1"})
	s.PushHistory("a", Entry{Label: "3"})
	s.InsertHistory("a", 1, Entry{Label: "2"})
	h := s.History("a")
	if len(h) != 3 || h[1].Label != "2" {
		t.Fatalf("History() = %+v", h)
	}
}

func TestBulkRecord(t *testing.T) {
	s := New()
	if _, ok := s.Bulk(); ok {
		t.Fatal("fresh store has bulk record")
	}
	s.SetBulk(BulkRun{ID: "r", IDs: []string{"a"}})
	if b, ok := s.Bulk(); !ok || b.ID != "r" {
		t.Fatalf("Bulk() = %+v, %v", b, ok)
	}
	s.ClearBulk()
	if _, ok := s.Bulk(); ok {
		t.Fatal("ClearBulk() kept record")
	}
}

func TestSubscribeAndReset(t *testing.T) {
	s := New()
	var kinds []EventKind
	cancel := s.Subscribe(func(e Event) { kinds = append(kinds, e.Kind) })
	s.SetRows(rowsN(1))
	s.Reset()
	cancel()
	s.SetRows(rowsN(1))

	if len(kinds) != 2 || kinds[0] != EventRows || kinds[1] != EventReset {
		t.Fatalf("events = %v", kinds)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d", s.Len())
	}
}
