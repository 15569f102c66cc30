// Package store is the in-memory row list with per-row edit history.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ramanasai/brain/internal/row"
)

// DefaultMaxDepth bounds each history and future stack.
const DefaultMaxDepth = 50

// Entry is a snapshot of editable fields taken before a save.
type Entry struct {
	Fields  row.Patch
	Label   string
	RunID   string
	SavedAt time.Time
}

// BulkRun records the rows touched by the latest bulk AI pass.
type BulkRun struct {
	ID        string
	Label     string
	IDs       []string
	Positions []int
}

// EventKind tells subscribers what changed.
type EventKind int

const (
	EventRows EventKind = iota
	EventHistory
	EventReset
)

// Event is delivered to subscribers after the store changes.
type Event struct {
	Kind EventKind
}

// Store holds the row list. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	rows       []row.Row
	history    map[string][]Entry
	future     map[string][]Entry
	bulk       *BulkRun
	lastSynced time.Time
	maxDepth   int
	newID      func() string

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithMaxDepth caps history/future stacks at n entries (n <= 0 means default).
func WithMaxDepth(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

// WithIDFunc overrides synthetic id generation.
func WithIDFunc(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		history:  map[string][]Entry{},
		future:   map[string][]Entry{},
		maxDepth: DefaultMaxDepth,
		newID:    uuid.NewString,
		subs:     map[int]func(Event){},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe registers fn for change events and returns its cancel func.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) emit(k EventKind) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(Event{Kind: k})
	}
}

// Rows returns a copy of the current row list.
func (s *Store) Rows() []row.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]row.Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Len returns the number of rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Row returns the row at physical position pos.
func (s *Store) Row(pos int) (row.Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(pos)
	if i < 0 {
		return row.Row{}, false
	}
	return s.rows[i], true
}

// RowByID returns the row with synthetic id id.
func (s *Store) RowByID(id string) (row.Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rows {
		if r.ID == id {
			return r, true
		}
	}
	return row.Row{}, false
}

func (s *Store) indexOf(pos int) int {
	for i, r := range s.rows {
		if r.Position == pos {
			return i
		}
	}
	return -1
}

// SetRows replaces the row list wholesale. Synthetic ids are carried over
// from the previous list so history follows a row when its position shifts.
func (s *Store) SetRows(rows []row.Row) {
	s.mu.Lock()
	next := make([]row.Row, len(rows))
	copy(next, rows)
	s.assignIDs(next)
	s.rows = next
	s.prune()
	s.mu.Unlock()
	s.emit(EventRows)
}

func identityKey(r row.Row) string {
	if r.CreatedAt == "" && r.MessageID == "" {
		return ""
	}
	return r.CreatedAt + "\x00" + r.MessageID
}

// contentKey identifies rows that carry no creation stamp or serial.
func contentKey(r row.Row) string {
	if r.Title == "" && r.Original == "" {
		return ""
	}
	return r.Title + "\x00" + r.Original
}

type prior struct {
	id  string
	pos int
}

func (s *Store) assignIDs(next []row.Row) {
	byKey := map[string][]string{}
	bySr := map[string][]string{}
	byContent := map[string][]prior{}
	for _, r := range s.rows {
		if r.ID == "" {
			continue
		}
		if k := identityKey(r); k != "" {
			byKey[k] = append(byKey[k], r.ID)
		}
		if r.SrNo != "" {
			bySr[r.SrNo] = append(bySr[r.SrNo], r.ID)
		}
		if k := contentKey(r); k != "" {
			byContent[k] = append(byContent[k], prior{id: r.ID, pos: r.Position})
		}
	}
	used := map[string]bool{}
	take := func(m map[string][]string, k string) string {
		for len(m[k]) > 0 {
			id := m[k][0]
			m[k] = m[k][1:]
			if !used[id] {
				return id
			}
		}
		return ""
	}
	// takeContent prefers a row with the same content at the same position.
	takeContent := func(k string, pos int, samePos bool) string {
		for _, p := range byContent[k] {
			if used[p.id] || (samePos && p.pos != pos) {
				continue
			}
			return p.id
		}
		return ""
	}
	assign := func(match func(r row.Row) string) {
		for i := range next {
			if next[i].ID != "" {
				continue
			}
			if id := match(next[i]); id != "" {
				next[i].ID, used[id] = id, true
			}
		}
	}

	for i := range next {
		next[i].ID = ""
	}
	// Strongest evidence first: creation stamp, serial, then content. A bare
	// position is never enough; rows shift when others are deleted.
	assign(func(r row.Row) string {
		if k := identityKey(r); k != "" {
			return take(byKey, k)
		}
		return ""
	})
	assign(func(r row.Row) string {
		if r.SrNo != "" {
			return take(bySr, r.SrNo)
		}
		return ""
	})
	assign(func(r row.Row) string {
		if k := contentKey(r); k != "" {
			return takeContent(k, r.Position, true)
		}
		return ""
	})
	assign(func(r row.Row) string {
		if k := contentKey(r); k != "" {
			return takeContent(k, r.Position, false)
		}
		return ""
	})
	for i := range next {
		if next[i].ID == "" {
			next[i].ID = s.newID()
		}
	}
}

// prune drops stacks of rows that no longer exist.
func (s *Store) prune() {
	live := make(map[string]bool, len(s.rows))
	for _, r := range s.rows {
		live[r.ID] = true
	}
	for id := range s.history {
		if !live[id] {
			delete(s.history, id)
		}
	}
	for id := range s.future {
		if !live[id] {
			delete(s.future, id)
		}
	}
}

// Patch applies p to the row at pos and marks it dirty.
func (s *Store) Patch(pos int, p row.Patch) (row.Row, bool) {
	s.mu.Lock()
	i := s.indexOf(pos)
	if i < 0 {
		s.mu.Unlock()
		return row.Row{}, false
	}
	s.rows[i] = row.Apply(s.rows[i], p)
	s.rows[i].Dirty = true
	out := s.rows[i]
	s.mu.Unlock()
	s.emit(EventRows)
	return out, true
}

// Restore applies p to the row at pos and clears its dirty flag.
func (s *Store) Restore(pos int, p row.Patch) {
	s.mu.Lock()
	if i := s.indexOf(pos); i >= 0 {
		s.rows[i] = row.Apply(s.rows[i], p)
		s.rows[i].Dirty = false
	}
	s.mu.Unlock()
	s.emit(EventRows)
}

// Remove drops the row at pos and moves every later row up by one, the way
// the sheet shifts them.
func (s *Store) Remove(pos int) bool {
	s.mu.Lock()
	i := s.indexOf(pos)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.rows = append(s.rows[:i:i], s.rows[i+1:]...)
	for j := range s.rows {
		if s.rows[j].Position > pos {
			s.rows[j].Position--
		}
	}
	s.mu.Unlock()
	s.emit(EventRows)
	return true
}

// MarkSynced records a successful refresh.
func (s *Store) MarkSynced(t time.Time) {
	s.mu.Lock()
	s.lastSynced = t
	s.mu.Unlock()
}

// LastSynced returns the time of the last successful refresh.
func (s *Store) LastSynced() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSynced
}

// Reset clears rows, stacks and bulk record, e.g. on sign-out.
func (s *Store) Reset() {
	s.mu.Lock()
	s.rows = nil
	s.history = map[string][]Entry{}
	s.future = map[string][]Entry{}
	s.bulk = nil
	s.lastSynced = time.Time{}
	s.mu.Unlock()
	s.emit(EventReset)
}
