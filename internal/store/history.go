package store

func (s *Store) push(m map[string][]Entry, id string, e Entry) {
	e.Fields = e.Fields.Clone()
	st := append(m[id], e)
	if over := len(st) - s.maxDepth; over > 0 {
		st = append(st[:0:0], st[over:]...)
	}
	m[id] = st
}

func pop(m map[string][]Entry, id string) (Entry, bool) {
	st := m[id]
	if len(st) == 0 {
		return Entry{}, false
	}
	e := st[len(st)-1]
	if len(st) == 1 {
		delete(m, id)
	} else {
		m[id] = st[:len(st)-1]
	}
	return e, true
}

// PushHistory pushes e onto the undo stack of row id.
func (s *Store) PushHistory(id string, e Entry) {
	s.mu.Lock()
	s.push(s.history, id, e)
	s.mu.Unlock()
	s.emit(EventHistory)
}

// PopHistory pops the most recent undo entry of row id.
func (s *Store) PopHistory(id string) (Entry, bool) {
	s.mu.Lock()
	e, ok := pop(s.history, id)
	s.mu.Unlock()
	if ok {
		s.emit(EventHistory)
	}
	return e, ok
}

// PushFuture pushes e onto the redo stack of row id.
func (s *Store) PushFuture(id string, e Entry) {
	s.mu.Lock()
	s.push(s.future, id, e)
	s.mu.Unlock()
	s.emit(EventHistory)
}

// PopFuture pops the most recent redo entry of row id.
func (s *Store) PopFuture(id string) (Entry, bool) {
	s.mu.Lock()
	e, ok := pop(s.future, id)
	s.mu.Unlock()
	if ok {
		s.emit(EventHistory)
	}
	return e, ok
}

// ClearFuture drops the redo stack of row id.
func (s *Store) ClearFuture(id string) {
	s.mu.Lock()
	delete(s.future, id)
	s.mu.Unlock()
	s.emit(EventHistory)
}

// TakeHistory removes and returns the most recent undo entry of row id that
// satisfies match.
func (s *Store) TakeHistory(id string, match func(Entry) bool) (Entry, bool) {
	s.mu.Lock()
	st := s.history[id]
	for i := len(st) - 1; i >= 0; i-- {
		if !match(st[i]) {
			continue
		}
		e := st[i]
		rest := append(st[:i:i], st[i+1:]...)
		if len(rest) == 0 {
			delete(s.history, id)
		} else {
			s.history[id] = rest
		}
		s.mu.Unlock()
		s.emit(EventHistory)
		return e, true
	}
	s.mu.Unlock()
	return Entry{}, false
}

// InsertHistory puts e back at index i of the undo stack of row id.
func (s *Store) InsertHistory(id string, i int, e Entry) {
	s.mu.Lock()
	st := s.history[id]
	if i < 0 || i > len(st) {
		i = len(st)
	}
	st = append(st[:i:i], append([]Entry{e}, st[i:]...)...)
	s.history[id] = st
	s.mu.Unlock()
	s.emit(EventHistory)
}

// History returns a copy of the undo stack of row id, oldest first.
func (s *Store) History(id string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.history[id]...)
}

// HistoryDepth returns the undo stack size of row id.
func (s *Store) HistoryDepth(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history[id])
}

// FutureDepth returns the redo stack size of row id.
func (s *Store) FutureDepth(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.future[id])
}

// SetBulk records run as the most recent bulk pass.
func (s *Store) SetBulk(run BulkRun) {
	s.mu.Lock()
	s.bulk = &run
	s.mu.Unlock()
	s.emit(EventHistory)
}

// Bulk returns the most recent bulk pass, if any.
func (s *Store) Bulk() (BulkRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bulk == nil {
		return BulkRun{}, false
	}
	return *s.bulk, true
}

// ClearBulk forgets the bulk pass.
func (s *Store) ClearBulk() {
	s.mu.Lock()
	s.bulk = nil
	s.mu.Unlock()
	s.emit(EventHistory)
}
