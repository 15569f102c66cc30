// Package filter derives the visible row list from the full list and the
// current filter state. Everything here is pure.
package filter

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ramanasai/brain/internal/row"
)

// SortKey selects the ordering of the visible list.
type SortKey string

const (
	SortDateDesc SortKey = "date-desc"
	SortDateAsc  SortKey = "date-asc"
	SortTitleAsc SortKey = "title-asc"
	SortCatAsc   SortKey = "cat-asc"
	SortNumAsc   SortKey = "num-asc"
	SortNumDesc  SortKey = "num-desc"

	DefaultSort = SortDateDesc
)

// StatusAll disables the status predicate.
const StatusAll = ""

const (
	maxFacetTags   = 30
	dateOnlyLayout = "2006-01-02"
)

// SortKeys lists every key in cycling order.
var SortKeys = []SortKey{SortDateDesc, SortDateAsc, SortTitleAsc, SortCatAsc, SortNumAsc, SortNumDesc}

// ParseSort resolves s, falling back to DefaultSort.
func ParseSort(s string) SortKey {
	for _, k := range SortKeys {
		if string(k) == s {
			return k
		}
	}
	return DefaultSort
}

// Next returns the key after k in SortKeys.
func (k SortKey) Next() SortKey {
	for i, s := range SortKeys {
		if s == k {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return DefaultSort
}

// State is the user's current filter selection. The zero value shows
// everything, newest first.
type State struct {
	Search      string
	Category    string
	SubCategory string
	// Status is one of row.BucketPending, row.BucketProgress, row.BucketDone
	// or StatusAll.
	Status string
	Tags   []string
	Sort   SortKey
	From   time.Time
	To     time.Time
	// Today restricts the range to the current day and overrides From/To.
	Today bool
}

// Active reports whether any predicate is set.
func (s State) Active() bool {
	return strings.TrimSpace(s.Search) != "" || s.Category != "" || s.SubCategory != "" ||
		s.Status != StatusAll || len(s.Tags) > 0 || !s.From.IsZero() || !s.To.IsZero() || s.Today
}

// HasTag reports whether tag is selected.
func (s State) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// ToggleTag returns s with tag added or removed.
func (s State) ToggleTag(tag string) State {
	out := make([]string, 0, len(s.Tags)+1)
	found := false
	for _, t := range s.Tags {
		if strings.EqualFold(t, tag) {
			found = true
			continue
		}
		out = append(out, t)
	}
	if !found {
		out = append(out, tag)
	}
	s.Tags = out
	return s
}

// Apply returns the rows of rows matching st, sorted by st.Sort. rows is not
// modified. now anchors the Today range.
func Apply(rows []row.Row, st State, now time.Time) []row.Row {
	m := newMatcher(st, now)
	out := make([]row.Row, 0, len(rows))
	for _, r := range rows {
		if m.match(r) {
			out = append(out, r)
		}
	}
	Sort(out, st.Sort)
	return out
}

type matcher struct {
	st       State
	search   string
	from, to string
}

func newMatcher(st State, now time.Time) matcher {
	m := matcher{st: st, search: strings.ToLower(strings.TrimSpace(st.Search))}
	if st.Today {
		d := now.Format(dateOnlyLayout)
		m.from, m.to = d, d
		return m
	}
	if !st.From.IsZero() {
		m.from = st.From.Format(dateOnlyLayout)
	}
	if !st.To.IsZero() {
		m.to = st.To.Format(dateOnlyLayout)
	}
	return m
}

func (m matcher) match(r row.Row) bool {
	if m.search != "" && !matchesSearch(r, m.search) {
		return false
	}
	if m.st.Category != "" && r.Category != m.st.Category {
		return false
	}
	if m.st.SubCategory != "" && r.SubCategory != m.st.SubCategory {
		return false
	}
	if m.st.Status != StatusAll && row.StatusBucket(r.TaskStatus) != m.st.Status {
		return false
	}
	if len(m.st.Tags) > 0 && !hasAllTags(r, m.st.Tags) {
		return false
	}
	if m.from != "" || m.to != "" {
		return m.inRange(dateOf(r.CreatedAt)) || m.inRange(dateOf(r.DueDate))
	}
	return true
}

func matchesSearch(r row.Row, q string) bool {
	for _, s := range []string{r.Title, r.Original, r.Rewritten, r.ActionItems, r.Tags, r.Category, r.SubCategory} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

func hasAllTags(r row.Row, want []string) bool {
	have := map[string]bool{}
	for _, t := range row.ParseTags(r.Tags) {
		have[strings.ToLower(t)] = true
	}
	for _, w := range want {
		if !have[strings.ToLower(strings.TrimPrefix(w, "#"))] {
			return false
		}
	}
	return true
}

// dateOf reduces a timestamp or date cell to YYYY-MM-DD, or "".
func dateOf(s string) string {
	t := row.ParseTime(s)
	if t.IsZero() {
		return ""
	}
	return t.Format(dateOnlyLayout)
}

// inRange compares YYYY-MM-DD strings, both ends inclusive.
func (m matcher) inRange(d string) bool {
	if d == "" {
		return false
	}
	if m.from != "" && d < m.from {
		return false
	}
	if m.to != "" && d > m.to {
		return false
	}
	return true
}

// Sort orders rows in place by key. The sort is stable.
func Sort(rows []row.Row, key SortKey) {
	var less func(a, b row.Row) bool
	switch key {
	case SortDateAsc:
		less = func(a, b row.Row) bool { return a.Created().Before(b.Created()) }
	case SortTitleAsc:
		less = func(a, b row.Row) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case SortCatAsc:
		less = func(a, b row.Row) bool { return strings.ToLower(a.Category) < strings.ToLower(b.Category) }
	case SortNumAsc:
		less = func(a, b row.Row) bool { return serial(a) < serial(b) }
	case SortNumDesc:
		less = func(a, b row.Row) bool { return serial(a) > serial(b) }
	default:
		less = func(a, b row.Row) bool { return a.Created().After(b.Created()) }
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
}

var numPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// serial reads the leading number of srNo ("12a" is 12, "1.5" is 1.5);
// anything else sorts as 0.
func serial(r row.Row) float64 {
	m := numPrefix.FindString(strings.TrimSpace(r.SrNo))
	if m == "" {
		return 0
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return n
}
