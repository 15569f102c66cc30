package row

import (
	"strings"
	"time"
)

// TimeLayout is the ISO-8601 layout used for created/updated timestamps.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Row is one knowledge-base entry backed by one line of the sheet.
type Row struct {
	// Position is the 1-based physical sheet row. Row 1 is the header, so data
	// starts at 2. Deleting a row shifts every later Position down by one.
	Position int `json:"position" yaml:"position"`
	// ID is a synthetic identity assigned by the store. It is never written
	// to the sheet.
	ID    string `json:"-" yaml:"-"`
	Dirty bool   `json:"-" yaml:"-"`

	SrNo        string `json:"srNo" yaml:"sr_no"`
	Title       string `json:"title" yaml:"title"`
	CreatedAt   string `json:"createdAt" yaml:"created_at"`
	UpdatedAt   string `json:"updatedAt" yaml:"updated_at"`
	Category    string `json:"category" yaml:"category"`
	SubCategory string `json:"subCategory" yaml:"sub_category"`
	Original    string `json:"original" yaml:"original"`
	Rewritten   string `json:"rewritten" yaml:"rewritten"`
	ActionItems string `json:"actionItems" yaml:"action_items"`
	DueDate     string `json:"dueDate" yaml:"due_date"`
	TaskStatus  string `json:"taskStatus" yaml:"task_status"`
	Links       string `json:"links" yaml:"links"`
	MediaURL    string `json:"mediaUrl" yaml:"media_url"`
	Tags        string `json:"tags" yaml:"tags"`
	MessageID   string `json:"messageId" yaml:"message_id"`
}

// Blank reports whether the row carries none of the identifying fields.
func (r Row) Blank() bool {
	return r.SrNo == "" && r.Title == "" && r.Original == "" && r.Rewritten == ""
}

// Body returns the most polished text available.
func (r Row) Body() string {
	if r.Rewritten != "" {
		return r.Rewritten
	}
	return r.Original
}

// Created parses CreatedAt, returning the zero time when unparsable.
func (r Row) Created() time.Time { return ParseTime(r.CreatedAt) }

// ParseTime accepts the timestamp shapes found in hand-edited sheets.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, TimeLayout, "2006-01-02 15:04:05", "2006-01-02", "1/2/2006 15:04:05", "1/2/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Now formats t the way new rows are stamped.
func Now(t time.Time) string { return t.UTC().Format(TimeLayout) }

// ParseTags splits a tag cell on , ; or | and strips leading '#'.
func ParseTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == '|' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimPrefix(strings.TrimSpace(p), "#")
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SplitLines splits newline-delimited cells (action items, links).
func SplitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Status buckets used by the filter bar and kanban board.
const (
	BucketPending  = "pending"
	BucketProgress = "progress"
	BucketDone     = "done"
)

// StatusBucket maps a free-form task status onto done/progress/pending.
func StatusBucket(status string) string {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "done"), strings.Contains(s, "complete"):
		return BucketDone
	case strings.Contains(s, "progress"), strings.Contains(s, "doing"):
		return BucketProgress
	default:
		return BucketPending
	}
}
