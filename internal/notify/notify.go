package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/ramanasai/brain/internal/row"
)

const appName = "Brain"

// senders are swapped out in tests.
var (
	sendInfo  = func(title, message string) error { return beeep.Notify(title, message, "") }
	sendAlert = func(title, message string) error { return beeep.Alert(title, message, "") }
)

func Info(title, message string) error {
	return sendInfo(title, message)
}

func Alert(message string) error {
	return sendAlert(appName, message)
}

// DueSoon returns the rows that are not done and whose due date falls before
// now+within, overdue ones included, earliest first.
func DueSoon(rows []row.Row, now time.Time, within time.Duration) []row.Row {
	limit := now.Add(within)
	var out []row.Row
	for _, r := range rows {
		if r.DueDate == "" || row.StatusBucket(r.TaskStatus) == row.BucketDone {
			continue
		}
		due := dueAt(r.DueDate, now.Location())
		if due.IsZero() || due.After(limit) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return dueAt(out[i].DueDate, now.Location()).Before(dueAt(out[j].DueDate, now.Location()))
	})
	return out
}

// dueAt reads a bare date as the start of that day in loc.
func dueAt(s string, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if d, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return d
	}
	return row.ParseTime(s)
}

// FormatDueSoon builds the reminder for rows returned by DueSoon.
func FormatDueSoon(rows []row.Row, now time.Time) (string, string) {
	title := "Entries due soon"
	overdue := 0
	names := make([]string, 0, 3)
	for _, r := range rows {
		if dueAt(r.DueDate, now.Location()).Before(startOfDay(now)) {
			overdue++
		}
		if len(names) < 3 {
			name := r.Title
			if name == "" {
				name = "Untitled"
			}
			names = append(names, name)
		}
	}
	msg := fmt.Sprintf("%d due soon", len(rows))
	if overdue > 0 {
		msg += fmt.Sprintf(" (%d overdue)", overdue)
	}
	if len(names) > 0 {
		msg += ": " + strings.Join(names, ", ")
	}
	if len(rows) > len(names) {
		msg += ", …"
	}
	return title, msg
}

// NewEntry announces a freshly created entry.
func NewEntry(title string) error {
	if title == "" {
		title = "Untitled"
	}
	return Info(appName, "Saved new entry: "+title)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
