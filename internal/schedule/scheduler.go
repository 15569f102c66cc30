package schedule

import (
	"context"
	"strings"
	"time"

	"github.com/ramanasai/brain/internal/config"
)

// NextAt computes the next occurrence of reminder time that is on a configured workday and not a holiday.
func NextAt(now time.Time, cfg config.Config) time.Time {
	loc := cfg.Location()
	now = now.In(loc)

	// parse "HH:MM"
	hour, min := 9, 0
	if t, err := time.ParseInLocation("15:04", cfg.Reminder.Time, loc); err == nil {
		hour = t.Hour()
		min = t.Minute()
	}
	workdays := map[string]bool{}
	for _, d := range cfg.Reminder.Workdays {
		if d = strings.TrimSpace(d); len(d) >= 3 {
			workdays[strings.ToLower(d[:3])] = true
		}
	}
	if len(workdays) == 0 {
		for _, d := range []string{"mon", "tue", "wed", "thu", "fri"} {
			workdays[d] = true
		}
	}
	isWorkday := func(t time.Time) bool {
		return workdays[strings.ToLower(t.Weekday().String()[:3])]
	}
	holidays := map[string]bool{}
	for _, h := range cfg.Reminder.Holidays {
		holidays[strings.TrimSpace(h)] = true
	}
	isHoliday := func(t time.Time) bool {
		return holidays[t.Format("2006-01-02")]
	}

	// candidate today at hh:mm
	cand := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, loc)
	if !now.Before(cand) {
		cand = cand.AddDate(0, 0, 1)
	}
	for i := 0; i < 366; i++ {
		if isWorkday(cand) && !isHoliday(cand) {
			return cand
		}
		cand = cand.AddDate(0, 0, 1)
	}
	return cand
}

// Clock abstracts time for RunConfigured.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RunConfigured runs f at the configured schedule until ctx is canceled.
func RunConfigured(ctx context.Context, cfg config.Config, f func(now time.Time)) {
	RunWithClock(ctx, cfg, realClock{}, f)
}

// RunWithClock is RunConfigured with an explicit clock.
func RunWithClock(ctx context.Context, cfg config.Config, clk Clock, f func(now time.Time)) {
	for ctx.Err() == nil {
		now := clk.Now()
		next := NextAt(now, cfg)
		select {
		case <-ctx.Done():
			return
		case t := <-clk.After(next.Sub(now)):
			f(t)
		}
	}
}
