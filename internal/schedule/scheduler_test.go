package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/ramanasai/brain/internal/config"
)

func reminderConfig() config.Config {
	var cfg config.Config
	cfg.Reminder.Time = "09:00"
	cfg.Reminder.Timezone = "UTC"
	cfg.Reminder.Workdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri"}
	return cfg
}

func TestNextAt(t *testing.T) {
	cfg := reminderConfig()
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before time today", time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC), time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)},
		{"after time today", time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 6, 9, 0, 0, 0, time.UTC)},
		{"friday evening skips weekend", time.Date(2025, 3, 7, 18, 0, 0, 0, time.UTC), time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := NextAt(tt.now, cfg); !got.Equal(tt.want) {
			t.Errorf("%s: NextAt() = %v, want %v", tt.name, got, tt.want)
		}
	}

	cfg.Reminder.Holidays = []string{"2025-03-10"}
	got := NextAt(time.Date(2025, 3, 7, 18, 0, 0, 0, time.UTC), cfg)
	if want := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("NextAt() over holiday = %v, want %v", got, want)
	}
}

type fakeClock struct {
	now   time.Time
	waits []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.waits = append(c.waits, d)
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func TestRunWithClock(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var fired []time.Time
	RunWithClock(ctx, reminderConfig(), clk, func(now time.Time) {
		fired = append(fired, now)
		if len(fired) == 2 {
			cancel()
		}
	})
	if len(fired) != 2 {
		t.Fatalf("fired %d times, want 2", len(fired))
	}
	if want := time.Date(2025, 3, 6, 9, 0, 0, 0, time.UTC); !fired[1].Equal(want) {
		t.Fatalf("second fire = %v, want %v", fired[1], want)
	}
	if clk.waits[0] != time.Hour {
		t.Fatalf("first wait = %v", clk.waits[0])
	}
}
