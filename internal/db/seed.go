package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ramanasai/brain/internal/row"
)

func demoRows(now time.Time) []row.Row {
	day := func(d int) string { return row.Now(now.AddDate(0, 0, d)) }
	date := func(d int) string { return now.AddDate(0, 0, d).Format("2006-01-02") }
	return []row.Row{
		{
			SrNo: "1", Title: "Morning pages", CreatedAt: day(-6), UpdatedAt: day(-6),
			Category: "Journal", Original: "slept badly, want to start running again before work",
			Tags: "health, habits", TaskStatus: "Done",
		},
		{
			SrNo: "2", Title: "Quarterly planning", CreatedAt: day(-4), UpdatedAt: day(-3),
			Category: "Work", SubCategory: "Planning",
			Original:    "need to draft Q3 goals, sync with design and book the offsite",
			Rewritten:   "Draft the Q3 goals, align with the design team and book the team offsite.",
			ActionItems: "Draft Q3 goals\nSync with design\nBook offsite",
			DueDate:     date(1), TaskStatus: "In Progress", Tags: "planning, q3",
		},
		{
			SrNo: "3", Title: "Go generics talk", CreatedAt: day(-2), UpdatedAt: day(-2),
			Category: "Learning", Original: "watch the talk on type parameters, take notes on constraints",
			Links: "https://go.dev/blog/intro-generics", Tags: "golang, video",
		},
		{
			SrNo: "4", Title: "Budget review", CreatedAt: day(-1), UpdatedAt: day(-1),
			Category: "Finance", Original: "check subscriptions, cancel the unused streaming one",
			ActionItems: "List subscriptions\nCancel unused", DueDate: date(0), Tags: "money",
		},
		{
			SrNo: "5", Title: "App idea: plant tracker", CreatedAt: day(0), UpdatedAt: day(0),
			Category: "Ideas", Original: "photo a plant, get watering reminders based on species",
			Tags: "ideas, mobile",
		},
	}
}

// SeedDemo fills an empty data tab with sample entries and reports how many
// were added.
func (d *DB) SeedDemo(ctx context.Context, now time.Time) (int, error) {
	n, err := d.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	rows := demoRows(now)
	for _, r := range rows {
		if err := d.Append(ctx, r); err != nil {
			return 0, fmt.Errorf("seed demo: %w", err)
		}
	}
	d.log.Info("db: seeded demo entries", "count", len(rows))
	return len(rows), nil
}
