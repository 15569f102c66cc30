package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeRe = regexp.MustCompile(`^(\d+)\s*(d|day|days|w|week|weeks|m|month|months|y|year|years)( ago)?$`)

// ParseFlexibleDate parses a calendar day for --from, --to and --due. It
// accepts ISO and common written dates plus today, yesterday, tomorrow,
// "in N days", "N days ago" and weekday names (the next one). The result is
// midnight in now's location.
func ParseFlexibleDate(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return time.Time{}, fmt.Errorf("empty date input")
	}
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch input {
	case "today", "now":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	future := strings.HasPrefix(input, "in ")
	if m := relativeRe.FindStringSubmatch(strings.TrimPrefix(input, "in ")); m != nil {
		n, _ := strconv.Atoi(m[1])
		if !future {
			n = -n
		}
		switch m[2][0] {
		case 'd':
			return today.AddDate(0, 0, n), nil
		case 'w':
			return today.AddDate(0, 0, 7*n), nil
		case 'm':
			return today.AddDate(0, n, 0), nil
		default:
			return today.AddDate(n, 0, 0), nil
		}
	}

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if input == name || input == name[:3] || input == "next "+name {
			delta := (int(wd) - int(today.Weekday()) + 7) % 7
			if delta == 0 {
				delta = 7
			}
			return today.AddDate(0, 0, delta), nil
		}
	}

	formats := []string{
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
		"Jan 2, 2006",
		"2 Jan 2006",
		"January 2, 2006",
		"2 January 2006",
		"Jan 2",
		"2 Jan",
	}
	for _, format := range formats {
		t, err := time.ParseInLocation(format, input, loc)
		if err != nil {
			continue
		}
		if !strings.Contains(format, "2006") {
			t = t.AddDate(now.Year(), 0, 0)
		}
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, strings.ToUpper(input)); err == nil {
		t = t.In(loc)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", input)
}

// GetDateRange returns the inclusive first and last day of a preset.
func GetDateRange(preset string, now time.Time) (time.Time, time.Time, error) {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch strings.ToLower(preset) {
	case "today":
		return today, today, nil
	case "yesterday":
		y := today.AddDate(0, 0, -1)
		return y, y, nil
	case "week":
		weekday := int(today.Weekday())
		if weekday == 0 { // Sunday
			weekday = 7
		}
		start := today.AddDate(0, 0, -(weekday - 1))
		return start, start.AddDate(0, 0, 6), nil
	case "month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, -1), nil
	case "year":
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, -1), nil
	case "last7days", "last-7-days":
		return today.AddDate(0, 0, -6), today, nil
	case "last30days", "last-30-days":
		return today.AddDate(0, 0, -29), today, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown date preset: %s", preset)
	}
}
