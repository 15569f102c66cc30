package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// PaginationInfo contains pagination metadata
type PaginationInfo struct {
	Total      int
	PerPage    int
	Current    int
	Offset     int
	TotalPages int
}

// NewPagination creates pagination info. perPage <= 0 puts everything on
// one page.
func NewPagination(total, perPage, current int) *PaginationInfo {
	if perPage <= 0 {
		perPage = max(total, 1)
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	current = min(max(current, 1), totalPages)

	return &PaginationInfo{
		Total:      total,
		PerPage:    perPage,
		Current:    current,
		Offset:     (current - 1) * perPage,
		TotalPages: totalPages,
	}
}

// Paginate returns the items on the current page.
func Paginate[T any](items []T, p *PaginationInfo) []T {
	start, end := p.Offset, min(p.Offset+p.PerPage, len(items))
	if start >= len(items) {
		return nil
	}
	return items[start:end]
}

// GetRange returns the range of items on the current page (1-indexed)
func (p *PaginationInfo) GetRange() (start, end int) {
	return p.Offset + 1, min(p.Offset+p.PerPage, p.Total)
}

func (p *PaginationInfo) HasNext() bool { return p.Current < p.TotalPages }

func (p *PaginationInfo) HasPrev() bool { return p.Current > 1 }

// FormatSummary returns a human-readable summary
func (p *PaginationInfo) FormatSummary() string {
	if p.Total == 0 {
		return "No results"
	}
	start, end := p.GetRange()
	if p.TotalPages == 1 {
		return fmt.Sprintf("Showing %d-%d of %d entr%s", start, end, p.Total, plural(p.Total))
	}
	return fmt.Sprintf("Showing %d-%d of %d entr%s (page %d of %d)",
		start, end, p.Total, plural(p.Total), p.Current, p.TotalPages)
}

// FormatNavigation returns navigation hints for CLI
func (p *PaginationInfo) FormatNavigation() string {
	if p.TotalPages <= 1 {
		return ""
	}
	var hints []string
	if p.HasPrev() {
		hints = append(hints, fmt.Sprintf("use --page %d for previous", p.Current-1))
	}
	if p.HasNext() {
		hints = append(hints, fmt.Sprintf("use --page %d for next", p.Current+1))
	}
	return strings.Join(hints, ", ")
}

func plural(count int) string {
	if count == 1 {
		return "y"
	}
	return "ies"
}

// ParsePage parses a --page value: a number, "first" or "last".
func ParsePage(pageStr string, totalPages int) (int, error) {
	switch s := strings.TrimSpace(strings.ToLower(pageStr)); s {
	case "", "first":
		return 1, nil
	case "last", "end":
		return max(totalPages, 1), nil
	default:
		page, err := strconv.Atoi(s)
		if err != nil || page < 1 {
			return 1, fmt.Errorf("invalid page number: %q", pageStr)
		}
		if totalPages > 0 && page > totalPages {
			page = totalPages
		}
		return page, nil
	}
}
