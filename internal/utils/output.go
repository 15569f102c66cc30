package utils

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ramanasai/brain/internal/filter"
	"github.com/ramanasai/brain/internal/row"
)

// OutputFormat represents different output formats
type OutputFormat string

const (
	FormatDefault OutputFormat = "default"
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatCompact OutputFormat = "compact"
	FormatQuiet   OutputFormat = "quiet"
)

// ParseFormat resolves a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "", FormatDefault:
		return FormatDefault, nil
	case FormatTable, FormatJSON, FormatCompact, FormatQuiet:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want default, table, json, compact or quiet)", s)
}

// RenderConfig contains configuration for output rendering
type RenderConfig struct {
	Format   OutputFormat
	Width    int
	ShowBody bool
	Color    bool
	Location *time.Location
	// Colors maps category names to configured colours.
	Colors map[string]string
}

// DefaultRenderConfig returns a default render configuration
func DefaultRenderConfig() *RenderConfig {
	width := 100
	if colEnv := os.Getenv("COLUMNS"); colEnv != "" {
		if v, err := strconv.Atoi(colEnv); err == nil && v > 40 {
			width = v
		}
	}
	return &RenderConfig{
		Format:   FormatDefault,
		Width:    width,
		ShowBody: true,
		Color:    true,
		Location: time.Local,
	}
}

// RowList is a page of rows plus what produced it.
type RowList struct {
	Rows       []row.Row         `json:"entries"`
	Total      int               `json:"total"`
	Page       int               `json:"page,omitempty"`
	PerPage    int               `json:"per_page,omitempty"`
	TotalPages int               `json:"total_pages,omitempty"`
	Query      string            `json:"query,omitempty"`
	Filters    map[string]string `json:"filters,omitempty"`
}

// Renderer handles output formatting
type Renderer struct {
	config *RenderConfig
	styles *Styles
}

// Styles contains lipgloss styles for different elements
type Styles struct {
	Title     lipgloss.Style
	Separator lipgloss.Style
	Meta      lipgloss.Style
	Position  lipgloss.Style
	Category  lipgloss.Style
	Tags      lipgloss.Style
	Text      lipgloss.Style
	Label     lipgloss.Style
	Pending   lipgloss.Style
	Progress  lipgloss.Style
	Done      lipgloss.Style
}

// NewRenderer creates a new renderer with the given config
func NewRenderer(config *RenderConfig) *Renderer {
	if config == nil {
		config = DefaultRenderConfig()
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	return &Renderer{config: config, styles: initStyles(config.Color)}
}

// Format is the output format the renderer writes.
func (r *Renderer) Format() OutputFormat { return r.config.Format }

func initStyles(color bool) *Styles {
	if !color {
		plain := lipgloss.NewStyle()
		bold := plain.Bold(true)
		return &Styles{
			Title: bold, Separator: plain, Meta: plain, Position: plain, Category: bold,
			Tags: plain, Text: plain, Label: bold, Pending: plain, Progress: plain, Done: plain,
		}
	}
	return &Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		Meta:      lipgloss.NewStyle().Faint(true),
		Position:  lipgloss.NewStyle().Faint(true),
		Category:  lipgloss.NewStyle().Bold(true),
		Tags:      lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("#CBA6F7")),
		Text:      lipgloss.NewStyle(),
		Label:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89B4FA")),
		Pending:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FAB387")),
		Progress:  lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA")),
		Done:      lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
	}
}

// RenderRows renders a list of rows according to the configured format
func (r *Renderer) RenderRows(list *RowList) (string, error) {
	switch r.config.Format {
	case FormatJSON:
		return r.renderJSON(list)
	case FormatTable:
		return r.renderTable(list), nil
	case FormatCompact:
		return r.renderCompact(list), nil
	case FormatQuiet:
		return r.renderQuiet(list), nil
	default:
		return r.renderCards(list), nil
	}
}

func (r *Renderer) rule() string {
	return r.styles.Separator.Render(strings.Repeat("─", min(r.config.Width, 120)))
}

func (r *Renderer) renderCards(list *RowList) string {
	var b strings.Builder

	if list.Query != "" {
		b.WriteString(r.styles.Title.Render("Search Results"))
		b.WriteString("  ")
		b.WriteString(r.styles.Separator.Render("query: "))
		b.WriteString(list.Query)
	} else {
		b.WriteString(r.styles.Title.Render("Entries"))
	}
	for _, k := range sortedKeys(list.Filters) {
		b.WriteString("  ")
		b.WriteString(r.styles.Meta.Render(k + "=" + list.Filters[k]))
	}
	b.WriteString("\n")
	b.WriteString(r.rule())
	b.WriteString("\n")

	if len(list.Rows) == 0 {
		b.WriteString(r.styles.Meta.Render("No entries match."))
		b.WriteString("\n")
		return b.String()
	}

	if list.TotalPages > 1 {
		p := NewPagination(list.Total, list.PerPage, list.Page)
		b.WriteString(r.styles.Meta.Render(p.FormatSummary()))
		b.WriteString("\n")
	}

	for _, e := range list.Rows {
		b.WriteString(r.renderCard(e))
		b.WriteString(r.rule())
		b.WriteString("\n")
	}

	if list.TotalPages > 1 {
		p := NewPagination(list.Total, list.PerPage, list.Page)
		if nav := p.FormatNavigation(); nav != "" {
			b.WriteString(r.styles.Meta.Render(nav))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (r *Renderer) renderCard(e row.Row) string {
	var b strings.Builder

	// Meta line: #pos date category/sub status tags
	meta := []string{r.styles.Position.Render(fmt.Sprintf("#%d", e.Position))}
	if d := r.date(e); d != "" {
		meta = append(meta, r.styles.Meta.Render(d))
	}
	if e.Category != "" {
		cat := e.Category
		if e.SubCategory != "" {
			cat += "/" + e.SubCategory
		}
		meta = append(meta, r.categoryStyle(e.Category).Render(cat))
	}
	if e.TaskStatus != "" {
		meta = append(meta, r.statusStyle(e.TaskStatus).Render(e.TaskStatus))
	}
	if tags := row.ParseTags(e.Tags); len(tags) > 0 {
		meta = append(meta, r.styles.Tags.Render("#"+strings.Join(tags, " #")))
	}
	b.WriteString(strings.Join(meta, "  "))
	b.WriteString("\n")

	title := e.Title
	if title == "" {
		title = "Untitled"
	}
	b.WriteString(r.styles.Title.Render(title))
	b.WriteString("\n")

	if r.config.ShowBody {
		if body := e.Body(); body != "" {
			b.WriteString(r.styles.Text.Render("  " + Truncate(oneLine(body), r.config.Width-2)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderRow renders every field of one row.
func (r *Renderer) RenderRow(e row.Row) string {
	var b strings.Builder
	title := e.Title
	if title == "" {
		title = "Untitled"
	}
	b.WriteString(r.styles.Title.Render(fmt.Sprintf("#%d %s", e.Position, title)))
	b.WriteString("\n")
	b.WriteString(r.rule())
	b.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(r.styles.Label.Render(label + ":"))
		if strings.Contains(value, "\n") {
			b.WriteString("\n")
			for _, l := range row.SplitLines(value) {
				b.WriteString("  " + l + "\n")
			}
			return
		}
		b.WriteString(" " + value + "\n")
	}
	field("Sr No", e.SrNo)
	field("Category", e.Category)
	field("Sub Category", e.SubCategory)
	field("Status", e.TaskStatus)
	field("Due", e.DueDate)
	field("Tags", e.Tags)
	field("Created", r.formatTime(e.CreatedAt))
	field("Updated", r.formatTime(e.UpdatedAt))
	field("Original", e.Original)
	field("Rewritten", e.Rewritten)
	field("Action Items", e.ActionItems)
	field("Links", e.Links)
	field("Media", e.MediaURL)
	return b.String()
}

func (r *Renderer) renderJSON(list *RowList) (string, error) {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func (r *Renderer) renderTable(list *RowList) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.styles.Separator).
		Headers("#", "Title", "Category", "Status", "Due", "Tags", "Updated").
		StyleFunc(func(rowIdx, col int) lipgloss.Style {
			if rowIdx == 0 {
				return r.styles.Label.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, e := range list.Rows {
		t.Row(
			strconv.Itoa(e.Position),
			Truncate(e.Title, 40),
			e.Category,
			e.TaskStatus,
			e.DueDate,
			Truncate(e.Tags, 24),
			r.date(row.Row{UpdatedAt: e.UpdatedAt}),
		)
	}
	return t.Render() + "\n"
}

func (r *Renderer) renderCompact(list *RowList) string {
	var b strings.Builder
	for _, e := range list.Rows {
		line := fmt.Sprintf("%s %s %s",
			r.styles.Position.Render(fmt.Sprintf("%4d", e.Position)),
			r.categoryStyle(e.Category).Render(fmt.Sprintf("%-10s", Truncate(e.Category, 10))),
			Truncate(oneLine(firstNonEmpty(e.Title, e.Body())), 80))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// renderQuiet prints positions only, for scripting.
func (r *Renderer) renderQuiet(list *RowList) string {
	var b strings.Builder
	for _, e := range list.Rows {
		b.WriteString(strconv.Itoa(e.Position))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderStats renders the status counts and facets.
func (r *Renderer) RenderStats(c filter.Counts, f filter.Facets) string {
	var b strings.Builder
	b.WriteString(r.styles.Title.Render("Knowledge base"))
	b.WriteString("\n")
	b.WriteString(r.rule())
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %d   %s %d   %s %d   %s %d\n",
		r.styles.Label.Render("Total"), c.Total,
		r.styles.Pending.Render("Pending"), c.Pending,
		r.styles.Progress.Render("In progress"), c.Progress,
		r.styles.Done.Render("Done"), c.Done)
	if len(f.Categories) > 0 {
		b.WriteString(r.styles.Label.Render("Categories:"))
		b.WriteString(" " + strings.Join(f.Categories, ", "))
		b.WriteString("\n")
	}
	if len(f.Tags) > 0 {
		b.WriteString(r.styles.Label.Render("Top tags:"))
		b.WriteString(" ")
		b.WriteString(r.styles.Tags.Render("#" + strings.Join(f.Tags, " #")))
		b.WriteString("\n")
	}
	return b.String()
}

// date shows the due date when set, else the creation day.
func (r *Renderer) date(e row.Row) string {
	if e.DueDate != "" {
		return e.DueDate
	}
	for _, s := range []string{e.CreatedAt, e.UpdatedAt} {
		if t := row.ParseTime(s); !t.IsZero() {
			return t.In(r.config.Location).Format("2006-01-02")
		}
	}
	return ""
}

func (r *Renderer) formatTime(s string) string {
	t := row.ParseTime(s)
	if t.IsZero() {
		return s
	}
	return t.In(r.config.Location).Format("2006-01-02 15:04")
}

func (r *Renderer) categoryStyle(cat string) lipgloss.Style {
	if !r.config.Color || cat == "" {
		return r.styles.Category
	}
	if c, ok := r.config.Colors[cat]; ok && c != "" {
		return r.styles.Category.Foreground(lipgloss.Color(c))
	}
	return r.styles.Category.Foreground(ColorForCategory(cat))
}

func (r *Renderer) statusStyle(status string) lipgloss.Style {
	switch row.StatusBucket(status) {
	case row.BucketDone:
		return r.styles.Done
	case row.BucketProgress:
		return r.styles.Progress
	default:
		return r.styles.Pending
	}
}

var palette = []lipgloss.Color{"#F9E2AF", "#F5C2E7", "#A6E3A1", "#89B4FA", "#94E2D5", "#FAB387", "#CBA6F7", "#F38BA8"}

// ColorForCategory picks a stable palette colour for a category name.
func ColorForCategory(cat string) lipgloss.Color {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(cat)))
	return palette[h.Sum32()%uint32(len(palette))]
}

// Truncate cuts s to n runes, ending with an ellipsis when cut.
func Truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(rs[:n-1]) + "…"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
