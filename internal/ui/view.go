package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ramanasai/brain/internal/ai"
	"github.com/ramanasai/brain/internal/filter"
	"github.com/ramanasai/brain/internal/row"
	"github.com/ramanasai/brain/internal/utils"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	top := m.renderTopBar()
	status := m.statusBar()
	innerH := m.height - lipgloss.Height(top) - lipgloss.Height(status)
	if innerH < 6 {
		innerH = 6
	}

	var body string
	switch {
	case m.needLogin && len(m.rows) == 0:
		body = m.th.BorderDim.Width(m.width - 2).Height(innerH - 2).Render(
			m.th.Title.Render("Not signed in") + "\n\n" +
				"Press L to sign in with Google. Your entries stay in your own sheet.\n" +
				m.th.Hint.Render("Run with --demo to try brain without an account."))
	case m.view == viewTable:
		body = m.renderTableView(m.width, innerH)
	case m.view == viewKanban:
		body = m.renderKanbanView(m.width, innerH)
	default:
		body = m.renderCardsView(m.width, innerH)
	}
	ui := lipgloss.JoinVertical(lipgloss.Left, top, body, status)

	// overlays
	switch m.mode {
	case modeSearch:
		ui = overlayCenter(ui, m.modal("Search", "Type to filter…  Enter to keep, Esc to clear\n\n"+m.search.View()))
	case modeChat:
		ui = overlayCenter(ui, m.modal("Ask about your entries", m.chat.View()+"\n\n"+m.th.Hint.Render(fmt.Sprintf("Uses the %d entries in view • Enter ask • Esc cancel", len(m.rows)))))
	case modeForm:
		title := "New entry"
		if m.form.editing != nil {
			title = fmt.Sprintf("Edit #%d", m.form.editing.Position)
		}
		ui = overlayCenter(ui, m.modal(title, m.form.view(m.th)))
	case modeConfirmDelete:
		r, _ := m.selected()
		ui = overlayCenter(ui, m.modal("Delete entry?", fmt.Sprintf("%s\n\n%s", displayTitle(r), m.th.Hint.Render("y delete • any other key cancels"))))
	case modeAI:
		ui = overlayCenter(ui, m.renderAIMenu())
	case modeBulk:
		ui = overlayCenter(ui, m.renderBulkMenu())
	case modeAnswer:
		ui = overlayCenter(ui, m.modal(m.answerTitle, lipgloss.NewStyle().Width(64).Render(m.answer)+"\n\n"+m.th.Hint.Render("Esc close")))
	case modeDetail:
		if r, ok := m.selected(); ok {
			ui = overlayCenter(ui, m.modal("Entry", m.render.RenderRow(r)+m.historyLine(r)))
		}
	case modeHelp:
		ui = overlayCenter(ui, m.modal("Keys", m.help.FullHelpView(m.keys.FullHelp())))
	}
	return ui
}

func (m Model) renderTopBar() string {
	var filters []string
	if q := strings.TrimSpace(m.filter.Search); q != "" {
		filters = append(filters, "q="+q)
	}
	if m.filter.Category != "" {
		filters = append(filters, "c="+m.filter.Category)
	}
	if m.filter.Status != filter.StatusAll {
		filters = append(filters, "status="+m.filter.Status)
	}
	if m.filter.Today {
		filters = append(filters, "today")
	}
	filterText := ""
	if len(filters) > 0 {
		filterText = "  |  " + strings.Join(filters, " · ")
	}
	sync := "never synced"
	if t := m.app.Sync.LastSynced(); !t.IsZero() {
		sync = "synced " + humanizeAge(t, m.app.Now())
	}
	if m.busy > 0 || m.app.Sync.Syncing() {
		sync = m.spin.View() + " syncing"
	}
	title := fmt.Sprintf("Brain • %s • %s • %d/%d%s  |  %s  |  %s",
		m.app.Mode(), viewNames[m.view], len(m.rows), m.app.Store.Len(), filterText, m.filter.Sort, sync)
	return m.th.TopBar.Render(title)
}

func (m Model) statusBar() string {
	if m.bulkTotal > 0 && m.busy > 0 {
		return m.th.StatusBar.Render(fmt.Sprintf("AI enhancing %d/%d…", m.bulkDone, m.bulkTotal))
	}
	if m.status != "" {
		st := m.th.StatusBar
		if m.statusErr {
			st = st.Foreground(m.th.Error.GetForeground())
		}
		return st.Render(m.status)
	}
	return m.th.StatusBar.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

// window returns the slice bounds of n items of which at most visible fit,
// keeping cursor inside.
func window(n, visible, cursor int) (int, int) {
	if visible <= 0 {
		visible = 1
	}
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := min(n, start+visible)
	return start, end
}

func (m Model) renderCardsView(w, h int) string {
	title := m.th.PanelTitle.Render(fmt.Sprintf("Cards (%d)", len(m.rows)))
	if len(m.rows) == 0 {
		return m.th.border(true).Width(w - 2).Height(h - 2).Render(title + "\n\n" + m.th.Dim.Render("No entries match."))
	}
	const cardHeight = 6
	start, end := window(len(m.rows), (h-4)/cardHeight, m.cursor)
	lines := []string{title}
	for i := start; i < end; i++ {
		lines = append(lines, m.renderCard(w-6, m.rows[i], i == m.cursor))
	}
	if end-start < len(m.rows) {
		lines = append(lines, m.th.Dim.Render(fmt.Sprintf("Cards %d-%d of %d", start+1, end, len(m.rows))))
	}
	return m.th.border(true).Width(w - 2).Height(h - 2).Render(strings.Join(lines, "\n"))
}

func (m Model) renderCard(w int, r row.Row, highlight bool) string {
	cardWidth := min(w, 100)
	if cardWidth < 30 {
		cardWidth = 30
	}
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6e6a86")).
		Padding(0, 1).
		Width(cardWidth)
	if highlight {
		border = border.BorderForeground(lipgloss.Color("#9ccfd8"))
	}

	head := fmt.Sprintf("#%d %s", r.Position, displayTitle(r))
	if r.Category != "" {
		head += " | " + r.Category
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(m.categoryColor(r.Category)).Render(utils.Truncate(head, cardWidth-4))

	var meta []string
	if r.TaskStatus != "" {
		meta = append(meta, r.TaskStatus)
	}
	if r.DueDate != "" {
		meta = append(meta, "due "+r.DueDate)
	}
	if t := r.Created(); !t.IsZero() {
		meta = append(meta, humanizeAge(t, m.app.Now()))
	}
	if r.Rewritten != "" {
		meta = append(meta, "✨")
	}
	metaLine := m.th.Dim.Render(strings.Join(meta, " • "))
	tags := ""
	if list := row.ParseTags(r.Tags); len(list) > 0 {
		tags = m.th.Tags.Render("#" + strings.Join(list, " #"))
	}
	body := utils.Truncate(strings.ReplaceAll(r.Body(), "\n", " "), cardWidth-4)
	return border.Render(lipgloss.JoinVertical(lipgloss.Left, header, metaLine, body, tags))
}

func (m Model) renderTableView(w, h int) string {
	title := m.th.PanelTitle.Render(fmt.Sprintf("Table (%d)", len(m.rows)))
	if len(m.rows) == 0 {
		return m.th.border(true).Width(w - 2).Height(h - 2).Render(title + "\n\n" + m.th.Dim.Render("No entries match."))
	}
	start, end := window(len(m.rows), h-8, m.cursor)
	titleW := max(12, w-70)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(m.th.Dim).
		Headers("#", "Title", "Category", "Status", "Due", "Tags").
		Width(w - 6).
		StyleFunc(func(r, c int) lipgloss.Style {
			// row 0 is the header; data rows are numbered from 1
			if r == 0 {
				return m.th.PanelTitle
			}
			if start+r-1 == m.cursor {
				return m.th.Selected
			}
			return lipgloss.NewStyle()
		})
	for _, r := range m.rows[start:end] {
		t.Row(
			fmt.Sprint(r.Position),
			utils.Truncate(displayTitle(r), titleW),
			utils.Truncate(r.Category, 14),
			utils.Truncate(r.TaskStatus, 12),
			r.DueDate,
			utils.Truncate(r.Tags, 20),
		)
	}
	return m.th.border(true).Width(w - 2).Height(h - 2).Render(title + "\n" + t.Render())
}

var kanbanColumns = []struct{ bucket, name string }{
	{row.BucketPending, "Pending"},
	{row.BucketProgress, "In Progress"},
	{row.BucketDone, "Done"},
}

func (m Model) renderKanbanView(w, h int) string {
	colW := max(20, (w-2)/len(kanbanColumns)-2)
	maxCards := max(1, (h-6)/4)
	selected, ok := m.selected()

	cols := make([]string, 0, len(kanbanColumns))
	for _, c := range kanbanColumns {
		var cards []string
		n := 0
		for _, r := range m.rows {
			if row.StatusBucket(r.TaskStatus) != c.bucket {
				continue
			}
			n++
			if len(cards) < maxCards {
				cards = append(cards, m.renderKanbanCard(colW-4, r, ok && r.Position == selected.Position))
			}
		}
		head := m.th.PanelTitle.Render(fmt.Sprintf("%s (%d)", c.name, n))
		if n > len(cards) {
			cards = append(cards, m.th.Dim.Render(fmt.Sprintf("+%d more", n-len(cards))))
		}
		col := lipgloss.JoinVertical(lipgloss.Left, append([]string{head}, cards...)...)
		cols = append(cols, m.th.border(false).Width(colW).Height(h-2).Render(col))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderKanbanCard(w int, r row.Row, highlight bool) string {
	st := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#585b70")).Width(w)
	if highlight {
		st = st.BorderForeground(lipgloss.Color("#9ccfd8"))
	}
	head := lipgloss.NewStyle().Bold(true).Foreground(m.categoryColor(r.Category)).Render(utils.Truncate(displayTitle(r), w-2))
	meta := r.Category
	if r.DueDate != "" {
		meta = strings.TrimPrefix(meta+" • due "+r.DueDate, " • ")
	}
	return st.Render(head + "\n" + m.th.Dim.Render(utils.Truncate(meta, w-2)))
}

func (m Model) renderAIMenu() string {
	var b strings.Builder
	for i, a := range ai.Actions {
		line := "  " + string(a)
		if i == m.aiCursor {
			line = m.th.Selected.Render("> " + string(a))
		}
		b.WriteString(line + "\n")
	}
	r, _ := m.selected()
	b.WriteString("\n" + m.th.Hint.Render(utils.Truncate("on: "+displayTitle(r), 60)+"\nj/k choose • Enter run • Esc cancel"))
	return m.modal("AI action", b.String())
}

func (m Model) renderBulkMenu() string {
	check := func(on bool) string {
		if on {
			return "[x]"
		}
		return "[ ]"
	}
	o := m.bulkOpts
	var b strings.Builder
	fmt.Fprintf(&b, "Scope: %s  (Tab to change)\n\n", m.th.Value.Render(string(bulkScopes[m.bulkScope])))
	fmt.Fprintf(&b, "1 %s title\n2 %s rewrite\n3 %s tags\n4 %s category\n5 %s action items\n",
		check(o.Title), check(o.Rewrite), check(o.Tags), check(o.Category), check(o.Actions))
	n := len(ai.Select(bulkScopes[m.bulkScope], m.app.Sync.Rows(), m.rows))
	fmt.Fprintf(&b, "\n%d entries in scope\n", n)
	b.WriteString(m.th.Hint.Render("Enter run • Esc cancel • b afterwards undoes the run"))
	return m.modal("AI: Enhance all", b.String())
}

func (m Model) historyLine(r row.Row) string {
	u, f := m.app.Sync.HistoryDepth(r.Position), m.app.Sync.FutureDepth(r.Position)
	if u == 0 && f == 0 {
		return ""
	}
	return "\n" + m.th.Hint.Render(fmt.Sprintf("%d undo • %d redo", u, f))
}

func (m Model) modal(title, content string) string {
	box := lipgloss.JoinVertical(lipgloss.Left,
		m.th.ModalTitle.Render(title),
		"",
		content,
	)
	return m.th.ModalBox.Render(box)
}

func (m Model) categoryColor(cat string) lipgloss.Color {
	if c := m.app.CatalogSnapshot().Colors[cat]; c != "" {
		return lipgloss.Color(c)
	}
	return utils.ColorForCategory(cat)
}

func displayTitle(r row.Row) string {
	if r.Title != "" {
		return r.Title
	}
	if b := strings.TrimSpace(r.Body()); b != "" {
		return strings.SplitN(b, "\n", 2)[0]
	}
	return "Untitled"
}

func overlayCenter(base, modal string) string {
	baseH := lipgloss.Height(base)
	mh := lipgloss.Height(modal)
	topPad := max(0, (baseH-mh)/3)
	return lipgloss.JoinVertical(lipgloss.Left, strings.Repeat("\n", topPad), lipgloss.PlaceHorizontal(lipgloss.Width(base), lipgloss.Center, modal), "")
}

func padRight(s string, w int) string {
	if n := lipgloss.Width(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}

func humanizeAge(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
	return t.In(now.Location()).Format("Jan 02")
}
