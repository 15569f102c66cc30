// Package ui is the terminal front end: cards, table and kanban views over
// the loaded rows, with editing, undo and AI actions.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ramanasai/brain/internal/ai"
	"github.com/ramanasai/brain/internal/app"
	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/db"
	"github.com/ramanasai/brain/internal/filter"
	"github.com/ramanasai/brain/internal/row"
	bsync "github.com/ramanasai/brain/internal/sync"
	"github.com/ramanasai/brain/internal/utils"
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeForm
	modeConfirmDelete
	modeAI
	modeBulk
	modeChat
	modeAnswer
	modeDetail
	modeHelp
)

type viewMode int

const (
	viewCards viewMode = iota
	viewTable
	viewKanban
)

var viewNames = []string{"cards", "table", "kanban"}

func parseViewMode(s string) viewMode {
	for i, n := range viewNames {
		if n == s {
			return viewMode(i)
		}
	}
	return viewCards
}

var statusCycle = []string{filter.StatusAll, row.BucketPending, row.BucketProgress, row.BucketDone}

var bulkScopes = []ai.Scope{ai.ScopeUnenhanced, ai.ScopeAll, ai.ScopeFiltered}

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WriteAll

// Events carries notices and bulk progress from background goroutines into
// the program. Pass Events.Notice as app.Options.Notices.
type Events chan tea.Msg

func NewEvents() Events { return make(Events, 64) }

// Notice queues n, dropping it when the queue is full.
func (e Events) Notice(n bsync.Notice) { e.send(noticeMsg(n)) }

func (e Events) send(m tea.Msg) {
	if e == nil {
		return
	}
	select {
	case e <- m:
	default:
	}
}

func (e Events) wait() tea.Cmd {
	if e == nil {
		return nil
	}
	return func() tea.Msg { return <-e }
}

type Model struct {
	app    *app.App
	ctx    context.Context
	events Events
	keys   keyMap
	help   help.Model
	spin   spinner.Model
	th     Theme
	render *utils.Renderer

	width, height int
	mode          mode
	view          viewMode
	filter        filter.State
	rows          []row.Row
	cursor        int

	busy      int
	status    string
	statusErr bool
	needLogin bool

	search textinput.Model
	chat   textinput.Model
	form   form

	aiCursor     int
	bulkScope    int
	bulkOpts     ai.BulkOptions
	bulkDone     int
	bulkTotal    int
	answerTitle  string
	answer       string
	templates    []db.Template
	templatePick int
}

// New builds the model. Preferences are read from the local database.
func New(ctx context.Context, a *app.App, events Events) Model {
	si := textinput.New()
	si.Placeholder = "search title, text, tags…"
	si.CharLimit = 200
	si.Width = 50

	ci := textinput.New()
	ci.Placeholder = "ask about your entries…"
	ci.CharLimit = 500
	ci.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		app:    a,
		ctx:    ctx,
		events: events,
		keys:   defaultKeys(),
		help:   help.New(),
		spin:   sp,
		th:     ThemeFor(a.Cfg.Theme),
		render: utils.NewRenderer(&utils.RenderConfig{Format: utils.FormatDefault, Width: 70, ShowBody: true, Color: true, Location: a.Cfg.Location()}),
		search: si,
		chat:   ci,
		form:   newForm(),

		bulkOpts: ai.AllFields(),
	}
	m.view = parseViewMode(a.Pref(ctx, db.PrefViewMode, viewNames[viewCards]))
	m.filter.Sort = filter.ParseSort(a.Pref(ctx, db.PrefSortKey, string(filter.DefaultSort)))
	m.needLogin = !a.Authenticated()
	if m.needLogin {
		m.status = "Press L to sign in with Google"
	}
	return m
}

// Run starts the program on the alternate screen.
func Run(ctx context.Context, a *app.App, events Events) error {
	p := tea.NewProgram(New(ctx, a, events), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, m.events.wait(), m.loadTemplatesCmd()}
	if !m.needLogin {
		cmds = append(cmds, m.loadCmd())
	}
	return tea.Batch(cmds...)
}

// ---------- messages & commands ----------

type loadedMsg struct{ err error }

type opDoneMsg struct {
	info string
	err  error
}

type loginMsg struct{ err error }

type answerMsg struct {
	title, text string
	err         error
}

type bulkProgressMsg struct{ done, total int }

type bulkDoneMsg struct {
	rep bsync.BulkReport
	err error
}

type templatesLoadedMsg struct {
	list []db.Template
	err  error
}

type noticeMsg bsync.Notice

func (m Model) loadCmd() tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg { return loadedMsg{err: a.Load(ctx)} }
}

func (m Model) loginCmd() tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		if _, err := a.Login(ctx); err != nil {
			return loginMsg{err: err}
		}
		return loginMsg{err: a.Load(ctx)}
	}
}

func (m Model) loadTemplatesCmd() tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		list, err := a.DB.Templates(ctx)
		return templatesLoadedMsg{list: list, err: err}
	}
}

// op runs f in the background and reports info on success.
func (m *Model) op(info string, f func(context.Context) error) tea.Cmd {
	m.busy++
	ctx := m.ctx
	return func() tea.Msg { return opDoneMsg{info: info, err: f(ctx)} }
}

func (m *Model) bulkCmd(scope ai.Scope, opts ai.BulkOptions) tea.Cmd {
	m.busy++
	m.bulkDone, m.bulkTotal = 0, 0
	a, ctx, ev, view := m.app, m.ctx, m.events, m.rows
	return func() tea.Msg {
		rep, err := a.BulkEnhance(ctx, scope, view, opts, func(done, total int) {
			ev.send(bulkProgressMsg{done: done, total: total})
		})
		return bulkDoneMsg{rep: rep, err: err}
	}
}

func (m *Model) askCmd(title string, f func(context.Context) (string, error)) tea.Cmd {
	m.busy++
	ctx := m.ctx
	return func() tea.Msg {
		text, err := f(ctx)
		return answerMsg{title: title, text: text, err: err}
	}
}

// ---------- update ----------

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case noticeMsg:
		m.setStatus(msg.Message, msg.Level == bsync.LevelError)
		return m, m.events.wait()

	case bulkProgressMsg:
		m.bulkDone, m.bulkTotal = msg.done, msg.total
		return m, m.events.wait()

	case loadedMsg:
		m.refreshView()
		if msg.err != nil {
			m.fail(msg.err)
		}
		return m, nil

	case loginMsg:
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		m.needLogin = false
		m.setStatus("Signed in", false)
		m.refreshView()
		return m, nil

	case templatesLoadedMsg:
		if msg.err == nil {
			m.templates = msg.list
		}
		return m, nil

	case opDoneMsg:
		m.busy--
		m.refreshView()
		if msg.err != nil {
			m.fail(msg.err)
		} else if msg.info != "" {
			m.setStatus(msg.info, false)
		}
		return m, nil

	case bulkDoneMsg:
		m.busy--
		m.refreshView()
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		r := msg.rep
		m.setStatus(fmt.Sprintf("AI updated %d, skipped %d, failed %d · b to undo", r.Updated, r.Skipped, r.Failed), r.Failed > 0)
		return m, nil

	case answerMsg:
		m.busy--
		if msg.err != nil {
			m.fail(msg.err)
			if m.mode == modeAnswer {
				m.mode = modeNormal
			}
			return m, nil
		}
		m.answerTitle, m.answer = msg.title, strings.TrimSpace(msg.text)
		m.mode = modeAnswer
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeChat:
			return m.updateChat(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case modeAI:
			return m.updateAI(msg)
		case modeBulk:
			return m.updateBulk(msg)
		case modeAnswer, modeDetail, modeHelp:
			if k := msg.String(); k == "esc" || k == "q" || k == "enter" || k == "?" {
				m.mode = modeNormal
			}
			return m, nil
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

func (m *Model) fail(err error) {
	if errors.Is(err, apperr.ErrAuth) {
		m.needLogin = true
	}
	msg := err.Error()
	if h := apperr.Hint(err); h != "" {
		msg += " · " + h
	}
	m.setStatus(msg, true)
}

// refreshView recomputes the visible rows and keeps the cursor in range.
func (m *Model) refreshView() {
	m.rows = m.app.View(m.filter)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (row.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row.Row{}, false
	}
	return m.rows[m.cursor], true
}

// local keys work without a token.
func (m Model) local(msg tea.KeyMsg) bool {
	k := m.keys
	return key.Matches(msg, k.Login, k.Quit, k.Help, k.View, k.Up, k.Down, k.Top, k.Bottom)
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	if m.needLogin && !m.local(msg) {
		m.setStatus("Press L to sign in with Google", true)
		return m, nil
	}

	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.mode = modeHelp
	case key.Matches(msg, k.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, k.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, k.Top):
		m.cursor = 0
	case key.Matches(msg, k.Bottom):
		m.cursor = max(0, len(m.rows)-1)
	case key.Matches(msg, k.View):
		m.view = (m.view + 1) % viewMode(len(viewNames))
		m.app.SetPref(m.ctx, db.PrefViewMode, viewNames[m.view])
	case key.Matches(msg, k.Login):
		if !m.app.Demo() && !m.needLogin {
			m.setStatus("Already signed in", false)
			return m, nil
		}
		m.setStatus("Opening browser for Google sign-in…", false)
		return m, m.loginCmd()

	case key.Matches(msg, k.Search):
		m.mode = modeSearch
		m.search.SetValue(m.filter.Search)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, k.Sort):
		m.filter.Sort = m.filter.Sort.Next()
		m.app.SetPref(m.ctx, db.PrefSortKey, string(m.filter.Sort))
		m.refreshView()
		m.setStatus("Sort: "+string(m.filter.Sort), false)
	case key.Matches(msg, k.Status):
		m.filter.Status = nextOf(statusCycle, m.filter.Status)
		m.refreshView()
	case key.Matches(msg, k.Category):
		cats := append([]string{""}, m.app.CatalogSnapshot().AllCategories(filter.FacetsOf(m.app.Sync.Rows()).Categories)...)
		m.filter.Category = nextOf(cats, m.filter.Category)
		m.refreshView()
	case key.Matches(msg, k.Today):
		m.filter.Today = !m.filter.Today
		m.refreshView()
	case key.Matches(msg, k.Clear):
		m.filter = filter.State{Sort: m.filter.Sort}
		m.refreshView()
	case key.Matches(msg, k.Refresh):
		return m, m.op("Refreshed", m.app.Sync.Refresh)

	case key.Matches(msg, k.Open):
		if _, ok := m.selected(); ok {
			m.mode = modeDetail
		}
	case key.Matches(msg, k.Copy):
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		text := r.Body()
		if text == "" {
			text = r.Title
		}
		if err := writeClipboard(text); err != nil {
			m.setStatus("Copy failed: "+err.Error(), true)
		} else {
			m.setStatus("Copied to clipboard", false)
		}

	case key.Matches(msg, k.New):
		m.form.openNew(m.templates)
		m.mode = modeForm
		return m, m.form.focusCurrent()
	case key.Matches(msg, k.Edit):
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.form.openEdit(r)
		m.mode = modeForm
		return m, m.form.focusCurrent()
	case key.Matches(msg, k.Delete):
		if _, ok := m.selected(); ok {
			m.mode = modeConfirmDelete
		}

	case key.Matches(msg, k.Undo):
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.app.Sync.HistoryDepth(r.Position) == 0 {
			m.setStatus("Nothing to undo", false)
			return m, nil
		}
		pos := r.Position
		return m, m.op("Undone", func(ctx context.Context) error { return m.app.Sync.UndoRow(ctx, pos) })
	case key.Matches(msg, k.Redo):
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.app.Sync.FutureDepth(r.Position) == 0 {
			m.setStatus("Nothing to redo", false)
			return m, nil
		}
		pos := r.Position
		return m, m.op("Redone", func(ctx context.Context) error { return m.app.Sync.RedoRow(ctx, pos) })
	case key.Matches(msg, k.UndoBulk):
		if !m.app.Sync.CanUndoBulk() {
			m.setStatus("No bulk AI run to undo", false)
			return m, nil
		}
		a := m.app
		return m, m.op("", func(ctx context.Context) error {
			_, err := a.Sync.UndoBulk(ctx)
			return err
		})

	case key.Matches(msg, k.AI):
		if _, ok := m.selected(); ok {
			m.mode = modeAI
		}
	case key.Matches(msg, k.Bulk):
		m.mode = modeBulk
	case key.Matches(msg, k.Digest):
		a, rows := m.app, m.rows
		m.setStatus("Writing digest…", false)
		return m, m.askCmd("Digest", func(ctx context.Context) (string, error) {
			return a.AI.Digest(ctx, rows, a.AIOptions("digest"))
		})
	case key.Matches(msg, k.Chat):
		m.mode = modeChat
		m.chat.SetValue("")
		return m, m.chat.Focus()
	}
	return m, nil
}

func nextOf(list []string, cur string) string {
	for i, v := range list {
		if v == cur {
			return list[(i+1)%len(list)]
		}
	}
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filter.Search = ""
		m.search.Blur()
		m.mode = modeNormal
		m.refreshView()
		return m, nil
	case "enter":
		m.search.Blur()
		m.mode = modeNormal
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.filter.Search = m.search.Value()
	m.refreshView()
	return m, cmd
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.chat.Blur()
		m.mode = modeNormal
		return m, nil
	case "enter":
		q := strings.TrimSpace(m.chat.Value())
		if q == "" {
			return m, nil
		}
		m.chat.Blur()
		m.mode = modeNormal
		m.setStatus("Thinking…", false)
		a, rows := m.app, m.rows
		return m, m.askCmd("Q: "+q, func(ctx context.Context) (string, error) {
			return a.AI.Chat(ctx, rows, q, a.AIOptions("chat"))
		})
	}
	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeNormal
	r, ok := m.selected()
	if !ok || (msg.String() != "y" && msg.String() != "Y") {
		m.setStatus("Delete cancelled", false)
		return m, nil
	}
	pos := r.Position
	a := m.app
	cmd := m.op("", func(ctx context.Context) error { return a.Sync.RemoveRow(ctx, pos) })
	return m, cmd
}

func (m Model) updateAI(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = modeNormal
	case "j", "down":
		m.aiCursor = (m.aiCursor + 1) % len(ai.Actions)
	case "k", "up":
		m.aiCursor = (m.aiCursor + len(ai.Actions) - 1) % len(ai.Actions)
	case "enter":
		m.mode = modeNormal
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		action, pos, a := ai.Actions[m.aiCursor], r.Position, m.app
		m.setStatus(fmt.Sprintf("AI: %s…", action), false)
		return m, m.op("AI: "+string(action)+" ✓", func(ctx context.Context) error {
			_, err := a.Enhance(ctx, pos, action)
			return err
		})
	}
	return m, nil
}

func (m Model) updateBulk(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = modeNormal
	case "tab":
		m.bulkScope = (m.bulkScope + 1) % len(bulkScopes)
	case "1":
		m.bulkOpts.Title = !m.bulkOpts.Title
	case "2":
		m.bulkOpts.Rewrite = !m.bulkOpts.Rewrite
	case "3":
		m.bulkOpts.Tags = !m.bulkOpts.Tags
	case "4":
		m.bulkOpts.Category = !m.bulkOpts.Category
	case "5":
		m.bulkOpts.Actions = !m.bulkOpts.Actions
	case "enter":
		m.mode = modeNormal
		return m, m.bulkCmd(bulkScopes[m.bulkScope], m.bulkOpts)
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form.blur()
		m.mode = modeNormal
		return m, nil
	case "tab":
		return m, m.form.move(1)
	case "shift+tab":
		return m, m.form.move(-1)
	case "ctrl+t":
		if name := m.form.applyNextTemplate(m.app.Now()); name != "" {
			m.setStatus("Template: "+name, false)
		}
		return m, nil
	case "ctrl+s":
		return m.submitForm()
	}
	return m, m.form.update(msg)
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	fields, err := m.form.values(m.app.Now())
	if err != nil {
		m.fail(err)
		return m, nil
	}
	a := m.app
	if m.form.editing == nil {
		if fields[row.Title] == "" && fields[row.Original] == "" {
			m.setStatus("A title or some text is required", true)
			return m, nil
		}
		m.form.blur()
		m.mode = modeNormal
		tmpl := m.form.usedTemplate
		return m, m.op("", func(ctx context.Context) error {
			if tmpl != "" {
				if err := a.DB.MarkTemplateUsed(ctx, tmpl); err != nil {
					a.Log.Debug("ui: mark template", "err", err)
				}
			}
			return a.Create(ctx, fields)
		})
	}

	old := *m.form.editing
	p := row.Patch{}
	for f, v := range fields {
		if old.Get(f) != v {
			p[f] = v
		}
	}
	m.form.blur()
	m.mode = modeNormal
	if len(p) == 0 {
		m.setStatus("No changes", false)
		return m, nil
	}
	pos := old.Position
	return m, m.op("", func(ctx context.Context) error { return a.Sync.SaveRow(ctx, pos, p, "Edit") })
}
