package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/db"
	"github.com/ramanasai/brain/internal/row"
	"github.com/ramanasai/brain/internal/utils"
)

var formFields = []row.Field{row.Title, row.Category, row.SubCategory, row.TaskStatus, row.DueDate, row.Tags, row.Links}

var formLabels = map[row.Field]string{
	row.Title:       "Title",
	row.Category:    "Category",
	row.SubCategory: "Sub category",
	row.TaskStatus:  "Status",
	row.DueDate:     "Due",
	row.Tags:        "Tags",
	row.Links:       "Links",
}

var formPlaceholders = map[row.Field]string{
	row.Title:       "short title",
	row.Category:    "Work | Journal | Ideas…",
	row.TaskStatus:  "Pending | In Progress | Done",
	row.DueDate:     "YYYY-MM-DD | tomorrow | in 3 days | friday",
	row.Tags:        "tag1, tag2",
	row.Links:       "https://…",
	row.SubCategory: "optional",
}

// form edits one row, or a new one when editing is nil. The last focus slot
// is the body.
type form struct {
	inputs []textinput.Model
	body   textarea.Model
	focus  int

	editing      *row.Row
	templates    []db.Template
	templateIdx  int
	usedTemplate string
}

func newForm() form {
	f := form{inputs: make([]textinput.Model, len(formFields))}
	for i, fld := range formFields {
		ti := textinput.New()
		ti.Placeholder = formPlaceholders[fld]
		ti.CharLimit = 500
		ti.Width = 48
		f.inputs[i] = ti
	}
	ta := textarea.New()
	ta.Placeholder = "Type here…  (Ctrl+S to save, Esc to cancel)"
	ta.CharLimit = 0
	ta.SetHeight(8)
	ta.SetWidth(60)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle().Background(lipgloss.Color("#313244"))
	f.body = ta
	return f
}

func (f *form) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.body.SetValue("")
	f.focus = 0
	f.editing = nil
	f.templateIdx = -1
	f.usedTemplate = ""
}

func (f *form) openNew(templates []db.Template) {
	f.reset()
	f.templates = templates
	f.focus = len(f.inputs)
}

func (f *form) openEdit(r row.Row) {
	f.reset()
	f.editing = &r
	for i, fld := range formFields {
		f.inputs[i].SetValue(r.Get(fld))
	}
	f.body.SetValue(r.Original)
}

func (f *form) blur() {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	f.body.Blur()
}

func (f *form) focusCurrent() tea.Cmd {
	f.blur()
	if f.focus == len(f.inputs) {
		return f.body.Focus()
	}
	return f.inputs[f.focus].Focus()
}

func (f *form) move(d int) tea.Cmd {
	n := len(f.inputs) + 1
	f.focus = (f.focus + d + n) % n
	return f.focusCurrent()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == len(f.inputs) {
		f.body, cmd = f.body.Update(msg)
		return cmd
	}
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// applyNextTemplate fills the body from the next template and returns its
// name, or "" when there are none or the row is not new.
func (f *form) applyNextTemplate(now time.Time) string {
	if f.editing != nil || len(f.templates) == 0 {
		return ""
	}
	f.templateIdx = (f.templateIdx + 1) % len(f.templates)
	t := f.templates[f.templateIdx]
	f.body.SetValue(t.Render(nil, now))
	if i := fieldIndex(row.Category); strings.TrimSpace(f.inputs[i].Value()) == "" && t.Category != "" {
		f.inputs[i].SetValue(t.Category)
	}
	f.usedTemplate = t.ID
	return t.Name
}

func fieldIndex(fld row.Field) int {
	for i, x := range formFields {
		if x == fld {
			return i
		}
	}
	return -1
}

// values reads the form. A changed due date is normalised to YYYY-MM-DD.
func (f *form) values(now time.Time) (row.Patch, error) {
	p := row.Patch{}
	for i, fld := range formFields {
		p[fld] = strings.TrimSpace(f.inputs[i].Value())
	}
	p[row.Original] = strings.TrimRight(f.body.Value(), " \n")

	due := p[row.DueDate]
	if due != "" && (f.editing == nil || f.editing.DueDate != due) {
		t, err := utils.ParseFlexibleDate(due, now)
		if err != nil {
			return nil, apperr.Validationf("due date %q: %v", due, err)
		}
		p[row.DueDate] = t.Format("2006-01-02")
	}
	return p, nil
}

func (f form) view(th Theme) string {
	var b strings.Builder
	for i, fld := range formFields {
		label := th.Label.Render(padRight(formLabels[fld], 13))
		b.WriteString(label + f.inputs[i].View() + "\n")
	}
	b.WriteString("\n" + f.body.View() + "\n\n")
	hint := "Tab next field • Ctrl+S save • Esc cancel"
	if f.editing == nil && len(f.templates) > 0 {
		hint += " • Ctrl+T template"
	}
	b.WriteString(th.Hint.Render(hint))
	return b.String()
}
