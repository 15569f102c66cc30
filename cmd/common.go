package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ramanasai/brain/internal/app"
	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/filter"
	"github.com/ramanasai/brain/internal/row"
	"github.com/ramanasai/brain/internal/utils"
)

// newApp is swapped in tests.
var newApp = app.New

func openApp(cmd *cobra.Command) (*app.App, error) {
	return newApp(cmd.Context(), app.Options{
		ConfigPath: cfgPath,
		Demo:       demoMode,
		Verbose:    verbose,
		Stderr:     cmd.ErrOrStderr(),
	})
}

// loadApp opens the application, signs in when needed and loads every row.
// The caller closes the returned App.
func loadApp(cmd *cobra.Command) (*app.App, error) {
	a, err := openApp(cmd)
	if err != nil {
		return nil, err
	}
	if a.Demo() {
		a.Log.Debug("cmd: demo mode", "reason", a.DemoReason)
	}
	if err := a.EnsureAuth(cmd.Context()); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.Load(cmd.Context()); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgGreen).Sprint("✓"), fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgYellow).Sprint("!"), fmt.Sprintf(format, args...))
}

// confirm asks a yes/no question on cmd's streams.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// rowArg resolves a sheet row number argument against the loaded rows.
func rowArg(a *app.App, s string) (row.Row, error) {
	pos, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil {
		return row.Row{}, apperr.Validationf("invalid row number %q", s)
	}
	r, ok := a.Sync.Row(pos)
	if !ok {
		return row.Row{}, apperr.Validationf("no entry at row %d", pos)
	}
	return r, nil
}

// filterFlags are the selection flags shared by list, export, bulk and the
// AI commands.
type filterFlags struct {
	search   string
	category string
	sub      string
	status   string
	tags     string
	from     string
	to       string
	preset   string
	sort     string
	today    bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.search, "search", "q", "", "text search across title, text, tags and category")
	fs.StringVarP(&f.category, "category", "c", "", "only this category")
	fs.StringVar(&f.sub, "sub", "", "only this sub-category")
	fs.StringVarP(&f.status, "status", "s", "", "pending|progress|done")
	fs.StringVarP(&f.tags, "tags", "t", "", "comma separated tags, all must match")
	fs.StringVar(&f.from, "from", "", "created or due on/after (YYYY-MM-DD, yesterday, 3 days ago…)")
	fs.StringVar(&f.to, "to", "", "created or due on/before")
	fs.StringVar(&f.preset, "preset", "", "today|yesterday|week|month|year|last7days|last30days")
	fs.StringVar(&f.sort, "sort", "", "date-desc|date-asc|title-asc|cat-asc|num-asc|num-desc")
	fs.BoolVar(&f.today, "today", false, "created or due today")
}

func parseStatus(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return filter.StatusAll, nil
	case "pending", "todo":
		return row.BucketPending, nil
	case "progress", "in-progress", "in progress", "doing":
		return row.BucketProgress, nil
	case "done", "complete", "completed":
		return row.BucketDone, nil
	}
	return "", apperr.Validationf("unknown status %q (pending, progress or done)", s)
}

func (f filterFlags) state(now time.Time) (filter.State, error) {
	st := filter.State{
		Search:      f.search,
		Category:    f.category,
		SubCategory: f.sub,
		Today:       f.today,
		Sort:        filter.ParseSort(f.sort),
	}
	if f.sort != "" && string(st.Sort) != f.sort {
		return st, apperr.Validationf("unknown sort %q", f.sort)
	}
	status, err := parseStatus(f.status)
	if err != nil {
		return st, err
	}
	st.Status = status
	if f.tags != "" {
		st.Tags = row.ParseTags(f.tags)
	}
	if f.preset != "" {
		from, to, err := utils.GetDateRange(f.preset, now)
		if err != nil {
			return st, apperr.Validationf("%v", err)
		}
		st.From, st.To = from, to
	}
	if f.from != "" {
		t, err := utils.ParseFlexibleDate(f.from, now)
		if err != nil {
			return st, apperr.Validationf("--from: %v", err)
		}
		st.From = t
	}
	if f.to != "" {
		t, err := utils.ParseFlexibleDate(f.to, now)
		if err != nil {
			return st, apperr.Validationf("--to: %v", err)
		}
		st.To = t
	}
	return st, nil
}

// describe lists the active predicates for the renderer header.
func (f filterFlags) describe() map[string]string {
	m := map[string]string{}
	add := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	add("category", f.category)
	add("sub", f.sub)
	add("status", f.status)
	add("tags", f.tags)
	add("from", f.from)
	add("to", f.to)
	add("preset", f.preset)
	if f.today {
		m["today"] = "yes"
	}
	return m
}
