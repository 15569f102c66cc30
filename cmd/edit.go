package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ramanasai/brain/internal/app"
	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/db"
	"github.com/ramanasai/brain/internal/row"
	"github.com/ramanasai/brain/internal/utils"
)

// fieldFlags are the per-field flags of new and edit.
type fieldFlags struct {
	title    string
	category string
	sub      string
	status   string
	due      string
	tags     string
	links    string
	media    string
	text     string
}

func (f *fieldFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.title, "title", "", "title")
	fs.StringVarP(&f.category, "category", "c", "", "category")
	fs.StringVar(&f.sub, "sub", "", "sub-category")
	fs.StringVarP(&f.status, "status", "s", "", "task status (Pending, In Progress, Done)")
	fs.StringVarP(&f.due, "due", "d", "", "due date (YYYY-MM-DD, tomorrow, friday, in 3 days…)")
	fs.StringVarP(&f.tags, "tags", "t", "", "comma separated tags")
	fs.StringVar(&f.links, "links", "", "links, one per line or comma separated")
	fs.StringVar(&f.media, "media", "", "media URL")
	fs.StringVar(&f.text, "text", "", "entry text")
}

// patch builds a patch from the flags the user actually set.
func (f fieldFlags) patch(cmd *cobra.Command, a *app.App) (row.Patch, error) {
	p := row.Patch{}
	set := func(flag string, fld row.Field, v string) {
		if cmd.Flags().Changed(flag) {
			p[fld] = strings.TrimSpace(v)
		}
	}
	set("title", row.Title, f.title)
	set("category", row.Category, f.category)
	set("sub", row.SubCategory, f.sub)
	set("status", row.TaskStatus, f.status)
	set("media", row.MediaURL, f.media)
	set("text", row.Original, f.text)
	if cmd.Flags().Changed("tags") {
		p[row.Tags] = strings.Join(row.ParseTags(f.tags), ", ")
	}
	if cmd.Flags().Changed("links") {
		p[row.Links] = strings.Join(row.SplitLines(strings.ReplaceAll(f.links, ",", "\n")), "\n")
	}
	if cmd.Flags().Changed("due") {
		due := strings.TrimSpace(f.due)
		if due != "" {
			t, err := utils.ParseFlexibleDate(due, a.Now())
			if err != nil {
				return nil, apperr.Validationf("--due %q: %v", due, err)
			}
			due = t.Format("2006-01-02")
		}
		p[row.DueDate] = due
	}
	return p, nil
}

var (
	newFields   fieldFlags
	newTemplate string
	newVars     []string
)

var newCmd = &cobra.Command{
	Use:     "new [text...]",
	Aliases: []string{"add"},
	Short:   "Add an entry",
	Long: `Examples:
	brain new "pick up the dry cleaning" --due tomorrow --status Pending
	brain new --title "Standup" --template meeting --var attendees="Ana, Raj"
	brain new "ideas for the offsite" -c Work -t planning,team`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := newFields.patch(cmd, a)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			p[row.Original] = strings.TrimSpace(strings.Join(args, " "))
		}
		if newTemplate != "" {
			if err := applyTemplate(cmd.Context(), a, p); err != nil {
				return err
			}
		}
		if p[row.Title] == "" && p[row.Original] == "" {
			return apperr.Validationf("a title or some text is required")
		}
		if err := a.Create(cmd.Context(), p); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Added %q", firstNonEmpty(p[row.Title], utils.Truncate(p[row.Original], 50)))
		return nil
	},
}

func applyTemplate(ctx context.Context, a *app.App, p row.Patch) error {
	tpls, err := a.DB.Templates(ctx)
	if err != nil {
		return err
	}
	var tpl *db.Template
	for i := range tpls {
		if strings.EqualFold(tpls[i].ID, newTemplate) || strings.EqualFold(tpls[i].Name, newTemplate) {
			tpl = &tpls[i]
			break
		}
	}
	if tpl == nil {
		return apperr.Validationf("no template named %q (see brain templates)", newTemplate)
	}
	vars := map[string]string{}
	for _, kv := range newVars {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return apperr.Validationf("--var %q is not key=value", kv)
		}
		vars[strings.TrimSpace(k)] = v
	}
	body := tpl.Render(vars, a.Now())
	if p[row.Original] != "" {
		body += "\n" + p[row.Original]
	}
	p[row.Original] = body
	if p[row.Category] == "" {
		p[row.Category] = tpl.Category
	}
	if err := a.DB.MarkTemplateUsed(ctx, tpl.ID); err != nil {
		a.Log.Warn("cmd: mark template used", "id", tpl.ID, "err", err)
	}
	return nil
}

var editFields fieldFlags

var editCmd = &cobra.Command{
	Use:   "edit <row>",
	Short: "Change fields of an entry",
	Long: `Only the flags you pass are changed; pass an empty value to clear a field.

Examples:
	brain edit 7 --status Done
	brain edit 7 --due "" --tags travel,visa`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := rowArg(a, args[0])
		if err != nil {
			return err
		}
		p, err := editFields.patch(cmd, a)
		if err != nil {
			return err
		}
		for f, v := range p {
			if r.Get(f) == v {
				delete(p, f)
			}
		}
		if len(p) == 0 {
			warn(cmd.OutOrStdout(), "No changes")
			return nil
		}
		if err := a.Sync.SaveRow(cmd.Context(), r.Position, p, "Edit"); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Updated #%d (%d field(s))", r.Position, len(p))
		return nil
	},
}

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:     "delete <row>",
	Aliases: []string{"rm"},
	Short:   "Delete an entry",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := rowArg(a, args[0])
		if err != nil {
			return err
		}
		title := firstNonEmpty(r.Title, utils.Truncate(r.Original, 50))
		if !deleteYes && !confirm(cmd, fmt.Sprintf("Delete #%d %q?", r.Position, title)) {
			warn(cmd.OutOrStdout(), "Delete cancelled")
			return nil
		}
		if err := a.Sync.RemoveRow(cmd.Context(), r.Position); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Deleted #%d", r.Position)
		return nil
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List entry templates for new --template",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		tpls, err := a.DB.Templates(cmd.Context())
		if err != nil {
			return err
		}
		name := color.New(color.FgCyan, color.Bold)
		for _, t := range tpls {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s", name.Sprint(t.ID), t.Name)
			if t.Description != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " - %s", t.Description)
			}
			if len(t.Variables) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  [%s]", strings.Join(t.Variables, ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	},
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func init() {
	newFields.register(newCmd)
	newCmd.Flags().StringVar(&newTemplate, "template", "", "start from a template (id or name)")
	newCmd.Flags().StringArrayVar(&newVars, "var", nil, "template variable key=value (repeatable)")
	editFields.register(editCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "do not ask for confirmation")
}
