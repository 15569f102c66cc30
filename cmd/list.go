package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramanasai/brain/internal/app"
	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/filter"
	"github.com/ramanasai/brain/internal/row"
	"github.com/ramanasai/brain/internal/utils"
)

var (
	listFilter filterFlags
	limit      int
	page       string
	format     string
	noColor    bool
	showBody   bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List entries",
	Long: `Examples:
	brain list                                    # newest first
	brain list --preset last7days                 # created or due in the last 7 days
	brain list --format table --limit 20          # table format
	brain list --category Work --status pending   # open work items
	brain list -q budget --tags money --page 2    # search with pagination
	brain list --page last                        # oldest entries`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := listFilter.state(a.Now())
		if err != nil {
			return err
		}
		rows := a.View(st)

		if limit <= 0 || limit > 1000 {
			limit = 50
		}
		n, err := utils.ParsePage(page, utils.NewPagination(len(rows), limit, 1).TotalPages)
		if err != nil {
			return apperr.Validationf("--page: %v", err)
		}
		p := utils.NewPagination(len(rows), limit, n)
		list := &utils.RowList{
			Rows:       utils.Paginate(rows, p),
			Total:      len(rows),
			Page:       p.Current,
			PerPage:    p.PerPage,
			TotalPages: p.TotalPages,
			Query:      st.Search,
			Filters:    listFilter.describe(),
		}

		r, err := renderer(a, format)
		if err != nil {
			return err
		}
		out, err := r.RenderRows(list)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		if p.TotalPages > 1 && r.Format() != utils.FormatJSON && r.Format() != utils.FormatQuiet {
			fmt.Fprintln(cmd.OutOrStdout(), p.FormatSummary())
			fmt.Fprintln(cmd.OutOrStdout(), p.FormatNavigation())
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <row>",
	Short: "Show one entry in full, with its edit history",
	Args:  cobra.ExactArgs(1),
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
		rr, err := renderer(a, format)
		if err != nil {
			return err
		}
		if rr.Format() == utils.FormatJSON {
			out, err := rr.RenderRows(&utils.RowList{Rows: []row.Row{r}, Total: 1})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), rr.RenderRow(r))
		if n := a.Sync.HistoryDepth(r.Position); n > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%d change(s) can be undone in the TUI\n", n)
		}
		return nil
	},
}

var (
	statsFilter filterFlags
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Counts by status, category and tag",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := statsFilter.state(a.Now())
		if err != nil {
			return err
		}
		rows := a.View(st)
		r, err := renderer(a, "")
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), r.RenderStats(filter.CountsOf(rows), filter.FacetsOf(rows)))
		return nil
	},
}

// renderer builds the output renderer for the app's config and the format flag.
func renderer(a *app.App, name string) (*utils.Renderer, error) {
	rc := utils.DefaultRenderConfig()
	if name != "" {
		f, err := utils.ParseFormat(name)
		if err != nil {
			return nil, apperr.Validationf("%v", err)
		}
		rc.Format = f
	}
	rc.Color = !noColor
	rc.ShowBody = showBody
	rc.Location = a.Cfg.Location()
	rc.Colors = a.CatalogSnapshot().Colors
	return utils.NewRenderer(rc), nil
}

func init() {
	listFilter.register(listCmd)
	statsFilter.register(statsCmd)
	for _, c := range []*cobra.Command{listCmd, showCmd, statsCmd} {
		c.Flags().BoolVar(&noColor, "no-color", false, "disable colours")
	}
	for _, c := range []*cobra.Command{listCmd, showCmd} {
		c.Flags().StringVarP(&format, "format", "f", "", "output format: default|table|json|compact|quiet")
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 50, "entries per page")
	listCmd.Flags().StringVarP(&page, "page", "p", "1", "page number, first or last")
	listCmd.Flags().BoolVar(&showBody, "body", false, "show the entry text under each card")
}
