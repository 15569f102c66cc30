package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage custom categories, tags and category colours",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show categories (built-in, custom and in use), tags and colours",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		c := a.CatalogSnapshot()
		var inUse []string
		for _, r := range a.Sync.Rows() {
			inUse = append(inUse, r.Category)
		}
		w := cmd.OutOrStdout()
		head := color.New(color.Bold)
		head.Fprintln(w, "Categories")
		for _, name := range c.AllCategories(inUse) {
			mark := ""
			if c.HasCategory(name) {
				mark = " (custom)"
			}
			if col, ok := c.Colors[name]; ok {
				mark += " " + col
			}
			fmt.Fprintf(w, "  %s%s\n", name, mark)
		}
		if len(c.Tags) > 0 {
			head.Fprintln(w, "Tags")
			tags := append([]string(nil), c.Tags...)
			sort.Strings(tags)
			fmt.Fprintf(w, "  %s\n", strings.Join(tags, ", "))
		}
		return nil
	},
}

func catalogEdit(use, short string, nargs int, run func(cmd *cobra.Command, m *catalog.Manager, args []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.EnsureAuth(cmd.Context()); err != nil {
				return err
			}
			msg, err := run(cmd, a.Catalog, args)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "%s", msg)
			return nil
		},
	}
}

func init() {
	catalogCmd.AddCommand(
		catalogListCmd,
		catalogEdit("add-category <name>", "Add a custom category", 1, func(cmd *cobra.Command, m *catalog.Manager, args []string) (string, error) {
			return "Added category " + args[0], m.AddCategory(cmd.Context(), args[0])
		}),
		catalogEdit("add-tag <name>", "Add a custom tag", 1, func(cmd *cobra.Command, m *catalog.Manager, args []string) (string, error) {
			return "Added tag " + args[0], m.AddTag(cmd.Context(), args[0])
		}),
		catalogEdit("remove <category|tag|color> <value>", "Remove a custom category, tag or colour", 2, func(cmd *cobra.Command, m *catalog.Manager, args []string) (string, error) {
			typ := strings.ToLower(args[0])
			switch typ {
			case catalog.TypeCategory, catalog.TypeTag:
			case "color", "colour":
				typ = catalog.TypeColor
			default:
				return "", apperr.Validationf("unknown type %q (category, tag or color)", args[0])
			}
			return fmt.Sprintf("Removed %s %s", args[0], args[1]), m.Remove(cmd.Context(), typ, args[1])
		}),
		catalogEdit("color <category> <color>", "Set the display colour of a category (#hex or ANSI code)", 2, func(cmd *cobra.Command, m *catalog.Manager, args []string) (string, error) {
			return fmt.Sprintf("%s is now %s", args[0], args[1]), m.SetColor(cmd.Context(), args[0], args[1])
		}),
	)
}
