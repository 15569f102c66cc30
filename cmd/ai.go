package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ramanasai/brain/internal/ai"
	"github.com/ramanasai/brain/internal/apperr"
)

var enhanceAction string

var enhanceCmd = &cobra.Command{
	Use:   "enhance <row>",
	Short: "Run an AI action on one entry and save the result",
	Long: `Actions: rewrite, tags, categorize, actions, title, all.

Examples:
	brain enhance 12                 # everything at once
	brain enhance 12 --action tags`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		action, err := ai.ParseAction(enhanceAction)
		if err != nil {
			return err
		}
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := rowArg(a, args[0])
		if err != nil {
			return err
		}
		res, err := a.Enhance(cmd.Context(), r.Position, action)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		label := color.New(color.FgCyan)
		for _, kv := range [][2]string{
			{"Title", res.Title},
			{"Category", strings.Trim(res.Category+" / "+res.SubCategory, " /")},
			{"Tags", res.Tags},
			{"Rewritten", res.Rewritten},
			{"Action items", res.ActionItems},
		} {
			if kv[1] != "" {
				fmt.Fprintf(w, "%s %s\n", label.Sprint(kv[0]+":"), kv[1])
			}
		}
		success(w, "Saved %s to #%d", action, r.Position)
		return nil
	},
}

var (
	bulkFilter filterFlags
	bulkScope  string
	bulkFields string
)

var bulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Enhance many entries with AI",
	Long: `Scopes: unenhanced (no rewrite yet), all, filtered (the filter flags).
Fields: title, rewrite, tags, category, actions.

Examples:
	brain bulk
	brain bulk --scope filtered --category Work --fields tags,title`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := ai.ParseScope(bulkScope)
		if err != nil {
			return err
		}
		opts, err := parseBulkFields(bulkFields)
		if err != nil {
			return err
		}
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := bulkFilter.state(a.Now())
		if err != nil {
			return err
		}
		errw := cmd.ErrOrStderr()
		rep, err := a.BulkEnhance(cmd.Context(), scope, a.View(st), opts, func(done, total int) {
			fmt.Fprintf(errw, "\r%s %d/%d", color.New(color.FgCyan).Sprint("enhancing"), done, total)
			if done == total {
				fmt.Fprintln(errw)
			}
		})
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		success(w, "Enhanced %d, skipped %d, failed %d", rep.Updated, rep.Skipped, rep.Failed)
		for _, e := range rep.Errors {
			warn(w, "%v", e)
		}
		return nil
	},
}

func parseBulkFields(s string) (ai.BulkOptions, error) {
	if strings.TrimSpace(s) == "" || strings.EqualFold(s, "all") {
		return ai.AllFields(), nil
	}
	var o ai.BulkOptions
	for _, f := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "title":
			o.Title = true
		case "rewrite", "rewritten":
			o.Rewrite = true
		case "tags":
			o.Tags = true
		case "category", "categories":
			o.Category = true
		case "actions", "action-items":
			o.Actions = true
		case "":
		default:
			return o, apperr.Validationf("unknown field %q (title, rewrite, tags, category, actions)", f)
		}
	}
	return o, nil
}

var digestFilter filterFlags

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "AI summary of the matching entries",
	Long: `Examples:
	brain digest --preset week
	brain digest --category Work --status pending`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := digestFilter.state(a.Now())
		if err != nil {
			return err
		}
		out, err := a.AI.Digest(cmd.Context(), a.View(st), a.AIOptions("digest"))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var chatFilter filterFlags

var chatCmd = &cobra.Command{
	Use:   "chat <question...>",
	Short: "Ask a question about your entries",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := chatFilter.state(a.Now())
		if err != nil {
			return err
		}
		out, err := a.AI.Chat(cmd.Context(), a.View(st), strings.Join(args, " "), a.AIOptions("chat"))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	enhanceCmd.Flags().StringVarP(&enhanceAction, "action", "a", string(ai.ActionAll), "rewrite|tags|categorize|actions|title|all")
	bulkFilter.register(bulkCmd)
	bulkCmd.Flags().StringVar(&bulkScope, "scope", string(ai.ScopeUnenhanced), "unenhanced|all|filtered")
	bulkCmd.Flags().StringVar(&bulkFields, "fields", "all", "comma separated fields to generate")
	digestFilter.register(digestCmd)
	chatFilter.register(chatCmd)
}
