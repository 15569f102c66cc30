package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/version"
)

var (
	cfgPath  string
	demoMode bool
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "brain",
	Short: "Personal knowledge base kept in your own Google Sheet",
	Long: `brain keeps notes, tasks and ideas as rows of a Google Sheet you own.
Without Google credentials (or with --demo) a local database stands in for
the sheet.

Examples:
	brain new "call the bank about the mortgage" --category Finance --due friday
	brain list --status pending --sort date-asc
	brain enhance 5 --action all
	brain tui`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	rootCmd.Version = version.GetVersion()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
	if h := apperr.Hint(err); h != "" {
		fmt.Fprintf(w, "%s %s\n", color.New(color.FgYellow).Sprint("hint:"), h)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "config file (default ~/.config/brain/config.yaml)")
	pf.BoolVar(&demoMode, "demo", false, "use the local demo database instead of Google Sheets")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(
		listCmd, showCmd, newCmd, editCmd, deleteCmd,
		enhanceCmd, bulkCmd, digestCmd, chatCmd,
		exportCmd, statsCmd, catalogCmd, configCmd, templatesCmd,
		loginCmd, logoutCmd, tuiCmd, remindCmd, versionCmd,
	)
}
