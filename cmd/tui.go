package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ramanasai/brain/internal/app"
	"github.com/ramanasai/brain/internal/schedule"
	"github.com/ramanasai/brain/internal/ui"
)

// tuiCmd launches the Bubble Tea TUI.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open TUI",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to the log file; the TUI owns the terminal.
		ev := ui.NewEvents()
		a, err := newApp(cmd.Context(), app.Options{
			ConfigPath: cfgPath,
			Demo:       demoMode,
			Notices:    ev.Notice,
		})
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Cfg.Reminder.Enabled {
			go schedule.RunConfigured(cmd.Context(), a.Cfg, func(time.Time) {
				if _, err := a.Remind(); err != nil {
					a.Log.Warn("cmd: reminder", "err", err)
				}
			})
		}
		return ui.Run(cmd.Context(), a, ev)
	},
}

func init() {
	rootCmd.RunE = tuiCmd.RunE
}
