package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ramanasai/brain/internal/app"
	"github.com/ramanasai/brain/internal/notify"
	"github.com/ramanasai/brain/internal/schedule"
)

var remindDaemon bool

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Notify about entries that are due soon",
	Long: `Sends one desktop notification listing open entries due within
notify.window. With --daemon it keeps running and checks at reminder.time on
every workday that is not a holiday.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.Cfg.Notify.DueSoon {
			warn(cmd.OutOrStdout(), "notify.due_soon is off")
			return nil
		}
		if !remindDaemon {
			return remindOnce(cmd, a)
		}
		next := schedule.NextAt(a.Now(), a.Cfg)
		success(cmd.OutOrStdout(), "Next check %s", next.Format("Mon 2 Jan 15:04"))
		schedule.RunConfigured(cmd.Context(), a.Cfg, func(time.Time) {
			if err := a.Sync.Refresh(cmd.Context()); err != nil {
				a.Log.Warn("cmd: reminder refresh", "err", err)
				return
			}
			if err := remindOnce(cmd, a); err != nil {
				a.Log.Warn("cmd: reminder", "err", err)
			}
		})
		return nil
	},
}

func remindOnce(cmd *cobra.Command, a *app.App) error {
	due, err := a.Remind()
	if err != nil {
		return err
	}
	if len(due) == 0 {
		success(cmd.OutOrStdout(), "Nothing due soon")
		return nil
	}
	_, msg := notify.FormatDueSoon(due, a.Now())
	warn(cmd.OutOrStdout(), "%s", msg)
	return nil
}

func init() {
	remindCmd.Flags().BoolVar(&remindDaemon, "daemon", false, "keep running on the reminder schedule")
}
