package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramanasai/brain/internal/version"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetShortVersion())
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionInfo())
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "name and version only")
}
