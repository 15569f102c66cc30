package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramanasai/brain/internal/app"
)

var loginPrint bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with Google",
	Long: `Opens the Google consent page and waits for the redirect. The token is
kept in memory only; use --print to get a line you can eval so later
commands in the same shell reuse it:

	eval "$(brain login --print)"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		tok, err := a.Login(cmd.Context())
		if err != nil {
			return err
		}
		if loginPrint {
			fmt.Fprintf(cmd.OutOrStdout(), "export %s=%s\n", app.EnvAccessToken, tok.Value)
			return nil
		}
		success(cmd.OutOrStdout(), "Signed in, token valid until %s", tok.ExpiresAt.Local().Format(time.Kitchen))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the current Google token",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Demo() {
			warn(cmd.OutOrStdout(), "Demo mode, nothing to sign out of")
			return nil
		}
		if !a.Authenticated() {
			warn(cmd.OutOrStdout(), "Not signed in")
			return nil
		}
		if err := a.Logout(cmd.Context()); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Signed out")
		if os.Getenv(app.EnvAccessToken) != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "run: unset %s\n", app.EnvAccessToken)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().BoolVar(&loginPrint, "print", false, "print an export line for the access token")
}
