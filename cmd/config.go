package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ramanasai/brain/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and change settings",
	Long: `Settings live in ~/.config/brain/config.yaml; BRAIN_* environment
variables (BRAIN_OPENAI_API_KEY, BRAIN_SHEET_ID…) override the file.

Examples:
	brain config set sheet.id 1AbC…
	brain config set reminder.workdays Mon,Wed,Fri
	brain config get openai.model`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := cfgPath
		if p == "" {
			var err error
			if p, err = config.DefaultPath(); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every known setting",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, k := range config.Keys() {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.Get(cfgPath, args[0])
		if err != nil {
			return err
		}
		switch v.(type) {
		case []any, []string, map[string]any:
			out, err := yaml.Marshal(v)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
		default:
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting in the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.ParseValue(args[0], args[1])
		if err != nil {
			return err
		}
		if err := config.Save(cfgPath, map[string]any{args[0]: v}); err != nil {
			return err
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			warn(cmd.OutOrStdout(), "saved, but the config is not valid: %v", err)
			return nil
		}
		success(cmd.OutOrStdout(), "%s = %v", args[0], v)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configKeysCmd, configGetCmd, configSetCmd)
}
