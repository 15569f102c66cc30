package cmd

import (
	"bufio"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramanasai/brain/internal/export"
)

var (
	exportFilter filterFlags
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entries to Markdown, CSV, JSON, YAML or Excel",
	Long: `Writes the matching entries to a file, or to stdout with --out -.

Examples:
	brain export                              # brain-export-<date>.md
	brain export --format xlsx --preset month
	brain export --format json --out - | jq .`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := exportFilter.state(a.Now())
		if err != nil {
			return err
		}
		rows := a.View(st)

		if exportOut == "-" {
			return export.Write(cmd.OutOrStdout(), f, rows, a.Now())
		}
		path := exportOut
		if path == "" {
			path = export.FileName(f, a.Now())
		}
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		w := bufio.NewWriter(file)
		if err := export.Write(w, f, rows, a.Now()); err != nil {
			file.Close()
			os.Remove(path)
			return err
		}
		if err := w.Flush(); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Exported %d entries to %s", len(rows), path)
		return nil
	},
}

func init() {
	exportFilter.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "md|csv|json|yaml|xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, - for stdout")
}
