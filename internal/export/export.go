// Package export writes rows as Markdown, CSV, JSON, YAML or XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/row"
)

// Format names an export format; the value doubles as the file extension.
type Format string

const (
	Markdown Format = "md"
	CSV      Format = "csv"
	JSON     Format = "json"
	YAML     Format = "yaml"
	XLSX     Format = "xlsx"
)

// Formats lists the supported formats.
var Formats = []Format{Markdown, CSV, JSON, YAML, XLSX}

// ParseFormat resolves a format name or extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "md", "markdown":
		return Markdown, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "xlsx", "excel":
		return XLSX, nil
	}
	return "", apperr.Validationf("unknown export format %q", s)
}

// FileName is the default file name for an export made at now.
func FileName(f Format, now time.Time) string {
	return fmt.Sprintf("brain-export-%s.%s", now.Format("2006-01-02"), f)
}

// Write encodes rows in format f.
func Write(w io.Writer, f Format, rows []row.Row, now time.Time) error {
	if len(rows) == 0 {
		return apperr.Validationf("no entries to export")
	}
	switch f {
	case Markdown:
		return WriteMarkdown(w, rows, now)
	case CSV:
		return WriteCSV(w, rows)
	case JSON:
		return WriteJSON(w, rows)
	case YAML:
		return WriteYAML(w, rows)
	case XLSX:
		return WriteXLSX(w, rows)
	}
	return apperr.Validationf("unknown export format %q", f)
}

var bulletPrefix = regexp.MustCompile(`^[-*•]\s*`)

func WriteMarkdown(w io.Writer, rows []row.Row, now time.Time) error {
	var b strings.Builder
	b.WriteString("# Brain export\n")
	fmt.Fprintf(&b, "> Generated %s\n\n", now.Format("2006-01-02 15:04"))
	for _, r := range rows {
		title := r.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "## %s\n", title)
		if r.Category != "" {
			fmt.Fprintf(&b, "**Category:** %s\n", r.Category)
		}
		if r.DueDate != "" {
			fmt.Fprintf(&b, "**Due:** %s\n", r.DueDate)
		}
		if r.Tags != "" {
			fmt.Fprintf(&b, "**Tags:** %s\n", r.Tags)
		}
		b.WriteString("\n")
		if body := r.Body(); body != "" {
			b.WriteString(body)
			b.WriteString("\n")
		}
		if items := row.SplitLines(r.ActionItems); len(items) > 0 {
			b.WriteString("\n**Action items:**\n")
			for _, it := range items {
				fmt.Fprintf(&b, "- %s\n", bulletPrefix.ReplaceAllString(it, ""))
			}
		}
		b.WriteString("\n---\n\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

var csvHeader = []string{"Title", "Category", "Tags", "Original", "Rewritten", "Action Items", "Due Date", "Task Status", "Media URL", "Created At"}

func csvRecord(r row.Row) []string {
	return []string{r.Title, r.Category, r.Tags, r.Original, r.Rewritten, r.ActionItems, r.DueDate, r.TaskStatus, r.MediaURL, r.CreatedAt}
}

func WriteCSV(w io.Writer, rows []row.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(csvRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteJSON(w io.Writer, rows []row.Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func WriteYAML(w io.Writer, rows []row.Row) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rows); err != nil {
		return err
	}
	return enc.Close()
}

const xlsxSheet = "Entries"

func WriteXLSX(w io.Writer, rows []row.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}
	header := make([]any, len(csvHeader))
	for i, h := range csvHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range rows {
		rec := csvRecord(r)
		vals := make([]any, len(rec))
		for j, v := range rec {
			vals[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &vals); err != nil {
			return err
		}
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(csvHeader), 1)
		_ = f.SetCellStyle(xlsxSheet, "A1", last, style)
	}
	_ = f.SetPanes(xlsxSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	return f.Write(w)
}
