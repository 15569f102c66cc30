package sheets

import (
	"context"
	"fmt"
	"strings"

	gsheets "google.golang.org/api/sheets/v4"

	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/catalog"
)

var configHeader = []string{"type", "value", "meta"}

func (g *Gateway) configRange() string { return g.config + "!A:C" }

// EnsureConfigSheet creates the config tab with its header line. An existing
// tab is left alone.
func (g *Gateway) EnsureConfigSheet(ctx context.Context) error {
	g.log.Debug("sheets: add tab", "title", g.config)
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: g.config},
			},
		}},
	}
	if _, err := g.svc.Spreadsheets.BatchUpdate(g.id, req).Context(ctx).Do(); err != nil {
		if msg := strings.ToLower(err.Error()); strings.Contains(msg, "already exists") || strings.Contains(msg, "already_exists") {
			return nil
		}
		return classify(err)
	}
	_, err := g.svc.Spreadsheets.Values.Update(g.id, g.config+"!A1:C1", valueRange(configHeader)).
		ValueInputOption(valueInput).Context(ctx).Do()
	return classify(err)
}

// FetchConfig reads every config line below the header.
func (g *Gateway) FetchConfig(ctx context.Context) ([]catalog.Item, error) {
	vr, err := g.svc.Spreadsheets.Values.Get(g.id, g.configRange()).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	grid := toGrid(vr.Values)
	if len(grid) < 2 {
		return nil, nil
	}
	items := make([]catalog.Item, 0, len(grid)-1)
	for i, line := range grid[1:] {
		it := catalog.Item{Position: i + 2}
		if len(line) > 0 {
			it.Type = strings.TrimSpace(line[0])
		}
		if len(line) > 1 {
			it.Value = strings.TrimSpace(line[1])
		}
		if len(line) > 2 {
			it.Meta = strings.TrimSpace(line[2])
		}
		if it.Type == "" || it.Value == "" {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// AppendConfig adds one config line.
func (g *Gateway) AppendConfig(ctx context.Context, it catalog.Item) error {
	if it.Type == "" || it.Value == "" {
		return apperr.Validationf("config item needs a type and a value")
	}
	_, err := g.svc.Spreadsheets.Values.Append(g.id, g.configRange(), valueRange([]string{it.Type, it.Value, it.Meta})).
		ValueInputOption(valueInput).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return classify(err)
}

// DeleteConfig removes the first config line matching typ and value. A
// missing line is not an error.
func (g *Gateway) DeleteConfig(ctx context.Context, typ, value string) error {
	items, err := g.FetchConfig(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		if !strings.EqualFold(it.Type, typ) || it.Value != strings.TrimSpace(value) {
			continue
		}
		sid, err := g.tabID(ctx, g.config)
		if err != nil {
			return err
		}
		return g.deleteRows(ctx, sid, it.Position)
	}
	return nil
}

// Check verifies the spreadsheet is reachable with the current credentials.
func (g *Gateway) Check(ctx context.Context) error {
	if _, err := g.svc.Spreadsheets.Get(g.id).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return fmt.Errorf("spreadsheet %s: %w", g.id, classify(err))
	}
	return nil
}
