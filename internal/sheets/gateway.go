// Package sheets is the Google Sheets implementation of the row gateway.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/row"
)

const (
	DefaultSheetName  = "Sheet1"
	DefaultConfigName = "Config"

	valueInput  = "USER_ENTERED"
	renderValue = "FORMATTED_VALUE"
)

// Options configures a Gateway.
type Options struct {
	SpreadsheetID string
	SheetName     string
	// SheetID is the numeric tab id used for row deletion. When nil it is
	// looked up by SheetName on first use.
	SheetID     *int64
	ConfigSheet string
	TokenSource oauth2.TokenSource
	// HTTPClient replaces the token source transport, e.g. in tests.
	HTTPClient *http.Client
	Endpoint   string
	Logger     *slog.Logger
}

// Gateway reads and writes knowledge-base rows in one spreadsheet tab.
type Gateway struct {
	svc    *gsheets.Service
	id     string
	sheet  string
	config string
	log    *slog.Logger

	mu      sync.Mutex
	sheetID *int64
}

// New builds a Gateway. The spreadsheet id is required.
func New(ctx context.Context, o Options) (*Gateway, error) {
	if strings.TrimSpace(o.SpreadsheetID) == "" {
		return nil, apperr.Configf("sheet.id is not set")
	}
	var opts []option.ClientOption
	switch {
	case o.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(o.HTTPClient))
	case o.TokenSource != nil:
		opts = append(opts, option.WithTokenSource(o.TokenSource))
	default:
		opts = append(opts, option.WithoutAuthentication())
	}
	if o.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(o.Endpoint))
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	g := &Gateway{
		svc:     svc,
		id:      o.SpreadsheetID,
		sheet:   o.SheetName,
		config:  o.ConfigSheet,
		log:     o.Logger,
		sheetID: o.SheetID,
	}
	if g.sheet == "" {
		g.sheet = DefaultSheetName
	}
	if g.config == "" {
		g.config = DefaultConfigName
	}
	if g.log == nil {
		g.log = slog.Default()
	}
	return g, nil
}

func (g *Gateway) dataRange() string {
	return fmt.Sprintf("%s!A:%s", g.sheet, row.ColumnLetter(row.TotalCols))
}

func (g *Gateway) rowRange(pos int) string {
	return fmt.Sprintf("%s!A%d:%s%d", g.sheet, pos, row.ColumnLetter(row.TotalCols), pos)
}

// Fetch reads the whole data range.
func (g *Gateway) Fetch(ctx context.Context) ([]row.Row, error) {
	g.log.Debug("sheets: get", "range", g.dataRange())
	vr, err := g.svc.Spreadsheets.Values.Get(g.id, g.dataRange()).
		ValueRenderOption(renderValue).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	return row.Parse(toGrid(vr.Values)), nil
}

// Update overwrites the line at r.Position.
func (g *Gateway) Update(ctx context.Context, r row.Row) error {
	if r.Position < 2 {
		return apperr.Validationf("row position %d is not a data row", r.Position)
	}
	rng := g.rowRange(r.Position)
	g.log.Debug("sheets: update", "range", rng)
	_, err := g.svc.Spreadsheets.Values.Update(g.id, rng, valueRange(row.Values(r))).
		ValueInputOption(valueInput).Context(ctx).Do()
	return classify(err)
}

// Append adds r after the last data line.
func (g *Gateway) Append(ctx context.Context, r row.Row) error {
	g.log.Debug("sheets: append", "range", g.dataRange())
	_, err := g.svc.Spreadsheets.Values.Append(g.id, g.dataRange(), valueRange(row.Values(r))).
		ValueInputOption(valueInput).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return classify(err)
}

// Delete removes the line at position; later lines shift up.
func (g *Gateway) Delete(ctx context.Context, position int) error {
	if position < 2 {
		return apperr.Validationf("row position %d is not a data row", position)
	}
	sid, err := g.tabID(ctx, g.sheet)
	if err != nil {
		return err
	}
	return g.deleteRows(ctx, sid, position)
}

func (g *Gateway) deleteRows(ctx context.Context, sheetID int64, position int) error {
	g.log.Debug("sheets: delete", "sheet_id", sheetID, "row", position)
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			DeleteDimension: &gsheets.DeleteDimensionRequest{
				Range: &gsheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(position - 1),
					EndIndex:   int64(position),
					// zero sheet id and start index must still be sent
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	_, err := g.svc.Spreadsheets.BatchUpdate(g.id, req).Context(ctx).Do()
	return classify(err)
}

// tabID resolves the numeric id of the tab called title.
func (g *Gateway) tabID(ctx context.Context, title string) (int64, error) {
	if title == g.sheet {
		g.mu.Lock()
		cached := g.sheetID
		g.mu.Unlock()
		if cached != nil {
			return *cached, nil
		}
	}
	ss, err := g.svc.Spreadsheets.Get(g.id).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, classify(err)
	}
	for _, s := range ss.Sheets {
		if s.Properties == nil || s.Properties.Title != title {
			continue
		}
		id := s.Properties.SheetId
		if title == g.sheet {
			g.mu.Lock()
			g.sheetID = &id
			g.mu.Unlock()
		}
		return id, nil
	}
	return 0, &apperr.RemoteError{Service: "sheets", Status: http.StatusNotFound, Message: fmt.Sprintf("no tab named %q", title)}
}

func valueRange(cells []string) *gsheets.ValueRange {
	line := make([]interface{}, len(cells))
	for i, c := range cells {
		line[i] = c
	}
	return &gsheets.ValueRange{Values: [][]interface{}{line}}
}

func toGrid(values [][]interface{}) [][]string {
	grid := make([][]string, len(values))
	for i, line := range values {
		grid[i] = make([]string, len(line))
		for j, c := range line {
			if c != nil {
				grid[i][j] = fmt.Sprint(c)
			}
		}
	}
	return grid
}

// classify maps transport and API errors onto apperr kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperr.ErrAuth) {
		return err
	}
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		msg := ge.Message
		if ge.Code == http.StatusUnauthorized || ge.Code == http.StatusForbidden {
			if msg == "" {
				msg = http.StatusText(ge.Code)
			}
			return fmt.Errorf("%w: %s", apperr.ErrAuth, msg)
		}
		return &apperr.RemoteError{Service: "sheets", Status: ge.Code, Message: msg}
	}
	return fmt.Errorf("sheets: %w", err)
}
