// Package app wires configuration, storage, sync and AI into one
// application state shared by the CLI and the TUI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ramanasai/brain/internal/ai"
	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/auth"
	"github.com/ramanasai/brain/internal/catalog"
	"github.com/ramanasai/brain/internal/config"
	"github.com/ramanasai/brain/internal/db"
	"github.com/ramanasai/brain/internal/filter"
	"github.com/ramanasai/brain/internal/logging"
	"github.com/ramanasai/brain/internal/notify"
	"github.com/ramanasai/brain/internal/row"
	"github.com/ramanasai/brain/internal/sheets"
	"github.com/ramanasai/brain/internal/store"
	bsync "github.com/ramanasai/brain/internal/sync"
)

// EnvAccessToken supplies a Google access token obtained elsewhere.
const EnvAccessToken = "BRAIN_ACCESS_TOKEN"

// envTokenLifetime is assumed for tokens taken from the environment.
const envTokenLifetime = 59 * time.Minute

// Options configures New.
type Options struct {
	ConfigPath string
	// Demo forces the local gateway even when Google is configured.
	Demo    bool
	Verbose bool
	Stderr  io.Writer
	Notices func(bsync.Notice)
	// Logger replaces the configured logger.
	Logger *slog.Logger
	Now    func() time.Time
	// HTTPClient is used for Sheets, OAuth and OpenAI calls.
	HTTPClient *http.Client
	// SheetsEndpoint overrides the Sheets API base URL.
	SheetsEndpoint string
	// Config replaces loading from ConfigPath.
	Config *config.Config
}

// App is the running application.
type App struct {
	Cfg     config.Config
	Log     *slog.Logger
	DB      *db.DB
	Store   *store.Store
	Sync    *bsync.Orchestrator
	Catalog *catalog.Manager
	AI      *ai.Client
	// Auth and Sheets are nil in demo mode.
	Auth   *auth.Provider
	Sheets *sheets.Gateway
	// DemoReason says why demo mode is active, or "".
	DemoReason string

	now     func() time.Time
	closers []func() error
	catalog catalog.Catalog
}

// New loads configuration and builds the application. When Google is not
// configured the local database serves as the sheet (demo mode).
func New(ctx context.Context, o Options) (*App, error) {
	var cfg config.Config
	if o.Config != nil {
		cfg = *o.Config
	} else {
		c, err := config.Load(o.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if o.Now == nil {
		o.Now = time.Now
	}

	a := &App{Cfg: cfg, now: o.Now}
	if o.Logger != nil {
		a.Log = o.Logger
	} else {
		log, closeLog, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File, Verbose: o.Verbose, Stderr: o.Stderr})
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		a.Log = log
		a.closers = append(a.closers, closeLog)
	}

	d, err := db.Open(cfg.Local.Path, a.Log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open local database: %w", err)
	}
	a.DB = d
	a.closers = append(a.closers, d.Close)
	if err := d.InitDefaultTemplates(ctx); err != nil {
		a.Log.Warn("app: templates", "err", err)
	}

	a.AI = ai.New(ai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		BaseURL:     cfg.OpenAI.BaseURL,
		Temperature: float32(cfg.OpenAI.Temperature),
		MaxTokens:   cfg.OpenAI.MaxTokens,
		HTTPClient:  o.HTTPClient,
		Logger:      a.Log,
	})

	var gw bsync.Gateway = d
	var cgw catalog.Gateway = d
	switch {
	case o.Demo || cfg.DemoMode:
		a.DemoReason = "demo mode is on"
	default:
		if err := a.connect(ctx, o); err != nil {
			if !errors.Is(err, apperr.ErrConfig) {
				a.Close()
				return nil, err
			}
			a.DemoReason = strings.TrimPrefix(err.Error(), apperr.ErrConfig.Error()+": ")
		} else {
			gw, cgw = a.Sheets, a.Sheets
		}
	}
	if a.Demo() {
		a.Log.Info("app: using local database", "reason", a.DemoReason)
		if _, err := d.SeedDemo(ctx, o.Now()); err != nil {
			a.Log.Warn("app: seed demo", "err", err)
		}
	}

	a.Store = store.New(store.WithMaxDepth(cfg.History.Depth))
	a.Sync = bsync.New(a.Store, gw,
		bsync.WithLogger(a.Log),
		bsync.WithClock(o.Now),
		bsync.WithNotices(o.Notices),
	)
	a.Catalog = catalog.New(cgw, a.Log)
	return a, nil
}

func (a *App) connect(ctx context.Context, o Options) error {
	if a.Cfg.Sheet.ID == "" {
		return apperr.Configf("sheet.id is not set")
	}
	p, err := auth.New(auth.Config{
		ClientID:     a.Cfg.Google.ClientID,
		ClientSecret: a.Cfg.Google.ClientSecret,
		HTTPClient:   o.HTTPClient,
		Now:          o.Now,
		Logger:       a.Log,
	})
	if err != nil {
		return err
	}
	if tok := strings.TrimSpace(os.Getenv(EnvAccessToken)); tok != "" {
		p.SetToken(tok, o.Now().Add(envTokenLifetime))
	}

	so := sheets.Options{
		SpreadsheetID: a.Cfg.Sheet.ID,
		SheetName:     a.Cfg.Sheet.Name,
		ConfigSheet:   a.Cfg.Sheet.ConfigName,
		TokenSource:   p.TokenSource(),
		Endpoint:      o.SheetsEndpoint,
		Logger:        a.Log,
	}
	if a.Cfg.Sheet.HasTabID() {
		id := a.Cfg.Sheet.TabID
		so.SheetID = &id
	}
	g, err := sheets.New(ctx, so)
	if err != nil {
		return err
	}
	a.Auth, a.Sheets = p, g
	return nil
}

// Demo reports whether the local database stands in for the sheet.
func (a *App) Demo() bool { return a.Sheets == nil }

// Mode names the active backend.
func (a *App) Mode() string {
	if a.Demo() {
		return "demo"
	}
	return "sheets"
}

// Close releases the database and log file.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Authenticated reports whether remote calls can be made.
func (a *App) Authenticated() bool { return a.Demo() || a.Auth.Valid() }

// Login runs the consent flow.
func (a *App) Login(ctx context.Context) (auth.Token, error) {
	if a.Demo() {
		return auth.Token{}, apperr.Configf("sign-in needs google.client_id and sheet.id (%s)", a.DemoReason)
	}
	return a.Auth.RequestToken(ctx)
}

// EnsureAuth signs in when no valid token is held. CLI commands call it on
// the user's behalf; the TUI waits for an explicit key press instead.
func (a *App) EnsureAuth(ctx context.Context) error {
	if a.Authenticated() {
		return nil
	}
	_, err := a.Login(ctx)
	return err
}

// Logout revokes the token and forgets every loaded row.
func (a *App) Logout(ctx context.Context) error {
	a.Store.Reset()
	if a.Demo() {
		return nil
	}
	return a.Auth.Revoke(ctx)
}

// Load reads the catalog and the rows.
func (a *App) Load(ctx context.Context) error {
	a.catalog = a.Catalog.Load(ctx)
	return a.Sync.Refresh(ctx)
}

// CatalogSnapshot returns the catalog read by the last Load.
func (a *App) CatalogSnapshot() catalog.Catalog { return a.catalog }

// ReloadCatalog re-reads the config tab.
func (a *App) ReloadCatalog(ctx context.Context) catalog.Catalog {
	a.catalog = a.Catalog.Load(ctx)
	return a.catalog
}

// Now is the application clock.
func (a *App) Now() time.Time { return a.now() }

// Create adds an entry and, when enabled, announces it.
func (a *App) Create(ctx context.Context, fields row.Patch) error {
	if err := a.Sync.CreateRow(ctx, fields); err != nil {
		return err
	}
	if a.Cfg.Notify.NewEntry {
		if err := notify.NewEntry(fields[row.Title]); err != nil {
			a.Log.Debug("app: notification failed", "err", err)
		}
	}
	return nil
}

// View applies st to the current rows.
func (a *App) View(st filter.State) []row.Row {
	return filter.Apply(a.Sync.Rows(), st, a.now())
}

// AIOptions returns the call options for an instruction slot.
func (a *App) AIOptions(kind string) ai.Options {
	in := a.Cfg.Instructions
	m := map[string]string{"quick": in.Quick, "bulk": in.Bulk, "digest": in.Digest, "chat": in.Chat}
	return ai.Options{SystemInstruction: m[kind]}
}

// Enhance runs one AI action on the row at pos and saves the result.
func (a *App) Enhance(ctx context.Context, pos int, action ai.Action) (ai.Result, error) {
	r, ok := a.Sync.Row(pos)
	if !ok {
		return ai.Result{}, apperr.Validationf("no entry at row %d", pos)
	}
	text := r.Original
	if text == "" {
		text = r.Title
	}
	res, err := a.AI.Run(ctx, action, text, a.AIOptions("quick"))
	if err != nil {
		return res, err
	}
	p := ai.Patch(r, res)
	if len(p) == 0 {
		return res, nil
	}
	return res, a.Sync.SaveRow(ctx, pos, p, "AI: "+string(action))
}

// BulkEnhance runs the AI over the rows in scope. filtered is the current
// view, used by the filtered scope.
func (a *App) BulkEnhance(ctx context.Context, scope ai.Scope, filtered []row.Row, opts ai.BulkOptions, progress func(done, total int)) (bsync.BulkReport, error) {
	if !a.AI.Configured() {
		return bsync.BulkReport{}, apperr.Configf("openai.api_key is not set")
	}
	if !opts.Any() {
		return bsync.BulkReport{}, apperr.Validationf("select at least one field to generate")
	}
	targets := ai.Select(scope, a.Sync.Rows(), filtered)
	if len(targets) == 0 {
		return bsync.BulkReport{}, apperr.Validationf("no entries match the %s scope", scope)
	}
	if opts.SystemInstruction == "" {
		opts.SystemInstruction = a.Cfg.Instructions.Bulk
	}
	positions := make([]int, len(targets))
	for i, r := range targets {
		positions[i] = r.Position
	}
	return a.Sync.RunBulk(ctx, positions, ai.BulkLabel, ai.BulkPatcher(a.AI, opts), progress)
}

// Remind sends a desktop notification for entries due soon and returns them.
func (a *App) Remind() ([]row.Row, error) {
	if !a.Cfg.Notify.DueSoon {
		return nil, nil
	}
	due := notify.DueSoon(a.Sync.Rows(), a.now(), a.Cfg.Notify.Window)
	if len(due) == 0 {
		return nil, nil
	}
	title, msg := notify.FormatDueSoon(due, a.now())
	return due, notify.Info(title, msg)
}

// Pref returns a stored UI preference or def.
func (a *App) Pref(ctx context.Context, key, def string) string {
	v, ok, err := a.DB.Pref(ctx, key)
	if err != nil {
		a.Log.Warn("app: read preference", "key", key, "err", err)
	}
	if !ok || v == "" {
		return def
	}
	return v
}

// SetPref stores a UI preference; failures are logged only.
func (a *App) SetPref(ctx context.Context, key, value string) {
	if err := a.DB.SetPref(ctx, key, value); err != nil {
		a.Log.Warn("app: save preference", "key", key, "err", err)
	}
}
