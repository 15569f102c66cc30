package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ramanasai/brain/internal/apperr"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sheet.Name != "Sheet1" || cfg.Sheet.ConfigName != "Config" || cfg.Sheet.HasTabID() {
		t.Fatalf("sheet = %+v", cfg.Sheet)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" || cfg.OpenAI.MaxTokens != 800 || cfg.OpenAI.Temperature != 0.7 {
		t.Fatalf("openai = %+v", cfg.OpenAI)
	}
	if cfg.History.Depth != 50 || cfg.Notify.Window != 24*time.Hour || len(cfg.Reminder.Workdays) != 5 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Remote() {
		t.Fatal("Remote() = true without ids")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "sheet:\n  id: abc\n  sheet_id: 0\ngoogle:\n  client_id: cid\nreminder:\n  workdays: [monday, TUE]\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BRAIN_OPENAI_MODEL", "gpt-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sheet.ID != "abc" || !cfg.Sheet.HasTabID() || cfg.Sheet.TabID != 0 {
		t.Fatalf("sheet = %+v", cfg.Sheet)
	}
	if cfg.OpenAI.Model != "gpt-test" {
		t.Fatalf("model = %q, want env override", cfg.OpenAI.Model)
	}
	if got := cfg.Reminder.Workdays; len(got) != 2 || got[0] != "Mon" || got[1] != "Tue" {
		t.Fatalf("workdays = %v", got)
	}
	if !cfg.Remote() {
		t.Fatal("Remote() = false with ids set")
	}
	cfg.DemoMode = true
	if cfg.Remote() {
		t.Fatal("Remote() = true in demo mode")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	depth, err := ParseValue("history.depth", "12")
	if err != nil {
		t.Fatalf("ParseValue() error = %v", err)
	}
	days, _ := ParseValue("reminder.workdays", "Sat, Sun")
	if err := Save(path, map[string]any{"history.depth": depth, "reminder.workdays": days, "theme": "dark"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := Save(path, map[string]any{"openai.api_key": "sk-1"}); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.History.Depth != 12 || cfg.Theme != "dark" || cfg.OpenAI.APIKey != "sk-1" || len(cfg.Reminder.Workdays) != 2 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if err := Save(path, map[string]any{"bogus": 1}); !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("Save(unknown) error = %v", err)
	}
	if _, err := ParseValue("history.depth", "many"); !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("ParseValue() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg, _ := Load(filepath.Join(t.TempDir(), "none.yaml"))
	cfg.History.Depth = 0
	cfg.Reminder.Time = "9am"
	cfg.Reminder.Holidays = []string{"someday"}
	cfg.Log.Level = "loud"
	err := cfg.Validate()
	if !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("Validate() error = %v", err)
	}
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) || len(joined.Unwrap()) != 4 {
		t.Fatalf("Validate() = %v, want 4 issues", err)
	}
}

func TestLocation(t *testing.T) {
	cfg, _ := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if loc := cfg.Location(); loc != time.Local {
		t.Fatalf("Location() = %v, want Local", loc)
	}
	cfg.Reminder.Timezone = "UTC"
	if loc := cfg.Location(); loc != time.UTC {
		t.Fatalf("Location() = %v", loc)
	}
}

func TestGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(path, map[string]any{"theme": "light"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	v, err := Get(path, "theme")
	if err != nil || v != "light" {
		t.Fatalf("Get(theme) = %v, %v", v, err)
	}
	v, err = Get(path, "sheet.name")
	if err != nil || v != "Sheet1" {
		t.Fatalf("Get(sheet.name) = %v, %v", v, err)
	}
	if _, err := Get(path, "nope"); !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("Get(nope) error = %v", err)
	}
}
