package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ramanasai/brain/internal/apperr"
)

type SheetConfig struct {
	ID         string `mapstructure:"id"`
	Name       string `mapstructure:"name"`        // tab holding the rows
	TabID      int64  `mapstructure:"sheet_id"`    // numeric tab id, -1 means look it up
	ConfigName string `mapstructure:"config_name"` // tab holding categories and tags
}

// HasTabID reports whether the numeric tab id is configured.
func (s SheetConfig) HasTabID() bool { return s.TabID >= 0 }

type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// InstructionsConfig holds the optional system instructions sent with each
// kind of AI request.
type InstructionsConfig struct {
	Quick  string `mapstructure:"quick"`
	Bulk   string `mapstructure:"bulk"`
	Digest string `mapstructure:"digest"`
	Chat   string `mapstructure:"chat"`
}

type NotifyConfig struct {
	DueSoon  bool          `mapstructure:"due_soon"`
	NewEntry bool          `mapstructure:"new_entry"`
	Window   time.Duration `mapstructure:"window"`
}

type ReminderConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Time     string   `mapstructure:"time"`     // "09:00"
	Workdays []string `mapstructure:"workdays"` // ["Mon","Tue","Wed","Thu","Fri"]
	Holidays []string `mapstructure:"holidays"` // ["2025-01-26", "2025-08-15"]
	Timezone string   `mapstructure:"timezone"` // e.g. "Asia/Kolkata" (optional)
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type Config struct {
	Sheet        SheetConfig        `mapstructure:"sheet"`
	Google       GoogleConfig       `mapstructure:"google"`
	OpenAI       OpenAIConfig       `mapstructure:"openai"`
	Instructions InstructionsConfig `mapstructure:"instructions"`
	DemoMode     bool               `mapstructure:"demo_mode"`
	Local        struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"local"`
	History struct {
		Depth int `mapstructure:"depth"`
	} `mapstructure:"history"`
	Theme    string         `mapstructure:"theme"`
	Font     string         `mapstructure:"font"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Log      LogConfig      `mapstructure:"log"`

	// Path is the file the config was read from.
	Path string `mapstructure:"-"`
}

// defaults lists every known key. Keys missing here are rejected by Save.
var defaults = map[string]any{
	"sheet.id":             "",
	"sheet.name":           "Sheet1",
	"sheet.sheet_id":       -1,
	"sheet.config_name":    "Config",
	"google.client_id":     "",
	"google.client_secret": "",
	"openai.api_key":       "",
	"openai.model":         "gpt-4o-mini",
	"openai.base_url":      "https://api.openai.com/v1",
	"openai.temperature":   0.7,
	"openai.max_tokens":    800,
	"instructions.quick":   "",
	"instructions.bulk":    "",
	"instructions.digest":  "",
	"instructions.chat":    "",
	"demo_mode":            false,
	"local.path":           "",
	"history.depth":        50,
	"theme":                "default",
	"font":                 "sans",
	"notify.due_soon":      true,
	"notify.new_entry":     false,
	"notify.window":        "24h",
	"reminder.enabled":     false,
	"reminder.time":        "09:00",
	"reminder.workdays":    []string{"Mon", "Tue", "Wed", "Thu", "Fri"},
	"reminder.holidays":    []string{},
	"reminder.timezone":    "",
	"log.level":            "info",
	"log.file":             "",
}

// Keys returns the known keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseValue converts a command-line value for key into the type of its
// default.
func ParseValue(key, raw string) (any, error) {
	d, ok := defaults[key]
	if !ok {
		return nil, apperr.Configf("unknown setting %q", key)
	}
	switch d.(type) {
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperr.Configf("%s wants true or false, got %q", key, raw)
		}
		return b, nil
	case int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperr.Configf("%s wants a number, got %q", key, raw)
		}
		return n, nil
	case float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, apperr.Configf("%s wants a number, got %q", key, raw)
		}
		return f, nil
	case []string:
		var out []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	}
	return raw, nil
}

// DefaultPath is ~/.config/brain/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "brain", "config.yaml"), nil
}

// DefaultLogFile is ~/.local/state/brain/brain.log.
func DefaultLogFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "brain", "brain.log"), nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetEnvPrefix("BRAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	return v
}

// Load reads the config at path (DefaultPath when empty). A missing file
// yields the defaults; BRAIN_* environment variables override the file.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("config read: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config unmarshal: %w", err)
	}
	cfg.Path = path

	// normalize workdays
	for i, d := range cfg.Reminder.Workdays {
		cfg.Reminder.Workdays[i] = normalizeDay(d)
	}
	return cfg, nil
}

func normalizeDay(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if len(d) > 3 {
		d = d[:3]
	}
	if d == "" {
		return d
	}
	return strings.ToUpper(d[:1]) + d[1:]
}

// Get returns the effective value of key for the config at path, after
// defaults and environment overrides.
func Get(path, key string) (any, error) {
	if _, ok := defaults[key]; !ok {
		return nil, apperr.Configf("unknown setting %q", key)
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config read: %w", err)
		}
	}
	return v.Get(key), nil
}

// Save writes changes on top of the file at path, creating it if needed.
func Save(path string, changes map[string]any) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return fmt.Errorf("config read: %w", err)
		}
	}
	for k, val := range changes {
		if _, ok := defaults[k]; !ok {
			return apperr.Configf("unknown setting %q", k)
		}
		v.Set(k, val)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return v.WriteConfigAs(path)
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Sheet.Name) == "" {
		errs = append(errs, apperr.Configf("sheet.name must not be empty"))
	}
	if c.History.Depth < 1 {
		errs = append(errs, apperr.Configf("history.depth must be at least 1, got %d", c.History.Depth))
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		errs = append(errs, apperr.Configf("openai.temperature must be within [0, 2], got %v", c.OpenAI.Temperature))
	}
	if c.OpenAI.MaxTokens < 0 {
		errs = append(errs, apperr.Configf("openai.max_tokens must not be negative"))
	}
	if _, err := time.Parse("15:04", c.Reminder.Time); err != nil {
		errs = append(errs, apperr.Configf("reminder.time %q is not HH:MM", c.Reminder.Time))
	}
	for _, h := range c.Reminder.Holidays {
		if _, err := time.Parse("2006-01-02", strings.TrimSpace(h)); err != nil {
			errs = append(errs, apperr.Configf("reminder.holidays entry %q is not YYYY-MM-DD", h))
		}
	}
	if tz := strings.TrimSpace(c.Reminder.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			errs = append(errs, apperr.Configf("reminder.timezone %q: %v", tz, err))
		}
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, apperr.Configf("log.level %q is not debug, info, warn or error", c.Log.Level))
	}
	return errors.Join(errs...)
}

// Remote reports whether enough is configured to talk to Google Sheets.
func (c Config) Remote() bool {
	return !c.DemoMode && c.Sheet.ID != "" && c.Google.ClientID != ""
}

// Location is the reminder timezone, or local time.
func (c Config) Location() *time.Location {
	if tz := strings.TrimSpace(c.Reminder.Timezone); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.Local
}
