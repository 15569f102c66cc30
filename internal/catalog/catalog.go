// Package catalog manages the user's custom categories, tags and category
// colours, stored as (type, value, meta) lines in the config tab.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ramanasai/brain/internal/apperr"
)

// Item types stored in the config tab.
const (
	TypeCategory = "category"
	TypeTag      = "tag"
	TypeColor    = "colorConfig"
)

// BuiltinCategories are offered even when the sheet has none.
var BuiltinCategories = []string{"Journal", "Work", "Learning", "Health", "Finance", "Ideas", "Personal", "Other"}

// Item is one config line. Position is its 1-based line in the tab.
type Item struct {
	Position int    `json:"-"`
	Type     string `json:"type"`
	Value    string `json:"value"`
	Meta     string `json:"meta,omitempty"`
}

// Gateway is the backing config tab.
type Gateway interface {
	EnsureConfigSheet(ctx context.Context) error
	FetchConfig(ctx context.Context) ([]Item, error)
	AppendConfig(ctx context.Context, it Item) error
	DeleteConfig(ctx context.Context, typ, value string) error
}

// Catalog is the loaded config tab.
type Catalog struct {
	Categories []string
	Tags       []string
	// Colors maps category name to a colour (hex or ANSI code).
	Colors map[string]string
}

// Manager reads and edits the catalog.
type Manager struct {
	gw  Gateway
	log *slog.Logger
}

// New returns a Manager over gw.
func New(gw Gateway, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{gw: gw, log: log}
}

// Load reads the catalog. Failures are not fatal: an empty catalog is
// returned and the error is logged.
func (m *Manager) Load(ctx context.Context) Catalog {
	c := Catalog{Colors: map[string]string{}}
	if err := m.gw.EnsureConfigSheet(ctx); err != nil {
		m.log.Warn("catalog: ensure config tab", "err", err)
	}
	items, err := m.gw.FetchConfig(ctx)
	if err != nil {
		m.log.Warn("catalog: load failed", "err", err)
		return c
	}
	seen := map[string]bool{}
	for _, it := range items {
		key := strings.ToLower(it.Type) + "\x00" + it.Value
		if seen[key] && !strings.EqualFold(it.Type, TypeColor) {
			continue
		}
		seen[key] = true
		switch strings.ToLower(it.Type) {
		case TypeCategory:
			c.Categories = append(c.Categories, it.Value)
		case TypeTag:
			c.Tags = append(c.Tags, it.Value)
		case strings.ToLower(TypeColor):
			c.Colors[it.Value] = it.Meta
		}
	}
	return c
}

// AllCategories merges the built-ins, the custom categories and those in use.
func (c Catalog) AllCategories(inUse []string) []string {
	set := map[string]bool{}
	for _, group := range [][]string{BuiltinCategories, c.Categories, inUse} {
		for _, v := range group {
			if v = strings.TrimSpace(v); v != "" {
				set[v] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// HasCategory reports whether name is a custom category.
func (c Catalog) HasCategory(name string) bool { return contains(c.Categories, name) }

// HasTag reports whether name is a custom tag.
func (c Catalog) HasTag(name string) bool { return contains(c.Tags, name) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// AddCategory stores a custom category unless it already exists.
func (m *Manager) AddCategory(ctx context.Context, name string) error {
	return m.add(ctx, TypeCategory, name)
}

// AddTag stores a custom tag unless it already exists.
func (m *Manager) AddTag(ctx context.Context, name string) error {
	return m.add(ctx, TypeTag, strings.TrimPrefix(strings.TrimSpace(name), "#"))
}

func (m *Manager) add(ctx context.Context, typ, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return apperr.Validationf("%s name is empty", typ)
	}
	items, err := m.gw.FetchConfig(ctx)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	for _, it := range items {
		if strings.EqualFold(it.Type, typ) && strings.EqualFold(it.Value, value) {
			return nil
		}
	}
	if err := m.gw.AppendConfig(ctx, Item{Type: typ, Value: value}); err != nil {
		return fmt.Errorf("catalog: add %s: %w", typ, err)
	}
	m.log.Info("catalog: added", "type", typ, "value", value)
	return nil
}

// Remove deletes a custom category or tag.
func (m *Manager) Remove(ctx context.Context, typ, value string) error {
	switch typ {
	case TypeCategory, TypeTag, TypeColor:
	default:
		return apperr.Validationf("unknown catalog type %q", typ)
	}
	if err := m.gw.DeleteConfig(ctx, typ, value); err != nil {
		return fmt.Errorf("catalog: remove %s: %w", typ, err)
	}
	return nil
}

// SetColor replaces the colour of category.
func (m *Manager) SetColor(ctx context.Context, category, color string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return apperr.Validationf("category name is empty")
	}
	if err := m.gw.DeleteConfig(ctx, TypeColor, category); err != nil {
		return fmt.Errorf("catalog: set color: %w", err)
	}
	if strings.TrimSpace(color) == "" {
		return nil
	}
	if err := m.gw.AppendConfig(ctx, Item{Type: TypeColor, Value: category, Meta: strings.TrimSpace(color)}); err != nil {
		return fmt.Errorf("catalog: set color: %w", err)
	}
	return nil
}
