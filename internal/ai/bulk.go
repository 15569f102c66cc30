package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/row"
)

// BulkLabel is the history label of rows saved by a bulk enhancement.
const BulkLabel = "AI: Enhance all"

// Scope picks the rows a bulk run touches.
type Scope string

const (
	ScopeUnenhanced Scope = "unenhanced"
	ScopeAll        Scope = "all"
	ScopeFiltered   Scope = "filtered"
)

// ParseScope resolves a scope name; "" is unenhanced.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(s)) {
	case "", ScopeUnenhanced:
		return ScopeUnenhanced, nil
	case ScopeAll:
		return ScopeAll, nil
	case ScopeFiltered:
		return ScopeFiltered, nil
	}
	return "", apperr.Validationf("unknown scope %q (want unenhanced, all or filtered)", s)
}

// Select returns the rows in scope. all and filtered are the full and the
// filtered row sets; only rows with some text are returned.
func Select(scope Scope, all, filtered []row.Row) []row.Row {
	src := all
	if scope == ScopeFiltered {
		src = filtered
	}
	var out []row.Row
	for _, r := range src {
		if r.Original == "" && r.Title == "" {
			continue
		}
		if scope == ScopeUnenhanced && r.Rewritten != "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// BulkOptions selects the fields a bulk run generates.
type BulkOptions struct {
	Title    bool
	Rewrite  bool
	Tags     bool
	Category bool
	Actions  bool
	// SystemInstruction is sent with every request.
	SystemInstruction string
}

// AllFields turns every field on.
func AllFields() BulkOptions {
	return BulkOptions{Title: true, Rewrite: true, Tags: true, Category: true, Actions: true}
}

// Any reports whether at least one field is selected.
func (o BulkOptions) Any() bool {
	return o.Title || o.Rewrite || o.Tags || o.Category || o.Actions
}

func (o BulkOptions) prompt(text string) string {
	var keys []string
	if o.Title {
		keys = append(keys, "title (concise 5-10 word title for the note)")
	}
	if o.Rewrite {
		keys = append(keys, "rewritten (polished version of the note, first-person journal style)")
	}
	if o.Tags {
		keys = append(keys, "tags (comma-separated lowercase keywords, 3-7 tags)")
	}
	if o.Category {
		keys = append(keys, "category (one word or short phrase), subCategory (optional sub-topic)")
	}
	if o.Actions {
		keys = append(keys, "actionItems (numbered list of action items, or empty string if none)")
	}
	return fmt.Sprintf("Analyze this journal note and return a JSON object with ONLY these keys: %s. Output only valid JSON.\n\n%s",
		strings.Join(keys, "; "), text)
}

// BulkPatcher returns a producer for sync.Orchestrator.RunBulk. Title, tags
// and category are only filled when the row has none; rewrite and action
// items are replaced.
func BulkPatcher(c *Client, o BulkOptions) func(context.Context, row.Row) (row.Patch, error) {
	return func(ctx context.Context, r row.Row) (row.Patch, error) {
		if !o.Any() {
			return nil, apperr.Validationf("select at least one field to generate")
		}
		text := r.Original
		if text == "" {
			text = r.Title
		}
		if text == "" {
			return nil, nil
		}
		content, err := c.Ask(ctx, o.prompt(text), Options{SystemInstruction: o.SystemInstruction})
		if err != nil {
			return nil, err
		}
		res := parseJSONResult(content)

		p := row.Patch{}
		if o.Title && res.Title != "" && r.Title == "" {
			p[row.Title] = res.Title
		}
		if o.Rewrite && res.Rewritten != "" {
			p[row.Rewritten] = res.Rewritten
		}
		if o.Tags && res.Tags != "" && r.Tags == "" {
			p[row.Tags] = res.Tags
		}
		if o.Category && r.Category == "" && res.Category != "" {
			p[row.Category] = res.Category
			if res.SubCategory != "" && r.SubCategory == "" {
				p[row.SubCategory] = res.SubCategory
			}
		}
		if o.Actions && res.ActionItems != "" {
			p[row.ActionItems] = res.ActionItems
		}
		return p, nil
	}
}

// Patch turns a single-action result into the fields that change on r.
func Patch(r row.Row, res Result) row.Patch {
	p := row.Patch{}
	set := func(f row.Field, v string) {
		if v != "" && v != r.Get(f) {
			p[f] = v
		}
	}
	set(row.Rewritten, res.Rewritten)
	set(row.Tags, res.Tags)
	set(row.Category, res.Category)
	set(row.SubCategory, res.SubCategory)
	set(row.ActionItems, res.ActionItems)
	set(row.Title, res.Title)
	return p
}
