package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/ramanasai/brain/internal/apperr"
	"github.com/ramanasai/brain/internal/row"
)

const (
	digestRows  = 20
	digestChars = 200
	chatRows    = 30
	chatChars   = 150
)

// Digest summarises the first rows into a short weekly digest.
func (c *Client) Digest(ctx context.Context, rows []row.Row, opts Options) (string, error) {
	if len(rows) == 0 {
		return "", apperr.Validationf("no entries to summarise")
	}
	var b strings.Builder
	for i, r := range head(rows, digestRows) {
		fmt.Fprintf(&b, "%d. [%s] %s: %s\n", i+1, r.Category, r.Title, clip(r.Body(), digestChars))
	}
	prompt := "You are a personal assistant. Here are recent journal entries:\n\n" + b.String() +
		"\nWrite a thoughtful weekly digest (3-5 sentences): key themes, accomplishments, patterns, and suggested focus for the week."
	out, err := c.Ask(ctx, prompt, opts)
	return strings.TrimSpace(out), err
}

// Chat answers question using the first rows as context.
func (c *Client) Chat(ctx context.Context, rows []row.Row, question string, opts Options) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", apperr.Validationf("empty question")
	}
	var b strings.Builder
	for _, r := range head(rows, chatRows) {
		fmt.Fprintf(&b, "[%s] %s: %s\n", r.Category, r.Title, clip(r.Body(), chatChars))
	}
	prompt := "You are an AI assistant with access to the user's personal knowledge base. Context:\n" + b.String() +
		"\nUser question: " + question + "\n\nAnswer helpfully and specifically based on their notes."
	out, err := c.Ask(ctx, prompt, opts)
	return strings.TrimSpace(out), err
}

func head(rows []row.Row, n int) []row.Row {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

// clip cuts s to n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
