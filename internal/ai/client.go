// Package ai talks to an OpenAI-compatible chat completion endpoint to
// rewrite, tag, categorise and summarise entries.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/ohler55/ojg/oj"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ramanasai/brain/internal/apperr"
)

const (
	DefaultModel       = openai.GPT4oMini
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 800
)

// Action selects the prompt sent with the note text.
type Action string

const (
	ActionRewrite    Action = "rewrite"
	ActionTags       Action = "tags"
	ActionCategorize Action = "categorize"
	ActionActions    Action = "actions"
	ActionAll        Action = "all"
	ActionTitle      Action = "title"
)

// Actions lists every action in menu order.
var Actions = []Action{ActionRewrite, ActionTags, ActionCategorize, ActionActions, ActionAll, ActionTitle}

var prompts = map[Action]string{
	ActionRewrite:    "You are a thoughtful journal editor. Rewrite the following note in a clear, polished, first-person journal style. Preserve all meaning. Output only the rewritten text, no intro.",
	ActionTags:       "Extract 3-7 concise tags from this note. Output only a comma-separated list of lowercase tags, no explanation.",
	ActionCategorize: `Suggest one category and one sub-category for this journal note. Output as: "Category: X, SubCategory: Y". No explanation.`,
	ActionActions:    `Extract action items from this note. Output as a numbered list, one per line. If none, say "No action items."`,
	ActionAll:        "Analyze this journal note and return a JSON object with keys: rewritten (polished version), tags (comma-separated), category, subCategory, actionItems (numbered list). Output only valid JSON.",
	ActionTitle:      "Write a concise 5-10 word title for this note. Output only the title, no quotes.",
}

// ParseAction resolves an action name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := prompts[a]; !ok {
		return "", apperr.Validationf("unknown AI action %q", s)
	}
	return a, nil
}

// Result holds whatever the action produced. Unset fields are empty.
type Result struct {
	Rewritten   string `json:"rewritten,omitempty"`
	Title       string `json:"title,omitempty"`
	Tags        string `json:"tags,omitempty"`
	Category    string `json:"category,omitempty"`
	SubCategory string `json:"subCategory,omitempty"`
	ActionItems string `json:"actionItems,omitempty"`
}

// Options tunes a single call.
type Options struct {
	// SystemInstruction is sent as a system message when set.
	SystemInstruction string
}

// Config configures a Client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client runs AI actions. A Client without an API key is valid but every
// call fails with ErrConfig.
type Client struct {
	cfg Config
	api *openai.Client
	log *slog.Logger
}

// New builds a Client, filling defaults for unset fields.
func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	return &Client{cfg: cfg, api: openai.NewClientWithConfig(oc), log: cfg.Logger}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return strings.TrimSpace(c.cfg.APIKey) != "" }

// Run sends text with the prompt for action and parses the reply.
func (c *Client) Run(ctx context.Context, action Action, text string, opts Options) (Result, error) {
	prompt, ok := prompts[action]
	if !ok {
		return Result{}, apperr.Validationf("unknown AI action %q", action)
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, apperr.Validationf("no text to process")
	}
	content, err := c.Ask(ctx, prompt+"\n\n"+text, opts)
	if err != nil {
		return Result{}, err
	}
	return parse(action, content), nil
}

// Ask sends a raw prompt and returns the first choice, untrimmed.
func (c *Client) Ask(ctx context.Context, prompt string, opts Options) (string, error) {
	if !c.Configured() {
		return "", apperr.Configf("openai.api_key is not set")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", apperr.Validationf("no text to process")
	}

	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if s := strings.TrimSpace(opts.SystemInstruction); s != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: s})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	c.log.Debug("ai: chat completion", "model", c.cfg.Model, "chars", len(prompt))
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		c.log.Warn("ai: request failed", "err", err)
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func classify(err error) error {
	var ae *openai.APIError
	if errors.As(err, &ae) {
		msg := ae.Message
		if msg == "" {
			msg = fmt.Sprintf("OpenAI error %d", ae.HTTPStatusCode)
		}
		return &apperr.RemoteError{Service: "openai", Status: ae.HTTPStatusCode, Message: msg}
	}
	var re *openai.RequestError
	if errors.As(err, &re) {
		return &apperr.RemoteError{Service: "openai", Status: re.HTTPStatusCode, Message: fmt.Sprintf("OpenAI error %d", re.HTTPStatusCode)}
	}
	return fmt.Errorf("openai: %w", err)
}

var (
	jsonBlock     = regexp.MustCompile(`\{[\s\S]*\}`)
	categoryRe    = regexp.MustCompile(`(?i)Category:\s*([^,\n]+)`)
	subCategoryRe = regexp.MustCompile(`(?i)SubCategory:\s*([^\n]+)`)
)

func parse(action Action, content string) Result {
	switch action {
	case ActionAll:
		return parseJSONResult(content)
	case ActionCategorize:
		var r Result
		// the sub-category label also contains "Category:", so match it first
		// and search for the category outside of it
		rest := content
		if m := subCategoryRe.FindStringSubmatchIndex(content); m != nil {
			r.SubCategory = strings.TrimSpace(content[m[2]:m[3]])
			rest = content[:m[0]] + content[m[1]:]
		}
		if m := categoryRe.FindStringSubmatch(rest); m != nil {
			r.Category = strings.TrimSpace(m[1])
		}
		return r
	case ActionTags:
		return Result{Tags: strings.TrimSpace(content)}
	case ActionActions:
		return Result{ActionItems: strings.TrimSpace(content)}
	case ActionTitle:
		return Result{Title: strings.Trim(strings.TrimSpace(content), `"`)}
	default:
		return Result{Rewritten: strings.TrimSpace(content)}
	}
}

// parseJSONResult extracts the first {...} block. Anything unparseable is
// treated as a plain rewrite.
func parseJSONResult(content string) Result {
	block := jsonBlock.FindString(content)
	if block == "" {
		return Result{Rewritten: content}
	}
	v, err := oj.ParseString(block)
	if err != nil {
		return Result{Rewritten: content}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return Result{Rewritten: content}
	}
	return Result{
		Rewritten:   text(obj["rewritten"], "\n"),
		Title:       text(obj["title"], " "),
		Tags:        text(obj["tags"], ", "),
		Category:    text(obj["category"], " "),
		SubCategory: text(obj["subCategory"], " "),
		ActionItems: text(obj["actionItems"], "\n"),
	}
}

// text flattens a JSON value; arrays are joined with sep.
func text(v any, sep string) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := text(e, sep); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, sep)
	default:
		return strings.TrimSpace(oj.JSON(t))
	}
}
