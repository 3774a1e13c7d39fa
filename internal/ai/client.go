package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// Client wraps the language-model API. Credentials are read from the
// environment by the underlying SDK (GEMINI_API_KEY / GOOGLE_API_KEY).
type Client struct {
	model   string
	timeout time.Duration
	genai   *genai.Client
}

func NewClient(ctx context.Context, model string, timeout time.Duration) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{model: model, timeout: timeout, genai: c}, nil
}

// ParseTransaction asks the model to read a free-text description into a
// structured transaction. All failure modes come back as tagged statuses;
// this method never returns an error.
func (c *Client) ParseTransaction(ctx context.Context, description string, categories []string) ParseResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.generate(ctx, buildParsePrompt(description, categories))
	if err != nil {
		slog.WarnContext(ctx, "Model call failed, caller will fall back",
			"error", err, "description", description)
		return ParseResult{Status: Unavailable, Reason: err.Error()}
	}

	var payload struct {
		Merchant   string  `json:"merchant"`
		Amount     float64 `json:"amount"`
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}
	clean := cleanModelJSON(raw)
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		slog.WarnContext(ctx, "Model answer did not decode",
			"error", err, "raw", raw)
		return ParseResult{Status: Unparseable, Reason: err.Error()}
	}
	if payload.Merchant == "" || payload.Category == "" {
		return ParseResult{Status: Unparseable, Reason: "missing merchant or category"}
	}

	conf := payload.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	return ParseResult{
		Status: Matched,
		Tx: ParsedTransaction{
			Merchant:   payload.Merchant,
			Amount:     decimal.NewFromFloat(payload.Amount).Round(2),
			Category:   payload.Category,
			Confidence: conf,
		},
	}
}

var (
	decisionRe  = regexp.MustCompile(`(?i)DECISION:\s*(YES|MAYBE|NO)`)
	reasoningRe = regexp.MustCompile(`(?is)REASONING:\s*(.+?)(?:\n\n|\z)`)
)

// Advise asks the advice collaborator for a qualitative affordability
// judgment. The numeric context is computed by the caller; only the verdict
// and reasoning come from the model.
func (c *Client) Advise(ctx context.Context, question, financialContext string) (*Advice, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.generate(ctx, buildAdvicePrompt(question, financialContext))
	if err != nil {
		return nil, fmt.Errorf("get advice: %w", err)
	}
	return ParseAdvice(raw), nil
}

// ParseAdvice extracts the DECISION/REASONING pair from a model reply. An
// answer that ignores the format degrades to MAYBE with the full text as
// reasoning.
func ParseAdvice(raw string) *Advice {
	verdict := VerdictMaybe
	if m := decisionRe.FindStringSubmatch(raw); m != nil {
		verdict = Verdict(strings.ToUpper(m[1]))
	}
	reasoning := strings.TrimSpace(raw)
	if m := reasoningRe.FindStringSubmatch(raw); m != nil {
		reasoning = strings.TrimSpace(m[1])
	}
	return &Advice{Verdict: verdict, Reasoning: reasoning}
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// cleanModelJSON strips Markdown fences and surrounding prose the model
// sometimes adds despite instructions, keeping the outermost JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}
