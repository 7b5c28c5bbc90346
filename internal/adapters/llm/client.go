// Package llm provides a content generator over an OpenAI compatible chat completions API
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sitebuilder/internal/core/planner"
	perr "sitebuilder/internal/platform/errors"
	"sitebuilder/internal/platform/logger"
	"sitebuilder/internal/services/build/domain"
)

const (
	baseURLDefault   = "https://api.openai.com/v1"
	defaultModel     = "gpt-4o-mini"
	defaultTimeout   = 90 * time.Second
	defaultMaxTokens = 4096
	defaultUA        = "sitebuilder-content"
)

// Options configures the Client
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	UserAgent   string
}

// Client calls the completions endpoint once per Generate; retries belong to the caller
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

var _ domain.ContentGenerator = (*Client)(nil)

// NewClient returns nil when no api key is configured so callers can treat
// a missing credential as "no generator"
func NewClient(o Options) *Client {
	if strings.TrimSpace(o.APIKey) == "" {
		return nil
	}
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Model == "" {
		o.Model = defaultModel
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	return &Client{
		http: &http.Client{},
		opts: o,
		log:  *logger.Named("llm"),
		now:  time.Now,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	MaxTokens      int            `json:"max_tokens"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate renders the prompt, calls the model and decodes the typed result
func (c *Client) Generate(ctx context.Context, req domain.GenerateRequest) (domain.Content, error) {
	if c == nil {
		return domain.Content{}, domain.ErrNoGenerator
	}

	out, err := c.complete(ctx, buildPrompt(req))
	if err != nil {
		return domain.Content{}, err
	}

	switch req.Kind {
	case planner.KindCorePage, planner.KindCategoryPage:
		return DecodePage(req.Kind, out)
	case planner.KindServicePage:
		ids := make([]string, len(req.Services))
		for i, s := range req.Services {
			ids[i] = s.ID.String()
		}
		return DecodeDetails(req.Kind, out, ids)
	case planner.KindAreaPage:
		ids := make([]string, len(req.Areas))
		for i, a := range req.Areas {
			ids[i] = a.ID.String()
		}
		return DecodeDetails(req.Kind, out, ids)
	default:
		return domain.Content{}, perr.InvalidArgf("llm: unknown task kind %q", req.Kind)
	}
}

// complete performs one chat completion with its own deadline
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: c.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:      c.opts.MaxTokens,
		Temperature:    c.opts.Temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "llm encode request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "llm new request failed")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.opts.UserAgent)

	start := c.now()
	resp, err := c.http.Do(httpReq)
	lat := c.now().Sub(start)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "llm request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("model", c.opts.Model).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Msg("llm http response")

	if resp.StatusCode != http.StatusOK {
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", statusError(resp.StatusCode, string(tail))
	}

	var cr chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&cr); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "llm response decode failed")
	}
	if len(cr.Choices) == 0 {
		return "", domain.Malformed("completion", "no choices")
	}
	ch := cr.Choices[0]
	if ch.FinishReason == "length" {
		return "", domain.Malformed("completion", "output truncated at max tokens")
	}

	c.log.Debug().
		Int("prompt_tokens", cr.Usage.PromptTokens).
		Int("completion_tokens", cr.Usage.CompletionTokens).
		Msg("llm usage")

	return ch.Message.Content, nil
}

func statusError(status int, body string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return perr.Newf(perr.ErrorCodeUnauthorized, "llm rejected credential (status %d)", status)
	case status == http.StatusTooManyRequests:
		return perr.Newf(perr.ErrorCodeTooManyRequests, "llm rate limited")
	case status >= 500:
		return perr.Newf(perr.ErrorCodeUnavailable, "llm upstream error %d", status)
	default:
		return perr.Newf(perr.ErrorCodeInvalidArgument, "llm unexpected status %d body %s", status, body)
	}
}

// String helps when logging which generator is wired
func (c *Client) String() string {
	if c == nil {
		return "llm(disabled)"
	}
	return fmt.Sprintf("llm(%s)", c.opts.Model)
}
