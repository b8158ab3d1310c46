package gemini

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/bryanwahyu/carbon-validator/internal/config"
	"github.com/bryanwahyu/carbon-validator/internal/domain/ai"
)

const defaultModel = "gemini-2.0-flash"

// Client completes prompts against the Gemini API.
type Client struct {
	cfg config.LLMConfig
	cli *genai.Client
}

func NewClient(cfg config.LLMConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ai.Configuration("gemini api key is not configured")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = config.DefaultMaxTokens
	}

	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	// the client outlives any single request, so it is not tied to a caller's context
	cli, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, ai.Configuration("gemini client: " + err.Error())
	}
	return &Client{cfg: cfg, cli: cli}, nil
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.cli == nil {
		return "", ai.Configuration("completion client is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	temp := c.cfg.Temp()
	resp, err := c.cli.Models.GenerateContent(ctx, c.cfg.Model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			Temperature:     &temp,
			MaxOutputTokens: int32(c.cfg.MaxTokens),
		},
	)
	if err != nil {
		if strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") || strings.Contains(err.Error(), "429") {
			return "", ai.Upstream("generate content", quotaError{err})
		}
		return "", ai.Upstream("generate content", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ai.Upstream("generate content returned no candidates", nil)
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	if b.Len() == 0 {
		return "", ai.Upstream("generate content returned empty text", nil)
	}
	return b.String(), nil
}

type quotaError struct{ err error }

func (q quotaError) Error() string   { return q.err.Error() }
func (q quotaError) Unwrap() []error { return []error{ai.ErrQuotaExceeded, q.err} }
