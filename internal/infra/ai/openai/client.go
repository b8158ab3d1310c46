package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/carbon-validator/internal/config"
	"github.com/bryanwahyu/carbon-validator/internal/domain/ai"
)

const defaultModel = "gpt-4"

// Client is an OpenAI-compatible chat completion client. BaseURL lets it target any
// compatible endpoint.
type Client struct {
	api *openai.Client
	cfg config.LLMConfig
}

func NewClient(cfg config.LLMConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ai.Configuration("llm api key is not configured")
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
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Client{api: openai.NewClientWithConfig(oc), cfg: cfg}, nil
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.api == nil {
		return "", ai.Configuration("completion client is not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: temperature(c.cfg.Temp()),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.cfg.Model) {
		req.MaxCompletionTokens = c.cfg.MaxTokens
		req.Temperature = 0
	} else {
		req.MaxTokens = c.cfg.MaxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", ai.Upstream("chat completion", fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err))
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", ai.Upstream("chat completion", fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err))
		}
		return "", ai.Upstream("chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", ai.Upstream("chat completion returned no choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// go-openai drops a zero temperature from the request (omitempty) and the server then
// samples at its default, so greedy decoding is sent as the smallest positive value.
func temperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

// Ping lists models, which checks the endpoint and key without spending tokens.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.api == nil {
		return ai.Configuration("completion client is not configured")
	}
	if _, err := c.api.ListModels(ctx); err != nil {
		return ai.Upstream("list models", err)
	}
	return nil
}
