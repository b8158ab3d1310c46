package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/carbon-validator/internal/config"
	"github.com/bryanwahyu/carbon-validator/internal/domain/ai"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(config.LLMConfig{Provider: "gemini"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrConfiguration)
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(config.LLMConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, defaultModel, c.cfg.Model)
	assert.Equal(t, config.DefaultTimeout, c.cfg.Timeout)
	assert.Equal(t, config.DefaultMaxTokens, c.cfg.MaxTokens)
	assert.NotNil(t, c.cli)
}

func TestComplete_CancelledCallDoesNotPoisonClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"<summary>ok</summary>"}]}}]}`))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(config.LLMConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Complete(cancelled, "p")
	require.ErrorIs(t, err, ai.ErrUpstream)

	out, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "<summary>ok</summary>", out)
}

func TestComplete_NilClient(t *testing.T) {
	var c *Client
	_, err := c.Complete(context.Background(), "p")
	assert.ErrorIs(t, err, ai.ErrConfiguration)
}

func TestQuotaErrorMatchesSentinel(t *testing.T) {
	err := ai.Upstream("generate content", quotaError{assert.AnError})
	assert.ErrorIs(t, err, ai.ErrUpstream)
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
	assert.ErrorIs(t, err, assert.AnError)
}
