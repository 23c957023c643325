package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"form-agent/internal/application/port/output"
	"form-agent/internal/infrastructure/logger"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, handler func(req openai.ChatCompletionRequest) (int, any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func newAdapter(url string) *OpenRouterAdapter {
	cfg := DefaultConfig("test-key", "test/model")
	cfg.BaseURL = url
	cfg.Logger = logger.NewNop()
	return NewOpenRouterAdapter(cfg)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("key", "model")
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "model", cfg.Model)
	assert.Positive(t, cfg.Timeout)
}

func TestGenerate(t *testing.T) {
	var got openai.ChatCompletionRequest
	server := completionServer(t, func(req openai.ChatCompletionRequest) (int, any) {
		got = req
		return http.StatusOK, openai.ChatCompletionResponse{
			Model: "test/model-2024",
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "  Selected option: 2\n"}},
			},
		}
	})

	resp, err := newAdapter(server.URL).Generate(context.Background(), output.GenerateRequest{
		Prompt:      "Pick one",
		MaxTokens:   80,
		Temperature: 0.3,
	})
	require.NoError(t, err)

	assert.Equal(t, "Selected option: 2", resp.Text)
	assert.Equal(t, "test/model-2024", resp.Model)

	assert.Equal(t, "test/model", got.Model)
	assert.Equal(t, 80, got.MaxTokens)
	assert.InDelta(t, 0.3, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[0].Role)
	assert.Equal(t, "Pick one", got.Messages[0].Content)
}

func TestGenerate_NoChoices(t *testing.T) {
	server := completionServer(t, func(openai.ChatCompletionRequest) (int, any) {
		return http.StatusOK, openai.ChatCompletionResponse{}
	})

	_, err := newAdapter(server.URL).Generate(context.Background(), output.GenerateRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestGenerate_APIError(t *testing.T) {
	server := completionServer(t, func(openai.ChatCompletionRequest) (int, any) {
		return http.StatusTooManyRequests, map[string]any{
			"error": map[string]any{"message": "rate limited", "type": "rate_limit"},
		}
	})

	_, err := newAdapter(server.URL).Generate(context.Background(), output.GenerateRequest{Prompt: "x"})
	require.Error(t, err)

	var apiErr *openai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatusCode)
}
