package langchain

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"form-agent/internal/application/port/output"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var _ output.LLMPort = (*Adapter)(nil)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Adapter generates answers through any langchaingo model.
type Adapter struct {
	model llms.Model
	name  string
}

// New builds an OpenAI-compatible langchaingo client.
func New(cfg Config) (*Adapter, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("langchain client: %w", err)
	}
	return NewWithModel(llm, cfg.Model), nil
}

func NewWithModel(model llms.Model, name string) *Adapter {
	return &Adapter{model: model, name: name}
}

func (a *Adapter) Generate(ctx context.Context, req output.GenerateRequest) (*output.GenerateResponse, error) {
	opts := []llms.CallOption{llms.WithTemperature(float64(req.Temperature))}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, a.model, req.Prompt, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return &output.GenerateResponse{Text: strings.TrimSpace(text), Model: a.name}, nil
}
