package output

import "context"

type LLMPort interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

type GenerateRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
}

type GenerateResponse struct {
	Text  string
	Model string
}
