package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/a3tai/mcp-form-filler/internal/llm"

	"github.com/openai/openai-go/v3"
)

var _ llm.Completer = (*Completer)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

type Completer struct {
	*Config
	completions openai.ChatCompletionService
}

// NewCompleter creates a chat completion backed completer. An empty url targets api.openai.com.
func NewCompleter(url, model string, options ...Option) (*Completer, error) {
	if model == "" {
		model = DefaultModel
	}

	cfg := &Config{
		url:   url,
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	if cfg.token == "" {
		return nil, llm.ErrMissingCredential
	}

	return &Completer{
		Config:      cfg,
		completions: openai.NewChatCompletionService(cfg.Options()...),
	}, nil
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model: c.model,

		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},

		Temperature: openai.Float(0),
	}

	completion, err := c.completions.New(ctx, req)

	if err != nil {
		return "", convertError(err)
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("empty response from model")
	}

	return completion.Choices[0].Message.Content, nil
}

func convertError(err error) error {
	var apierr *openai.Error

	if errors.As(err, &apierr) {
		return fmt.Errorf("openai: status %d: %w", apierr.StatusCode, err)
	}

	return err
}
