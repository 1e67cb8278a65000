package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/a3tai/mcp-form-filler/internal/llm"

	"github.com/anthropics/anthropic-sdk-go"
)

var _ llm.Completer = (*Completer)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-3-5-haiku-latest"

const maxTokens = 4096

type Completer struct {
	*Config
	messages anthropic.MessageService
}

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
		Config:   cfg,
		messages: anthropic.NewMessageService(cfg.Options()...),
	}, nil
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,

		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},

		Temperature: anthropic.Float(0),
	}

	message, err := c.messages.New(ctx, req)

	if err != nil {
		return "", convertError(err)
	}

	var sb strings.Builder

	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return sb.String(), nil
}

func convertError(err error) error {
	var apierr *anthropic.Error

	if errors.As(err, &apierr) {
		return fmt.Errorf("anthropic: status %d: %w", apierr.StatusCode, err)
	}

	return err
}
