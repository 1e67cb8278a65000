package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/a3tai/mcp-form-filler/internal/llm"

	"google.golang.org/genai"
)

var _ llm.Completer = (*Completer)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

type Completer struct {
	*Config
}

func NewCompleter(model string, options ...Option) (*Completer, error) {
	if model == "" {
		model = DefaultModel
	}

	cfg := &Config{
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	if cfg.token == "" {
		return nil, llm.ErrMissingCredential
	}

	return &Completer{
		Config: cfg,
	}, nil
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	client, err := c.newClient(ctx)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty response from model")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		sb.WriteString(part.Text)
	}

	return sb.String(), nil
}
