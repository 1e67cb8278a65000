// Package provider builds the configured LLM completer.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/a3tai/mcp-form-filler/internal/llm"
	"github.com/a3tai/mcp-form-filler/internal/llm/anthropic"
	"github.com/a3tai/mcp-form-filler/internal/llm/google"
	"github.com/a3tai/mcp-form-filler/internal/llm/openai"
)

// Supported provider names.
const (
	Google    = "google"
	OpenAI    = "openai"
	Anthropic = "anthropic"
)

// Names lists the supported provider names.
var Names = []string{Google, OpenAI, Anthropic}

// Settings selects and parameterizes a provider.
type Settings struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	RateLimit int
}

// CredentialEnv returns the conventional environment variable holding the API key of name.
func CredentialEnv(name string) string {
	switch strings.ToLower(name) {
	case Google:
		return "GOOGLE_API_KEY"
	case OpenAI:
		return "OPENAI_API_KEY"
	case Anthropic:
		return "ANTHROPIC_API_KEY"
	}
	return ""
}

// ResolveAPIKey returns the explicit key, falling back to the provider's conventional variable.
func (s Settings) ResolveAPIKey() string {
	if s.APIKey != "" {
		return s.APIKey
	}
	if env := CredentialEnv(s.Provider); env != "" {
		return os.Getenv(env)
	}
	return ""
}

// New creates the completer described by s, wrapped in a rate limiter when configured.
// A missing key yields llm.ErrMissingCredential.
func New(_ context.Context, s Settings) (llm.Completer, error) {
	key := s.ResolveAPIKey()
	if key == "" {
		return nil, llm.ErrMissingCredential
	}

	client := &http.Client{Timeout: s.Timeout}

	var (
		completer llm.Completer
		err       error
	)

	switch strings.ToLower(s.Provider) {
	case Google, "":
		var opts []google.Option
		opts = append(opts, google.WithToken(key), google.WithClient(client))
		if s.BaseURL != "" {
			opts = append(opts, google.WithURL(s.BaseURL))
		}
		completer, err = google.NewCompleter(s.Model, opts...)
	case OpenAI:
		completer, err = openai.NewCompleter(s.BaseURL, s.Model, openai.WithToken(key), openai.WithClient(client))
	case Anthropic:
		completer, err = anthropic.NewCompleter(s.BaseURL, s.Model, anthropic.WithToken(key), anthropic.WithClient(client))
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", s.Provider)
	}

	if err != nil {
		return nil, err
	}

	return llm.NewLimitedCompleter(llm.NewLimiter(s.RateLimit), completer), nil
}
