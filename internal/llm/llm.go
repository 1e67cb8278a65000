// Package llm defines the single-shot completion contract used by the field mapper.
package llm

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

// ErrMissingCredential is returned when a provider is configured without an API key.
var ErrMissingCredential = errors.New("credential not found")

// Completer sends one prompt and returns the model's text response.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type limitedCompleter struct {
	limiter   *rate.Limiter
	completer Completer
}

// NewLimitedCompleter waits on limiter before every call. A nil limiter returns
// completer unchanged.
func NewLimitedCompleter(limiter *rate.Limiter, completer Completer) Completer {
	if limiter == nil {
		return completer
	}

	return &limitedCompleter{
		limiter:   limiter,
		completer: completer,
	}
}

func (c *limitedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	return c.completer.Complete(ctx, prompt)
}

// NewLimiter creates a limiter allowing perSecond calls per second, or nil when perSecond <= 0.
func NewLimiter(perSecond int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Limit(perSecond), perSecond)
}
