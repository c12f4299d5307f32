package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxTokens is the completion budget used when a request does
// not set one.
const DefaultMaxTokens = 2048

// ErrUnknownProvider is returned by New for provider names it does not
// recognize.
var ErrUnknownProvider = errors.New("unknown provider")

// Request is one completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int64
}

// Client produces text completions.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Option configures a provider client.
type Option func(*config)

type config struct {
	model string
}

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(c *config) {
		if model != "" {
			c.model = model
		}
	}
}

func applyOptions(opts []Option) config {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// New returns a client for the named provider.
func New(provider, apiKey string, opts ...Option) (Client, error) {
	switch strings.ToLower(provider) {
	case "anthropic":
		return NewAnthropic(apiKey, opts...), nil
	case "openai":
		return NewOpenAI(apiKey, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}
