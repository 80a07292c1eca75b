// Package llm abstracts the chat-completion providers that produce
// edit directives. Providers return raw model text; extraction and
// validation happen downstream.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Client is a minimal chat-completion interface. Complete sends one
// system prompt and one user message and returns the model's text.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

// Config selects and configures a provider.
type Config struct {
	Provider string // gemini, openai
	APIKey   string
	Model    string
	BaseURL  string
}

// New builds the provider named in cfg.Provider.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gemini", "":
		return NewGemini(ctx, cfg)
	case "openai":
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
