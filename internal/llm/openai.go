package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"redline/internal/logging"
)

// OpenAI talks to the OpenAI chat-completions API (or any compatible
// endpoint via BaseURL).
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI-backed client.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Complete sends one system+user turn and returns the model text.
func (o *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	timer := logging.StartTimer("api", "openai complete")
	defer timer.Stop()

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Name returns the provider:model identifier.
func (o *OpenAI) Name() string {
	return fmt.Sprintf("openai:%s", o.model)
}
