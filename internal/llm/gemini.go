package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"redline/internal/logging"
)

// Gemini talks to the Google Gemini API through the official SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed client.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

// Complete sends one system+user turn and returns the model text.
func (g *Gemini) Complete(ctx context.Context, system, user string) (string, error) {
	timer := logging.StartTimer("api", "gemini complete")
	defer timer.Stop()

	contents := []*genai.Content{
		genai.NewContentFromText(user, genai.RoleUser),
	}

	var config *genai.GenerateContentConfig
	if system != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return text, nil
}

// Name returns the provider:model identifier.
func (g *Gemini) Name() string {
	return fmt.Sprintf("gemini:%s", g.model)
}
