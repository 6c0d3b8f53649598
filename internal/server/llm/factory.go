package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderEcho      = "echo"
)

// Settings selects and configures a provider. APIKey must already be
// resolved.
type Settings struct {
	Provider string
	Name     string
	APIKey   string
	BaseURL  string
}

// New builds the Model for s.Provider.
func New(ctx context.Context, s Settings) (Model, error) {
	switch s.Provider {
	case ProviderGemini:
		if s.APIKey == "" {
			return nil, fmt.Errorf("provider %s: api key is required", s.Provider)
		}
		return NewGeminiModel(ctx, s.APIKey, s.Name, s.BaseURL)
	case ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(s.APIKey),
			openai.WithModel(s.Name),
		}
		if s.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(s.BaseURL))
		}
		m, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create model provider: %w", err)
		}
		return NewLangChainModel(m), nil
	case ProviderAnthropic:
		opts := []anthropic.Option{
			anthropic.WithToken(s.APIKey),
			anthropic.WithModel(s.Name),
		}
		if s.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(s.BaseURL))
		}
		m, err := anthropic.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create model provider: %w", err)
		}
		return NewLangChainModel(m), nil
	case ProviderEcho:
		return EchoModel{}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %q", s.Provider)
	}
}
