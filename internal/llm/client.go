// Package llm builds Eino chat models for whichever hosted provider the
// deployment is configured to use.
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"

	DefaultProvider = ProviderOpenAI

	// DefaultOllamaURL is where a local Ollama daemon listens.
	DefaultOllamaURL = "http://localhost:11434"
)

// Config selects and credentials a chat model provider.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string // Ollama only
}

// ValidateProvider checks that the given provider name is supported.
func ValidateProvider(p string) (string, error) {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOllama:
		return p, nil
	}
	return "", fmt.Errorf("unsupported provider: %q (supported: openai, anthropic, gemini, ollama)", p)
}

// DefaultModel returns the default chat model name for a provider.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-haiku-4-5"
	case ProviderGemini:
		return "gemini-2.0-flash"
	case ProviderOllama:
		return "llama3.1"
	}
	return ""
}

// KeyEnvVar names the environment variable that must carry the provider's
// credential. Ollama needs no key, only a reachable daemon.
func KeyEnvVar(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	}
	return ""
}

// NewChatModel creates a chat model for the configured provider. The caller
// asserts the result to model.ToolCallingChatModel before handing it to the
// agent; every provider here supports tool calling.
func NewChatModel(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai API key is required (set %s)", KeyEnvVar(ProviderOpenAI))
		}
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:  cfg.Model,
			APIKey: cfg.APIKey,
		})

	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic API key is required (set %s)", KeyEnvVar(ProviderAnthropic))
		}
		return claude.NewChatModel(ctx, &claude.Config{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		})

	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini API key is required (set %s)", KeyEnvVar(ProviderGemini))
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  cfg.Model,
		})

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   cfg.Model,
		})
	}

	return nil, fmt.Errorf("unsupported provider: %q", cfg.Provider)
}
