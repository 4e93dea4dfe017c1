package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"creekwatch/internal/llm"
)

// Config holds the runtime knobs sourced from environment variables,
// loaded from .env for local runs.
type Config struct {
	Provider   string `envconfig:"CREEKWATCH_PROVIDER" default:"openai"`
	Model      string `envconfig:"CREEKWATCH_MODEL"`
	MaxHistory int    `envconfig:"CREEKWATCH_MAX_HISTORY" default:"20"`
	ErrorReply string `envconfig:"CREEKWATCH_ERROR_REPLY"`

	OpenAIKey    string `envconfig:"OPENAI_API_KEY"`
	AnthropicKey string `envconfig:"ANTHROPIC_API_KEY"`
	GeminiKey    string `envconfig:"GEMINI_API_KEY"`
	OllamaURL    string `envconfig:"OLLAMA_BASE_URL" default:"http://localhost:11434"`
}

// LoadConfig reads .env (best effort) plus the environment, normalizes the
// provider, and fills in the provider's default model when none is set.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // .env is optional for local runs

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	provider, err := llm.ValidateProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	cfg.Provider = provider

	if cfg.Model == "" {
		cfg.Model = llm.DefaultModel(cfg.Provider)
	}

	return &cfg, nil
}

// APIKey returns the credential for the selected provider.
func (c *Config) APIKey() string {
	switch c.Provider {
	case llm.ProviderOpenAI:
		return c.OpenAIKey
	case llm.ProviderAnthropic:
		return c.AnthropicKey
	case llm.ProviderGemini:
		return c.GeminiKey
	}
	return ""
}

// RequireCredential verifies the selected provider's API key is present.
// Ollama authenticates nothing and only needs a reachable daemon.
func (c *Config) RequireCredential() error {
	if c.Provider == llm.ProviderOllama {
		return nil
	}
	if c.APIKey() == "" {
		return fmt.Errorf("%s API key is required: set %s, or pick another provider with CREEKWATCH_PROVIDER", c.Provider, llm.KeyEnvVar(c.Provider))
	}
	return nil
}

// LLMConfig converts to the provider factory's config.
func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		Provider: c.Provider,
		Model:    c.Model,
		APIKey:   c.APIKey(),
		BaseURL:  c.OllamaURL,
	}
}
