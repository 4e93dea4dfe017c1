package llm

import (
	"context"
	"strings"
	"testing"
)

// TestValidateProvider tests provider name validation
func TestValidateProvider(t *testing.T) {
	testCases := []struct {
		name      string
		provider  string
		shouldErr bool
	}{
		{name: "OpenAI", provider: "openai"},
		{name: "Anthropic", provider: "anthropic"},
		{name: "Gemini", provider: "gemini"},
		{name: "Ollama", provider: "ollama"},
		{name: "Unknown provider", provider: "watson", shouldErr: true},
		{name: "Empty provider", provider: "", shouldErr: true},
		{name: "Wrong case", provider: "OpenAI", shouldErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateProvider(tc.provider)
			if tc.shouldErr {
				if err == nil {
					t.Errorf("Expected error for %q", tc.provider)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateProvider(%q) failed: %v", tc.provider, err)
			}
			if got != tc.provider {
				t.Errorf("Expected %q, got %q", tc.provider, got)
			}
		})
	}
}

// TestDefaultModel tests per-provider model defaults
func TestDefaultModel(t *testing.T) {
	testCases := []struct {
		provider string
		expected string
	}{
		{ProviderOpenAI, "gpt-4o-mini"},
		{ProviderAnthropic, "claude-haiku-4-5"},
		{ProviderGemini, "gemini-2.0-flash"},
		{ProviderOllama, "llama3.1"},
		{"watson", ""},
	}

	for _, tc := range testCases {
		if got := DefaultModel(tc.provider); got != tc.expected {
			t.Errorf("DefaultModel(%q): expected %q, got %q", tc.provider, tc.expected, got)
		}
	}
}

// TestKeyEnvVar tests credential variable lookup
func TestKeyEnvVar(t *testing.T) {
	testCases := []struct {
		provider string
		expected string
	}{
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderGemini, "GEMINI_API_KEY"},
		{ProviderOllama, ""},
	}

	for _, tc := range testCases {
		if got := KeyEnvVar(tc.provider); got != tc.expected {
			t.Errorf("KeyEnvVar(%q): expected %q, got %q", tc.provider, tc.expected, got)
		}
	}
}

// TestNewChatModelValidation tests the error paths that need no network
func TestNewChatModelValidation(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "OpenAI without key",
			cfg:     Config{Provider: ProviderOpenAI, Model: "gpt-4o-mini"},
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:    "Anthropic without key",
			cfg:     Config{Provider: ProviderAnthropic, Model: "claude-haiku-4-5"},
			wantErr: "ANTHROPIC_API_KEY",
		},
		{
			name:    "Gemini without key",
			cfg:     Config{Provider: ProviderGemini, Model: "gemini-2.0-flash"},
			wantErr: "GEMINI_API_KEY",
		},
		{
			name:    "Unsupported provider",
			cfg:     Config{Provider: "watson", Model: "m", APIKey: "k"},
			wantErr: "unsupported provider",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewChatModel(ctx, tc.cfg)
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
