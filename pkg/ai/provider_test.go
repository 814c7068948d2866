package ai

import (
	"context"
	"testing"

	"thoreinstein.com/flightcheck/pkg/config"
	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

func TestNewProvider(t *testing.T) {
	for _, env := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GROQ_API_KEY", "GOOGLE_GENAI_API_KEY", "GEMINI_API_KEY", "FLIGHTCHECK_AI_API_KEY"} {
		t.Setenv(env, "")
	}

	tests := []struct {
		name     string
		cfg      config.AIConfig
		wantName string
		wantErr  bool
	}{
		{"anthropic", config.AIConfig{Provider: "anthropic", APIKey: "k"}, ProviderAnthropic, false},
		{"anthropic without key", config.AIConfig{Provider: "anthropic"}, "", true},
		{"openai", config.AIConfig{Provider: "openai", APIKey: "k"}, ProviderOpenAI, false},
		{"groq", config.AIConfig{Provider: "groq", APIKey: "k"}, ProviderGroq, false},
		{"ollama needs no key", config.AIConfig{Provider: "ollama"}, ProviderOllama, false},
		{"gemini", config.AIConfig{Provider: "gemini", APIKey: "k"}, ProviderGemini, false},
		{"unknown", config.AIConfig{Provider: "palm"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(context.Background(), &tt.cfg, nil)
			if tt.wantErr {
				if !fcerrors.IsConfigError(err) {
					t.Fatalf("expected ConfigError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider() error = %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("FLIGHTCHECK_AI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	if got := resolveAPIKey("OPENAI_API_KEY", "cfg"); got != "cfg" {
		t.Errorf("got %q, want cfg", got)
	}

	t.Setenv("FLIGHTCHECK_AI_API_KEY", "generic")
	if got := resolveAPIKey("OPENAI_API_KEY", "cfg"); got != "generic" {
		t.Errorf("got %q, want generic", got)
	}

	t.Setenv("OPENAI_API_KEY", "specific")
	if got := resolveAPIKey("OPENAI_API_KEY", "cfg"); got != "specific" {
		t.Errorf("got %q, want specific", got)
	}
}

func TestResolveOptions(t *testing.T) {
	o := resolveOptions("base", []ChatOption{WithModel(""), WithMaxTokens(100)})
	if o.Model != "base" || o.MaxTokens != 100 || o.JSON || o.Temperature != nil {
		t.Errorf("resolveOptions = %+v", o)
	}
}
