// Package ai provides the judgment collaborator used by flightcheck: a
// provider-agnostic chat interface with implementations for Anthropic
// (direct or through AWS Bedrock), OpenAI-compatible APIs (OpenAI, Groq),
// Ollama and Gemini.
//
// The alignment pipeline only ever asks for "messages in, text out", with an
// optional request for a JSON-formatted reply. Providers translate that into
// whatever structured-output switch their API offers.
package ai

import (
	"context"
	"log/slog"
	"os"

	"thoreinstein.com/flightcheck/pkg/config"
	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

// Message represents a conversation message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Response from AI provider.
type Response struct {
	Content      string
	StopReason   string
	InputTokens  int
	OutputTokens int
}

// Provider is the judgment collaborator.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// IsAvailable checks if provider is configured.
	IsAvailable() bool

	// Chat performs a single chat completion.
	Chat(ctx context.Context, messages []Message, opts ...ChatOption) (*Response, error)
}

// Provider name constants.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGroq      = "groq"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
)

const defaultMaxTokens = 4096

// ChatOptions holds per-request settings.
type ChatOptions struct {
	Model       string   // overrides the provider's configured model
	JSON        bool     // ask for a JSON object reply
	Temperature *float64 // nil leaves the provider default
	MaxTokens   int
}

// ChatOption configures a single Chat call.
type ChatOption func(*ChatOptions)

// WithModel overrides the model for one request.
func WithModel(model string) ChatOption {
	return func(o *ChatOptions) {
		if model != "" {
			o.Model = model
		}
	}
}

// WithJSONResponse asks the provider to return a JSON object.
func WithJSONResponse() ChatOption {
	return func(o *ChatOptions) {
		o.JSON = true
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ChatOption {
	return func(o *ChatOptions) {
		o.Temperature = &t
	}
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) ChatOption {
	return func(o *ChatOptions) {
		o.MaxTokens = n
	}
}

// resolveOptions applies opts on top of the provider's default model.
func resolveOptions(defaultModel string, opts []ChatOption) ChatOptions {
	o := ChatOptions{Model: defaultModel, MaxTokens: defaultMaxTokens}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewProvider creates an AI provider based on config. Environment variables
// take precedence over config file values for API keys.
func NewProvider(ctx context.Context, cfg *config.AIConfig, logger *slog.Logger) (Provider, error) {
	if cfg == nil {
		return nil, fcerrors.NewConfigError("ai", "config is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	model := cfg.ResolvedModel()

	switch cfg.Provider {
	case ProviderAnthropic:
		if cfg.Bedrock {
			return NewBedrockAnthropicProvider(ctx, cfg.AWSRegion, cfg.AWSProfile, model, logger)
		}
		apiKey := resolveAPIKey("ANTHROPIC_API_KEY", cfg.APIKey)
		if apiKey == "" {
			return nil, fcerrors.NewConfigError("ai.api_key",
				"Anthropic API key not set (set ANTHROPIC_API_KEY or ai.api_key in config)")
		}
		return NewAnthropicProvider(apiKey, model, logger, anthropicEndpoint(cfg.Endpoint)...), nil

	case ProviderOpenAI:
		apiKey := resolveAPIKey("OPENAI_API_KEY", cfg.APIKey)
		if apiKey == "" {
			return nil, fcerrors.NewConfigError("ai.api_key",
				"OpenAI API key not set (set OPENAI_API_KEY or ai.api_key in config)")
		}
		return NewOpenAIProvider(apiKey, model, cfg.Endpoint, logger), nil

	case ProviderGroq:
		apiKey := resolveAPIKey("GROQ_API_KEY", cfg.APIKey)
		if apiKey == "" {
			return nil, fcerrors.NewConfigError("ai.api_key",
				"Groq API key not set (set GROQ_API_KEY or ai.api_key in config)")
		}
		return NewGroqProvider(apiKey, model, logger), nil

	case ProviderOllama:
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = cfg.OllamaEndpoint
		}
		return NewOllamaProvider(endpoint, model, logger), nil

	case ProviderGemini:
		apiKey := resolveAPIKey("GOOGLE_GENAI_API_KEY", cfg.APIKey)
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fcerrors.NewConfigError("ai.api_key",
				"Gemini API key not set (set GOOGLE_GENAI_API_KEY or ai.api_key in config)")
		}
		return NewGeminiProvider(apiKey, model, logger), nil

	default:
		return nil, fcerrors.NewConfigError("ai.provider",
			"unsupported AI provider: "+cfg.Provider+" (supported: anthropic, openai, groq, ollama, gemini)")
	}
}

// resolveAPIKey returns the key from envVar, then FLIGHTCHECK_AI_API_KEY,
// then the config value.
func resolveAPIKey(envVar, configKey string) string {
	if key := os.Getenv(envVar); key != "" {
		return key
	}
	if key := os.Getenv("FLIGHTCHECK_AI_API_KEY"); key != "" {
		return key
	}
	return configKey
}
