package ai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

const anthropicDefaultModel = string(anthropic.ModelClaudeSonnet4_20250514)

// jsonInstruction is appended to the system prompt for providers without a
// native JSON response mode.
const jsonInstruction = "Respond with a single JSON object and nothing else."

// AnthropicProvider implements Provider on the Anthropic Messages API.
type AnthropicProvider struct {
	client  anthropic.Client
	model   string
	bedrock bool
	logger  *slog.Logger
}

// NewAnthropicProvider creates a provider that calls the Anthropic API
// directly. Extra request options are passed to the SDK client.
func NewAnthropicProvider(apiKey, model string, logger *slog.Logger, extra ...option.RequestOption) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	opts = append(opts, extra...)

	return newAnthropicProvider(anthropic.NewClient(opts...), model, false, logger)
}

// NewBedrockAnthropicProvider creates a provider that reaches Claude through
// AWS Bedrock using the default AWS credential chain.
func NewBedrockAnthropicProvider(ctx context.Context, region, profile, model string, logger *slog.Logger) (*AnthropicProvider, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	if profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(profile))
	}

	client := anthropic.NewClient(
		bedrock.WithLoadDefaultConfig(ctx, loadOpts...),
		option.WithMaxRetries(0),
	)
	return newAnthropicProvider(client, model, true, logger), nil
}

func newAnthropicProvider(client anthropic.Client, model string, viaBedrock bool, logger *slog.Logger) *AnthropicProvider {
	if model == "" {
		model = anthropicDefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnthropicProvider{client: client, model: model, bedrock: viaBedrock, logger: logger}
}

func anthropicEndpoint(endpoint string) []option.RequestOption {
	if endpoint == "" {
		return nil
	}
	return []option.RequestOption{option.WithBaseURL(endpoint)}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return ProviderAnthropic
}

// IsAvailable reports whether the provider has a model configured. Missing
// credentials surface on the first request.
func (p *AnthropicProvider) IsAvailable() bool {
	return p.model != ""
}

// Chat sends messages to Claude. System messages are concatenated into the
// request's system prompt.
func (p *AnthropicProvider) Chat(ctx context.Context, messages []Message, opts ...ChatOption) (*Response, error) {
	o := resolveOptions(p.model, opts)

	model := o.Model
	if p.bedrock {
		model = bedrockModelID(model)
	}

	var system []string
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(o.MaxTokens),
	}

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	if o.JSON {
		system = append(system, jsonInstruction)
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}
	if o.Temperature != nil {
		params.Temperature = anthropic.Float(*o.Temperature)
	}

	p.logger.Debug("sending chat request", "provider", ProviderAnthropic, "model", model, "message_count", len(params.Messages))

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if fcerrors.As(err, &apiErr) {
			e := fcerrors.NewAIErrorWithStatus(ProviderAnthropic, "Chat", apiErr.StatusCode, apiErr.Error())
			e.Cause = err
			return nil, e
		}
		return nil, fcerrors.NewAIErrorWithCause(ProviderAnthropic, "Chat", "request failed", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(text.Text)
		}
	}

	p.logger.Debug("received response",
		"provider", ProviderAnthropic,
		"stop_reason", resp.StopReason,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)

	return &Response{
		Content:      content.String(),
		StopReason:   string(resp.StopReason),
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// bedrockModelID converts an Anthropic model name to the Bedrock
// cross-region inference profile form, e.g.
// claude-sonnet-4-20250514 -> us.anthropic.claude-sonnet-4-20250514-v1:0.
func bedrockModelID(model string) string {
	if strings.Contains(model, "anthropic.") {
		return model
	}
	return "us.anthropic." + model + "-v1:0"
}
