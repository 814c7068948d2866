package ai

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"google.golang.org/genai"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

const geminiDefaultModel = "gemini-2.5-flash"

// GeminiProvider implements Provider using the Genkit SDK.
type GeminiProvider struct {
	apiKey    string
	modelName string
	logger    *slog.Logger

	initOnce sync.Once
	g        *genkit.Genkit
	model    ai.Model
	initErr  error

	mu     sync.Mutex
	models map[string]ai.Model
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(apiKey, modelName string, logger *slog.Logger) *GeminiProvider {
	if modelName == "" {
		modelName = geminiDefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiProvider{
		apiKey:    apiKey,
		modelName: modelName,
		logger:    logger,
		models:    make(map[string]ai.Model),
	}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return ProviderGemini
}

// IsAvailable checks if the provider is configured.
func (p *GeminiProvider) IsAvailable() bool {
	return p.apiKey != "" || p.model != nil
}

// init initializes Genkit and the default model.
func (p *GeminiProvider) init(ctx context.Context) error {
	p.initOnce.Do(func() {
		// Injected model.
		if p.model != nil {
			return
		}

		if p.apiKey == "" {
			p.initErr = fcerrors.NewAIError(ProviderGemini, "init", "API key not set")
			return
		}

		p.g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: p.apiKey}))

		p.model = p.lookupModel(p.modelName)
		if p.model == nil {
			p.initErr = fcerrors.NewAIError(ProviderGemini, "init", "failed to get model: "+p.modelName)
			return
		}

		p.logger.Debug("gemini provider initialized", "model", p.modelName)
	})

	return p.initErr
}

// modelFor returns the model to use for a request. Overrides are resolved
// through the Genkit registry and cached.
func (p *GeminiProvider) modelFor(name string) (ai.Model, error) {
	if name == "" || name == p.modelName || p.g == nil {
		return p.model, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if m, ok := p.models[name]; ok {
		return m, nil
	}
	m := p.lookupModel(name)
	if m == nil {
		return nil, fcerrors.NewAIError(ProviderGemini, "Chat", "unknown model: "+name)
	}
	p.models[name] = m
	return m, nil
}

func (p *GeminiProvider) lookupModel(name string) ai.Model {
	if !strings.Contains(name, "/") {
		name = "googleai/" + name
	}
	return googlegenai.GoogleAIModel(p.g, name)
}

// Chat performs a single-turn chat completion. JSON mode sets the response
// MIME type to application/json.
func (p *GeminiProvider) Chat(ctx context.Context, messages []Message, opts ...ChatOption) (*Response, error) {
	if err := p.init(ctx); err != nil {
		return nil, err
	}

	o := resolveOptions(p.modelName, opts)
	model, err := p.modelFor(o.Model)
	if err != nil {
		return nil, err
	}

	genConfig := &genai.GenerateContentConfig{MaxOutputTokens: int32(o.MaxTokens)}
	if o.JSON {
		genConfig.ResponseMIMEType = "application/json"
	}
	if o.Temperature != nil {
		t := float32(*o.Temperature)
		genConfig.Temperature = &t
	}

	genkitMessages := toGenkitMessages(messages)
	p.logger.Debug("sending chat request", "provider", ProviderGemini, "model", o.Model, "message_count", len(genkitMessages))

	resp, err := model.Generate(ctx, &ai.ModelRequest{
		Messages: genkitMessages,
		Config:   genConfig,
	}, nil)
	if err != nil {
		return nil, fcerrors.NewAIErrorWithCause(ProviderGemini, "Chat", "genkit generate failed", err)
	}

	if resp.Message == nil {
		return nil, fcerrors.NewAIError(ProviderGemini, "Chat", "received empty response from gemini")
	}

	var content strings.Builder
	for _, part := range resp.Message.Content {
		if part.IsText() {
			content.WriteString(part.Text)
		}
	}

	res := &Response{
		Content:    content.String(),
		StopReason: string(resp.FinishReason),
	}
	if resp.Usage != nil {
		res.InputTokens = resp.Usage.InputTokens
		res.OutputTokens = resp.Usage.OutputTokens
	}

	return res, nil
}

func toGenkitMessages(messages []Message) []*ai.Message {
	genkitMessages := make([]*ai.Message, len(messages))
	for i, m := range messages {
		role := ai.RoleUser
		switch m.Role {
		case RoleSystem:
			role = ai.RoleSystem
		case RoleAssistant:
			role = ai.RoleModel
		}
		genkitMessages[i] = &ai.Message{
			Role:    role,
			Content: []*ai.Part{ai.NewTextPart(m.Content)},
		}
	}
	return genkitMessages
}
