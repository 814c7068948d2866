package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

const (
	ollamaDefaultEndpoint = "http://localhost:11434"
	ollamaDefaultModel    = "llama3.2"
	ollamaChatPath        = "/api/chat"
)

// OllamaProvider implements Provider for a local Ollama server.
type OllamaProvider struct {
	endpoint string
	model    string
	logger   *slog.Logger
	client   *http.Client
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(endpoint, model string, logger *slog.Logger) *OllamaProvider {
	if endpoint == "" {
		endpoint = ollamaDefaultEndpoint
	}
	if model == "" {
		model = ollamaDefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaProvider{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		model:    model,
		logger:   logger,
		client:   &http.Client{},
	}
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string {
	return ProviderOllama
}

// IsAvailable checks if an endpoint is configured.
func (p *OllamaProvider) IsAvailable() bool {
	return p.endpoint != ""
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaResponse struct {
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	DoneReason      string        `json:"done_reason"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// Chat performs a non-streaming chat completion. JSON mode maps to
// format "json".
func (p *OllamaProvider) Chat(ctx context.Context, messages []Message, opts ...ChatOption) (*Response, error) {
	o := resolveOptions(p.model, opts)

	reqBody := ollamaRequest{
		Model:   o.Model,
		Options: &ollamaOptions{Temperature: o.Temperature, NumPredict: o.MaxTokens},
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, ollamaMessage(m))
	}
	if o.JSON {
		reqBody.Format = "json"
	}

	p.logger.Debug("sending chat request", "provider", ProviderOllama, "model", o.Model, "message_count", len(reqBody.Messages))

	respBody, err := postJSON(ctx, p.client, ProviderOllama, p.endpoint+ollamaChatPath, nil, reqBody, ollamaErrorMessage)
	if err != nil {
		return nil, err
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fcerrors.NewAIErrorWithCause(ProviderOllama, "Chat", "failed to parse response", err)
	}

	return &Response{
		Content:      resp.Message.Content,
		StopReason:   resp.DoneReason,
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
	}, nil
}

func ollamaErrorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		return e.Error
	}
	return ""
}
