package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

const (
	openAIDefaultEndpoint = "https://api.openai.com/v1"
	groqDefaultEndpoint   = "https://api.groq.com/openai/v1"
	openAIDefaultModel    = "gpt-4o"
	groqDefaultModel      = "llama-3.3-70b-versatile"
	chatCompletionsPath   = "/chat/completions"
)

// OpenAIProvider implements Provider for OpenAI-compatible chat completion
// APIs. Groq is served by the same implementation with a different endpoint.
type OpenAIProvider struct {
	name     string
	apiKey   string
	model    string
	endpoint string
	logger   *slog.Logger
	client   *http.Client
}

// NewOpenAIProvider creates a provider for the OpenAI API. An empty endpoint
// uses api.openai.com.
func NewOpenAIProvider(apiKey, model, endpoint string, logger *slog.Logger) *OpenAIProvider {
	return newOpenAICompatible(ProviderOpenAI, apiKey, model, openAIDefaultModel, endpoint, openAIDefaultEndpoint, logger)
}

// NewGroqProvider creates a provider for Groq's OpenAI-compatible API.
func NewGroqProvider(apiKey, model string, logger *slog.Logger) *OpenAIProvider {
	return newOpenAICompatible(ProviderGroq, apiKey, model, groqDefaultModel, "", groqDefaultEndpoint, logger)
}

func newOpenAICompatible(name, apiKey, model, defaultModel, endpoint, defaultEndpoint string, logger *slog.Logger) *OpenAIProvider {
	if model == "" {
		model = defaultModel
	}
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIProvider{
		name:     name,
		apiKey:   apiKey,
		model:    model,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		logger:   logger,
		client:   &http.Client{},
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable checks if the provider is configured and ready.
func (p *OpenAIProvider) IsAvailable() bool {
	return p.apiKey != ""
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Temperature    *float64              `json:"temperature,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type openAIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Chat performs a chat completion. JSON mode maps to
// response_format {"type": "json_object"}.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message, opts ...ChatOption) (*Response, error) {
	if !p.IsAvailable() {
		return nil, fcerrors.NewAIError(p.name, "Chat", "provider not configured")
	}

	o := resolveOptions(p.model, opts)

	reqBody := openAIRequest{
		Model:       o.Model,
		MaxTokens:   o.MaxTokens,
		Temperature: o.Temperature,
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, openAIMessage(m))
	}
	if o.JSON {
		reqBody.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	p.logger.Debug("sending chat request", "provider", p.name, "model", o.Model, "message_count", len(reqBody.Messages))

	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	respBody, err := postJSON(ctx, p.client, p.name, p.endpoint+chatCompletionsPath, headers, reqBody, openAIErrorMessage)
	if err != nil {
		return nil, err
	}

	var resp openAIResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fcerrors.NewAIErrorWithCause(p.name, "Chat", "failed to parse response", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fcerrors.NewAIError(p.name, "Chat", "no choices in response")
	}

	choice := resp.Choices[0]
	p.logger.Debug("received response",
		"provider", p.name,
		"finish_reason", choice.FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return &Response{
		Content:      choice.Message.Content,
		StopReason:   choice.FinishReason,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func openAIErrorMessage(body []byte) string {
	var apiErr openAIError
	if err := json.Unmarshal(body, &apiErr); err == nil {
		return apiErr.Error.Message
	}
	return ""
}

// postJSON sends body as JSON to url and returns the response body. Non-2xx
// responses become AIErrors carrying the status code and, when errMessage can
// extract one, the provider's error message.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body any, errMessage func([]byte) string) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fcerrors.NewAIErrorWithCause(provider, "Chat", "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fcerrors.NewAIErrorWithCause(provider, "Chat", "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fcerrors.NewAIErrorWithCause(provider, "Chat", "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fcerrors.NewAIErrorWithCause(provider, "Chat", "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errMessage(respBody)
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return nil, fcerrors.NewAIErrorWithStatus(provider, "Chat", resp.StatusCode, msg)
	}

	return respBody, nil
}
