package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

func TestOpenAIProvider_Defaults(t *testing.T) {
	openai := NewOpenAIProvider("k", "", "", nil)
	if openai.Name() != ProviderOpenAI || openai.model != openAIDefaultModel || openai.endpoint != openAIDefaultEndpoint {
		t.Errorf("openai defaults = %q %q %q", openai.Name(), openai.model, openai.endpoint)
	}

	groq := NewGroqProvider("k", "", nil)
	if groq.Name() != ProviderGroq || groq.model != groqDefaultModel || groq.endpoint != groqDefaultEndpoint {
		t.Errorf("groq defaults = %q %q %q", groq.Name(), groq.model, groq.endpoint)
	}
}

func TestOpenAIProvider_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != chatCompletionsPath {
			t.Errorf("path = %q, want %q", r.URL.Path, chatCompletionsPath)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "override" {
			t.Errorf("model = %q, want override", req.Model)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Errorf("response_format = %+v", req.ResponseFormat)
		}
		if req.Temperature == nil || *req.Temperature != 0.4 {
			t.Errorf("temperature = %v", req.Temperature)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != RoleSystem {
			t.Errorf("messages = %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"a\":1}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":7,"completion_tokens":3}}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("test-key", "gpt-4o", server.URL, nil)
	resp, err := p.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
	}, WithModel("override"), WithJSONResponse(), WithTemperature(0.4))
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Content != `{"a":1}` || resp.StopReason != "stop" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.InputTokens != 7 || resp.OutputTokens != 3 {
		t.Errorf("tokens = %d/%d", resp.InputTokens, resp.OutputTokens)
	}
}

func TestOpenAIProvider_Chat_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("k", "", server.URL, nil)
	_, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})

	var aiErr *fcerrors.AIError
	if !fcerrors.As(err, &aiErr) {
		t.Fatalf("expected AIError, got %v", err)
	}
	if aiErr.StatusCode != http.StatusTooManyRequests || aiErr.Message != "rate limited" {
		t.Errorf("aiErr = %+v", aiErr)
	}
	if !fcerrors.IsRetryable(err) {
		t.Error("429 should be retryable")
	}
}

func TestOpenAIProvider_Chat_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("k", "", server.URL, nil)
	if _, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestOpenAIProvider_Chat_NotConfigured(t *testing.T) {
	p := NewGroqProvider("", "", nil)
	if p.IsAvailable() {
		t.Error("IsAvailable() = true without key")
	}
	if _, err := p.Chat(context.Background(), nil); !fcerrors.IsAIError(err) {
		t.Fatalf("expected AIError, got %v", err)
	}
}
