package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

func TestNewOllamaProvider(t *testing.T) {
	tests := []struct {
		name         string
		endpoint     string
		model        string
		wantEndpoint string
		wantModel    string
	}{
		{
			name:         "empty endpoint uses default",
			model:        "custom-model",
			wantEndpoint: ollamaDefaultEndpoint,
			wantModel:    "custom-model",
		},
		{
			name:         "empty model uses default",
			endpoint:     "http://custom:1234/",
			wantEndpoint: "http://custom:1234",
			wantModel:    ollamaDefaultModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewOllamaProvider(tt.endpoint, tt.model, nil)
			if p.endpoint != tt.wantEndpoint {
				t.Errorf("endpoint = %q, want %q", p.endpoint, tt.wantEndpoint)
			}
			if p.model != tt.wantModel {
				t.Errorf("model = %q, want %q", p.model, tt.wantModel)
			}
		})
	}
}

func TestOllamaProvider_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ollamaChatPath {
			t.Errorf("path = %q, want %q", r.URL.Path, ollamaChatPath)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("stream = true, want false")
		}
		if req.Format != "json" {
			t.Errorf("format = %q, want json", req.Format)
		}
		if req.Options == nil || req.Options.Temperature == nil || *req.Options.Temperature != 0.3 {
			t.Errorf("options = %+v", req.Options)
		}

		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Message:         ollamaMessage{Role: RoleAssistant, Content: `{"score":80}`},
			Done:            true,
			DoneReason:      "stop",
			PromptEvalCount: 12,
			EvalCount:       4,
		})
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, "", nil)
	resp, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "judge"}},
		WithJSONResponse(), WithTemperature(0.3))
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Content != `{"score":80}` || resp.StopReason != "stop" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 4 {
		t.Errorf("tokens = %d/%d", resp.InputTokens, resp.OutputTokens)
	}
}

func TestOllamaProvider_Chat_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"nope\" not found"}`))
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, "nope", nil)
	_, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "x"}})

	var aiErr *fcerrors.AIError
	if !fcerrors.As(err, &aiErr) {
		t.Fatalf("expected AIError, got %v", err)
	}
	if aiErr.StatusCode != http.StatusNotFound || aiErr.Retryable {
		t.Errorf("aiErr = %+v", aiErr)
	}
}
