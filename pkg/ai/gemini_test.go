package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"google.golang.org/genai"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

type mockModel struct {
	generateFn func(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error)
}

func (m *mockModel) Name() string { return "mock-model" }
func (m *mockModel) Generate(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	return m.generateFn(ctx, req, cb)
}
func (m *mockModel) Register(r api.Registry) {}

func TestGeminiProvider_IsAvailable(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		want   bool
	}{
		{"available with key", "some-key", true},
		{"not available without key", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewGeminiProvider(tt.apiKey, "", nil)
			if got := p.IsAvailable(); got != tt.want {
				t.Errorf("IsAvailable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGeminiProvider_DefaultModel(t *testing.T) {
	p := NewGeminiProvider("key", "", nil)
	if p.modelName != geminiDefaultModel {
		t.Errorf("modelName = %q, want %q", p.modelName, geminiDefaultModel)
	}
}

func TestGeminiProvider_Chat_Success(t *testing.T) {
	mock := &mockModel{
		generateFn: func(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
			if len(req.Messages) != 2 {
				t.Fatalf("expected 2 messages, got %d", len(req.Messages))
			}
			if req.Messages[0].Role != ai.RoleSystem {
				t.Errorf("first role = %q, want system", req.Messages[0].Role)
			}
			if req.Messages[1].Content[0].Text != "Hello" {
				t.Errorf("expected content 'Hello', got %q", req.Messages[1].Content[0].Text)
			}

			cfg, ok := req.Config.(*genai.GenerateContentConfig)
			if !ok {
				t.Fatalf("Config type = %T, want *genai.GenerateContentConfig", req.Config)
			}
			if cfg.ResponseMIMEType != "application/json" {
				t.Errorf("ResponseMIMEType = %q, want application/json", cfg.ResponseMIMEType)
			}
			if cfg.Temperature == nil || *cfg.Temperature != float32(0.3) {
				t.Errorf("Temperature = %v, want 0.3", cfg.Temperature)
			}

			return &ai.ModelResponse{
				Message: &ai.Message{
					Role:    ai.RoleModel,
					Content: []*ai.Part{ai.NewTextPart(`{"ok":`), ai.NewTextPart(`true}`)},
				},
				Usage: &ai.GenerationUsage{InputTokens: 10, OutputTokens: 20},
			}, nil
		},
	}

	p := NewGeminiProvider("key", "gemini-pro", nil)
	p.model = mock

	resp, err := p.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "be terse"},
		{Role: RoleUser, Content: "Hello"},
	}, WithJSONResponse(), WithTemperature(0.3))
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Content != `{"ok":true}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.InputTokens != 10 || resp.OutputTokens != 20 {
		t.Errorf("tokens = %d/%d, want 10/20", resp.InputTokens, resp.OutputTokens)
	}
}

func TestGeminiProvider_Chat_GenerateError(t *testing.T) {
	p := NewGeminiProvider("key", "", nil)
	p.model = &mockModel{
		generateFn: func(context.Context, *ai.ModelRequest, ai.ModelStreamCallback) (*ai.ModelResponse, error) {
			return nil, errors.New("quota exceeded")
		},
	}

	_, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
	if !fcerrors.IsAIError(err) {
		t.Fatalf("expected AIError, got %v", err)
	}
}

func TestGeminiProvider_Chat_EmptyMessage(t *testing.T) {
	p := NewGeminiProvider("key", "", nil)
	p.model = &mockModel{
		generateFn: func(context.Context, *ai.ModelRequest, ai.ModelStreamCallback) (*ai.ModelResponse, error) {
			return &ai.ModelResponse{}, nil
		},
	}

	if _, err := p.Chat(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil message")
	}
}

func TestGeminiProvider_Chat_NoAPIKey(t *testing.T) {
	p := NewGeminiProvider("", "", nil)
	_, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
	if !fcerrors.IsAIError(err) {
		t.Fatalf("expected AIError, got %v", err)
	}
}
