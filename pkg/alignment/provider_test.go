package alignment

import (
	"context"
	"sync"

	"thoreinstein.com/flightcheck/pkg/ai"
)

// stubProvider answers by system prompt, so one stub can serve every
// component in a check.
type stubProvider struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   map[string]int
	last    map[string][]ai.Message
	opts    map[string]ai.ChatOptions
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		replies: map[string]string{},
		errs:    map[string]error{},
		calls:   map[string]int{},
		last:    map[string][]ai.Message{},
		opts:    map[string]ai.ChatOptions{},
	}
}

func (s *stubProvider) Name() string      { return "stub" }
func (s *stubProvider) IsAvailable() bool { return true }

func (s *stubProvider) Chat(_ context.Context, messages []ai.Message, opts ...ai.ChatOption) (*ai.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	system := messages[0].Content
	s.calls[system]++
	s.last[system] = messages

	var o ai.ChatOptions
	for _, opt := range opts {
		opt(&o)
	}
	s.opts[system] = o

	if err := s.errs[system]; err != nil {
		return nil, err
	}
	return &ai.Response{Content: s.replies[system]}, nil
}

func (s *stubProvider) callCount(system string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[system]
}

func (s *stubProvider) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}
