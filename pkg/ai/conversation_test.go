package ai

import (
	"context"
	"errors"
	"testing"
)

// scriptedProvider replays canned replies and records what it was sent.
type scriptedProvider struct {
	replies []string
	err     error
	seen    [][]Message
	opts    []ChatOptions
}

func (s *scriptedProvider) Name() string      { return "scripted" }
func (s *scriptedProvider) IsAvailable() bool { return true }

func (s *scriptedProvider) Chat(_ context.Context, messages []Message, opts ...ChatOption) (*Response, error) {
	s.seen = append(s.seen, messages)
	s.opts = append(s.opts, resolveOptions("", opts))
	if s.err != nil {
		return nil, s.err
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return &Response{Content: reply}, nil
}

func TestConversation_Send(t *testing.T) {
	p := &scriptedProvider{replies: []string{"first", "second"}}
	c := NewConversation(p, "system prompt", WithTemperature(0.4))

	c.AddUserMessage("q1")
	if _, err := c.Send(context.Background()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	c.AddUserMessage("q2")
	resp, err := c.Send(context.Background())
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if resp.Content != "second" {
		t.Errorf("Content = %q, want second", resp.Content)
	}
	if c.MessageCount() != 4 {
		t.Errorf("MessageCount() = %d, want 4", c.MessageCount())
	}

	last := p.seen[1]
	if len(last) != 4 || last[0].Role != RoleSystem || last[2].Content != "first" {
		t.Errorf("second request messages = %+v", last)
	}
	if p.opts[1].Temperature == nil || *p.opts[1].Temperature != 0.4 {
		t.Errorf("conversation options not forwarded: %+v", p.opts[1])
	}
}

func TestConversation_SendErrorKeepsHistory(t *testing.T) {
	p := &scriptedProvider{err: errors.New("boom")}
	c := NewConversation(p, "")
	c.AddUserMessage("q")

	if _, err := c.Send(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if c.MessageCount() != 1 {
		t.Errorf("MessageCount() = %d, want 1", c.MessageCount())
	}
	if p.seen[0][0].Role != RoleUser {
		t.Error("empty system prompt should not be sent")
	}
}

func TestConversation_HistoryIsCopy(t *testing.T) {
	c := NewConversation(&scriptedProvider{}, "s")
	c.AddUserMessage("a")
	h := c.History()
	h[0].Content = "changed"
	if c.History()[0].Content != "a" {
		t.Error("History() exposed internal slice")
	}
	c.Clear()
	if c.MessageCount() != 0 || c.SystemPrompt() != "s" {
		t.Error("Clear() should drop history and keep system prompt")
	}
}
