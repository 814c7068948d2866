package ai

import (
	"context"
)

// Conversation manages multi-turn conversation state.
type Conversation struct {
	provider Provider
	messages []Message
	system   string
	opts     []ChatOption
}

// NewConversation creates a new conversation with a system prompt. opts are
// applied to every Send.
func NewConversation(provider Provider, systemPrompt string, opts ...ChatOption) *Conversation {
	return &Conversation{
		provider: provider,
		messages: make([]Message, 0),
		system:   systemPrompt,
		opts:     opts,
	}
}

// AddUserMessage adds a user message to the conversation.
func (c *Conversation) AddUserMessage(content string) {
	c.messages = append(c.messages, Message{Role: RoleUser, Content: content})
}

// AddAssistantMessage adds an assistant message to the conversation.
func (c *Conversation) AddAssistantMessage(content string) {
	c.messages = append(c.messages, Message{Role: RoleAssistant, Content: content})
}

// Send sends the conversation and gets a response.
// The response is appended to the conversation history.
func (c *Conversation) Send(ctx context.Context) (*Response, error) {
	resp, err := c.provider.Chat(ctx, c.buildMessages(), c.opts...)
	if err != nil {
		return nil, err
	}

	c.AddAssistantMessage(resp.Content)
	return resp, nil
}

// Clear resets the conversation history while keeping the system prompt.
func (c *Conversation) Clear() {
	c.messages = make([]Message, 0)
}

// History returns a copy of the conversation (excluding system prompt).
func (c *Conversation) History() []Message {
	result := make([]Message, len(c.messages))
	copy(result, c.messages)
	return result
}

// SystemPrompt returns the current system prompt.
func (c *Conversation) SystemPrompt() string {
	return c.system
}

// MessageCount returns the number of messages in the conversation history.
func (c *Conversation) MessageCount() int {
	return len(c.messages)
}

func (c *Conversation) buildMessages() []Message {
	messages := make([]Message, 0, len(c.messages)+1)
	if c.system != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: c.system})
	}
	return append(messages, c.messages...)
}
