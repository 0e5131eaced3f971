package assistant

import "context"

// Message is one turn of a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider generates a model reply for a conversation. Implementations
// are untrusted: their output is plain text that must pass the command
// whitelist before anything executes.
type Provider interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}
