// LLM Provider trait - the core abstraction for model backends.
//
// Information Hiding:
// - Provider-specific API details hidden behind interface
// - Authentication mechanisms hidden
// - Request/response formats hidden

package llm

import "context"

// Provider is a chat-completion backend.
type Provider interface {
	// Name returns the provider name (e.g., "openai", "ollama").
	Name() string

	// Model returns the model identifier.
	Model() string

	// Chat sends one chat completion request.
	Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error)
}
