// LLMClient - Simple wrapper around providers.

package llm

import (
	"context"
	"fmt"
)

// Client wraps a Provider with a simple interface.
type Client struct {
	provider Provider
}

// NewClient creates a new LLM client from a provider.
func NewClient(provider Provider) *Client {
	return &Client{provider: provider}
}

// Chat sends a chat completion request and returns just the content.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	response, err := c.provider.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

// Complete sends prompt as a single user message. It lets the reasoning
// loop drive any provider as a plain text completer.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	content, err := c.Chat(ctx, []ChatMessage{UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.provider.Name(), err)
	}
	return content, nil
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}
