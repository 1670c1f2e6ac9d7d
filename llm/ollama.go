// Ollama Provider implementation using go-openai library.
//
// Information Hiding:
// - Ollama serves the OpenAI Chat Completions API under /v1
// - Local models need no API key

package llm

import "strings"

// DefaultOllamaBaseURL is where the model server listens in the compose setup.
const DefaultOllamaBaseURL = "http://ollama:11434"

// NewOllamaProvider creates a provider for a local Ollama server.
// opts.BaseURL is the server root, without the /v1 suffix.
func NewOllamaProvider(opts Options) *OpenAIProvider {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultOllamaBaseURL
	}
	return newCompatibleProvider("ollama", "ollama", strings.TrimSuffix(base, "/v1")+"/v1", opts)
}
