// DeepSeek Provider implementation using go-openai library.
//
// Information Hiding:
// - Uses OpenAI-compatible API with different base URL
// - Supports deepseek-chat and deepseek-reasoner models

package llm

const deepseekBaseURL = "https://api.deepseek.com/v1"

// NewDeepSeekProvider creates a new DeepSeek provider.
func NewDeepSeekProvider(apiKey string, opts Options) *OpenAIProvider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = deepseekBaseURL
	}
	p := newCompatibleProvider("deepseek", apiKey, baseURL, opts)
	p.completionTokens = true
	return p
}
