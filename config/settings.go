// Package config provides application settings.
//
// Settings are created via Load() which handles:
// - Defaults, then an optional YAML file, then environment variables (viper)
// - Strict decoding of numbers and durations
// - Provider-specific model and API key lookup

package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings holds all application configuration.
type Settings struct {
	LLM    LLMConfig    `mapstructure:"llm"`
	Agent  AgentConfig  `mapstructure:"agent"`
	Store  StoreConfig  `mapstructure:"store"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	MaxTokens   uint32  `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	BaseURL     string  `mapstructure:"base_url"`
}

// AgentConfig holds reasoning-loop budgets.
type AgentConfig struct {
	MaxIterations    int           `mapstructure:"max_iterations"`
	MaxParseFailures int           `mapstructure:"max_parse_failures"`
	Timeout          time.Duration `mapstructure:"timeout"`
	ToolTimeout      time.Duration `mapstructure:"tool_timeout"`
	ToolRetries      uint32        `mapstructure:"tool_retries"`
}

// StoreConfig selects the health data store.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration. Ollama needs no key.
var providers = map[string]providerInfo{
	"ollama":    {"OLLAMA_MODEL", "llama2", ""},
	"openai":    {"OPENAI_MODEL", "gpt-4o-mini", "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY"},
	"deepseek":  {"DEEPSEEK_MODEL", "deepseek-chat", "DEEPSEEK_API_KEY"},
	"gemini":    {"GEMINI_MODEL", "gemini-2.0-flash", "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
	"local":  "ollama",
}

var defaults = map[string]any{
	"llm.provider":             "ollama",
	"llm.model":                "",
	"llm.max_tokens":           1024,
	"llm.temperature":          0.7,
	"llm.base_url":             "http://ollama:11434",
	"agent.max_iterations":     6,
	"agent.max_parse_failures": 3,
	"agent.timeout":            "60s",
	"agent.tool_timeout":       "10s",
	"agent.tool_retries":       2,
	"store.driver":             "postgres",
	"store.url":                "postgres://localhost:5432/healthsignal?sslmode=disable",
	"server.addr":              ":8000",
	"log.level":                "info",
}

var envBindings = map[string]string{
	"llm.provider":             "LLM_PROVIDER",
	"llm.model":                "LLM_MODEL",
	"llm.max_tokens":           "LLM_MAX_TOKENS",
	"llm.temperature":          "LLM_TEMPERATURE",
	"llm.base_url":             "OLLAMA_BASE_URL",
	"agent.max_iterations":     "AGENT_MAX_ITERATIONS",
	"agent.max_parse_failures": "AGENT_MAX_PARSE_FAILURES",
	"agent.timeout":            "AGENT_TIMEOUT",
	"agent.tool_timeout":       "AGENT_TOOL_TIMEOUT",
	"agent.tool_retries":       "AGENT_TOOL_RETRIES",
	"store.driver":             "STORE_DRIVER",
	"store.url":                "DATABASE_URL",
	"server.addr":              "SERVER_ADDR",
	"log.level":                "LOG_LEVEL",
}

// Load reads settings. path names an optional YAML file; provider, when
// non-empty, overrides the configured provider.
func Load(path, provider string) (Settings, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Settings{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}

	if provider != "" {
		s.LLM.Provider = provider
	}
	s.LLM.Provider = normalizeProvider(s.LLM.Provider)
	info, err := getProviderInfo(s.LLM.Provider)
	if err != nil {
		return Settings{}, err
	}
	if model := os.Getenv(info.modelEnv); model != "" {
		s.LLM.Model = model
	}
	if s.LLM.Model == "" {
		s.LLM.Model = info.defaultModel
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects non-positive budgets and unknown store drivers.
func (s Settings) Validate() error {
	var errs []error
	if s.Agent.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("agent.max_iterations must be positive, got %d", s.Agent.MaxIterations))
	}
	if s.Agent.MaxParseFailures <= 0 {
		errs = append(errs, fmt.Errorf("agent.max_parse_failures must be positive, got %d", s.Agent.MaxParseFailures))
	}
	if s.Agent.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("agent.timeout must be positive, got %s", s.Agent.Timeout))
	}
	if s.Agent.ToolTimeout <= 0 {
		errs = append(errs, fmt.Errorf("agent.tool_timeout must be positive, got %s", s.Agent.ToolTimeout))
	}
	switch s.Store.Driver {
	case "postgres", "pgx", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("store.driver must be postgres, pgx or sqlite3, got %q", s.Store.Driver))
	}
	return errors.Join(errs...)
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider %q, expected one of %s",
			provider, strings.Join(SupportedProviders(), ", "))
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
// Providers without authentication return "".
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}
	if info.apiKeyEnv == "" {
		return "", nil
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// SupportedProviders returns the sorted list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}
