package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds the question-generation backend configuration.
type Config struct {
	// Provider selects the backend.
	// Values: "anthropic", "openai", "gemini", "openrouter", "ollama", "mock"
	Provider string `yaml:"provider"`

	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Ollama     OllamaConfig     `yaml:"ollama"`
	Retry      RetryConfig      `yaml:"retry"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`    // Default: "gpt-4o-mini"
	BaseURL string `yaml:"base_url"` // Optional, for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"` // Default: "https://openrouter.ai/api/v1"
}

// OllamaConfig points at a local Ollama server's OpenAI-compatible API.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"` // Default: "http://localhost:11434/v1"
	Model   string `yaml:"model"`    // Default: "llama3:8b"
}

// RetryConfig configures retry behavior for transient transport failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// RateLimitConfig throttles outgoing requests. Zero RequestsPerSecond
// disables throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// DefaultConfig returns a Config with sensible defaults. The default backend
// is a local Ollama server, matching an offline study setup.
func DefaultConfig() Config {
	return Config{
		Provider:   "ollama",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Ollama:     OllamaConfig{BaseURL: defaultOllamaBaseURL, Model: "llama3:8b"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		RateLimit: RateLimitConfig{RequestsPerSecond: 2, Burst: 4},
	}
}

// ApplyEnv overrides fields from STUDYLOOP_* environment variables.
func (c *Config) ApplyEnv() {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setStr(&c.Provider, "STUDYLOOP_LLM_PROVIDER")
	setStr(&c.Anthropic.APIKey, "STUDYLOOP_ANTHROPIC_API_KEY")
	setStr(&c.Anthropic.Model, "STUDYLOOP_ANTHROPIC_MODEL")
	setStr(&c.OpenAI.APIKey, "STUDYLOOP_OPENAI_API_KEY")
	setStr(&c.OpenAI.Model, "STUDYLOOP_OPENAI_MODEL")
	setStr(&c.OpenAI.BaseURL, "STUDYLOOP_OPENAI_BASE_URL")
	setStr(&c.Gemini.APIKey, "STUDYLOOP_GEMINI_API_KEY")
	setStr(&c.Gemini.Model, "STUDYLOOP_GEMINI_MODEL")
	setStr(&c.OpenRouter.APIKey, "STUDYLOOP_OPENROUTER_API_KEY")
	setStr(&c.OpenRouter.Model, "STUDYLOOP_OPENROUTER_MODEL")
	setStr(&c.Ollama.BaseURL, "STUDYLOOP_OLLAMA_BASE_URL")
	setStr(&c.Ollama.Model, "STUDYLOOP_OLLAMA_MODEL")
}

// DiscoverKeys fills API keys from the vendors' standard env vars when the
// selected provider has none. It reports whether any key was found.
func (c *Config) DiscoverKeys() bool {
	found := false
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Anthropic.APIKey == "" {
		c.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if c.OpenRouter.APIKey == "" {
		c.OpenRouter.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}
	for _, k := range []string{c.Gemini.APIKey, c.OpenAI.APIKey, c.Anthropic.APIKey, c.OpenRouter.APIKey} {
		if k != "" {
			found = true
		}
	}
	return found
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("STUDYLOOP_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("STUDYLOOP_OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("STUDYLOOP_GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("STUDYLOOP_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "ollama":
		if c.Ollama.Model == "" {
			return fmt.Errorf("llm.ollama.model is required for the ollama provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm.retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("llm.rate_limit.requests_per_second must not be negative")
	}
	return nil
}
