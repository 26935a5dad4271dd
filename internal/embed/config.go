package embed

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Config selects and configures the embedding backend.
type Config struct {
	// Provider is one of "hash", "openai", "gemini", "ollama".
	Provider string `yaml:"provider"`

	HashDimensions int          `yaml:"hash_dimensions"`
	OpenAI         OpenAIConfig `yaml:"openai"`
	Gemini         GeminiConfig `yaml:"gemini"`
	Ollama         OllamaConfig `yaml:"ollama"`
	Cache          CacheConfig  `yaml:"cache"`
}

// OpenAIConfig configures the OpenAI (or compatible) embedder.
type OpenAIConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	Dimensions int    `yaml:"dimensions"`
}

// GeminiConfig configures the Gemini embedder.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	Dimensions int           `yaml:"dimensions"`
}

// CacheConfig configures the embedding cache.
type CacheConfig struct {
	// Backend is "memory", "redis" or "none".
	Backend  string        `yaml:"backend"`
	Size     int           `yaml:"size"`
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// DefaultConfig returns the local hashing embedder with an in-memory cache.
func DefaultConfig() Config {
	return Config{
		Provider:       "hash",
		HashDimensions: DefaultHashDimensions,
		OpenAI:         OpenAIConfig{Model: "text-embedding-3-small"},
		Gemini:         GeminiConfig{Model: "text-embedding-004"},
		Ollama:         OllamaConfig{BaseURL: DefaultOllamaBaseURL, Model: DefaultOllamaModel},
		Cache:          CacheConfig{Backend: "memory", Size: 10_000, TTL: 7 * 24 * time.Hour},
	}
}

// Validate checks the selected provider has what it needs.
func (c Config) Validate() error {
	switch c.Provider {
	case "hash", "ollama":
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("embedder.openai.api_key is required for the openai embedder")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("embedder.gemini.api_key is required for the gemini embedder")
		}
	default:
		return fmt.Errorf("unknown embedder provider: %q", c.Provider)
	}
	switch c.Cache.Backend {
	case "", "none", "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("embedder.cache.redis_url is required for the redis cache")
		}
	default:
		return fmt.Errorf("unknown embedding cache backend: %q", c.Cache.Backend)
	}
	return nil
}

// New builds the configured Embedder wrapped with its cache. The returned
// close function releases cache connections and is always non-nil.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Embedder, func() error, error) {
	noop := func() error { return nil }

	var base Embedder
	switch cfg.Provider {
	case "hash", "":
		base = NewHashEmbedder(cfg.HashDimensions)
	case "openai":
		e, err := NewOpenAIEmbedder(cfg.OpenAI)
		if err != nil {
			return nil, noop, err
		}
		base = e
	case "gemini":
		e, err := NewGeminiEmbedder(ctx, cfg.Gemini)
		if err != nil {
			return nil, noop, err
		}
		base = e
	case "ollama":
		base = NewOllamaEmbedder(cfg.Ollama)
	default:
		return nil, noop, fmt.Errorf("unknown embedder provider: %q", cfg.Provider)
	}

	switch cfg.Cache.Backend {
	case "memory":
		return WithCache(base, NewMemoryCache(cfg.Cache.Size), logger), noop, nil
	case "redis":
		rc, err := NewRedisCache(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL)
		if err != nil {
			return nil, noop, fmt.Errorf("embedding cache: %w", err)
		}
		return WithCache(base, rc, logger), rc.Close, nil
	default:
		return base, noop, nil
	}
}
