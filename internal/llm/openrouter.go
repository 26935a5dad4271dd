package llm

import "fmt"

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOllamaBaseURL     = "http://localhost:11434/v1"
)

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
// OpenRouter routes to many upstream models, not all of which honor strict
// json_schema output, so JSON is extracted and validated client-side.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	return newOpenAICompatible(cfg.APIKey, baseURL, cfg.Model, true), nil
}

// NewOllamaProvider creates a provider for a local Ollama server through its
// OpenAI-compatible endpoint. Ollama ignores the API key but the client
// requires one.
func NewOllamaProvider(cfg OllamaConfig) (*OpenAIProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return newOpenAICompatible("ollama", baseURL, cfg.Model, true), nil
}
