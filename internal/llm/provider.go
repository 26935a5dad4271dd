package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Provider is the generation backend. Callers send a prompt and receive
// either schema-validated JSON or plain text.
type Provider interface {
	// Generate sends a prompt to the model. When req.Schema is set the
	// response Content is validated JSON conforming to it; otherwise it is
	// the raw text encoded as a JSON string.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation. Question generation sends one user
	// message per attempt.
	Messages []Message

	// Schema is the JSON Schema the response must conform to. Nil requests
	// free text.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness, 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies this schema (tool name for Anthropic, schema name for
	// OpenAI). Kebab-case, e.g. "question-item".
	Name string

	// Description is sent to the model to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	Content json.RawMessage

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Complete sends a single free-text prompt and returns the model's text.
func Complete(ctx context.Context, p Provider, system, prompt string) (string, error) {
	resp, err := p.Generate(ctx, Request{
		System:    system,
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens: 1024,
	})
	if err != nil {
		return "", err
	}
	var text string
	if err := json.Unmarshal(resp.Content, &text); err != nil {
		// Mock and some providers hand back the bare text.
		return string(resp.Content), nil
	}
	return text, nil
}

// Describe returns a short "provider/model" label for logs and the CLI.
func Describe(cfg Config, p Provider) string {
	return fmt.Sprintf("%s/%s", cfg.Provider, p.ModelID())
}
