package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestMockProvider_ReturnsCannedResponsesInOrder(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"stem":"first"}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"stem":"second"}`)},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "one"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"stem":"first"}` {
		t.Fatalf("unexpected content: %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "two"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"stem":"second"}` {
		t.Fatalf("unexpected content: %s", resp2.Content)
	}
}

func TestMockProvider_EmptyQueueReturnsUnavailable(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
	if !IsTransport(err) {
		t.Fatal("expected unavailable to count as a transport failure")
	}
}

func TestMockProvider_FallbackAfterQueue(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"n":1}`)})
	mock.Fallback = func(_ context.Context, req Request) (*Response, error) {
		return &Response{Content: json.RawMessage(`{"n":2}`), Model: "mock"}, nil
	}

	for _, want := range []string{`{"n":1}`, `{"n":2}`, `{"n":2}`} {
		resp, err := mock.Generate(context.Background(), Request{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(resp.Content) != want {
			t.Fatalf("got %s, want %s", resp.Content, want)
		}
	}
	if mock.CallCount() != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.CallCount())
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})

	_, _ = mock.Generate(context.Background(), Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Calls[0].System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Calls[0].System)
	}
}

func TestComplete(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`"Photosynthesis makes sugar."`)})

	text, err := Complete(context.Background(), mock, "be brief", "summarize")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Photosynthesis makes sugar." {
		t.Fatalf("unexpected text %q", text)
	}
	if mock.Calls[0].Schema != nil {
		t.Fatal("Complete must not request a schema")
	}
}

func TestComplete_BareText(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`pong`)})
	text, err := Complete(context.Background(), mock, "", "ping")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "pong" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestContextLabels(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}
	if u := UserFrom(ctx); u != "" {
		t.Fatalf("expected no user, got %q", u)
	}

	ctx = WithUser(WithPurpose(ctx, "question-gen"), "u1")
	if p := PurposeFrom(ctx); p != "question-gen" {
		t.Fatalf("expected 'question-gen', got %q", p)
	}
	if u := UserFrom(ctx); u != "u1" {
		t.Fatalf("expected 'u1', got %q", u)
	}
}

func TestIsTransport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", &ErrRateLimit{}, true},
		{"unavailable", &ErrProviderUnavailable{}, true},
		{"unclassified network error", errors.New("connection reset by peer"), true},
		{"invalid", &ErrInvalidResponse{Err: errors.New("x")}, false},
		{"truncated", &ErrMaxTokensExceeded{}, false},
		{"wrapped invalid", fmt.Errorf("generate: %w", &ErrInvalidResponse{Err: errors.New("x")}), false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransport(tt.err); got != tt.want {
				t.Fatalf("IsTransport(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestEstimateCost(t *testing.T) {
	if got := EstimateCost("gpt-4o-mini", 1_000_000, 0); got != 0.15 {
		t.Fatalf("expected 0.15, got %v", got)
	}
	if got := EstimateCost("llama3:8b", 5000, 5000); got != 0 {
		t.Fatalf("expected free local model, got %v", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	withRetry := func(c Config) Config {
		c.Retry.MaxAttempts = 1
		return c
	}
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"anthropic without key", withRetry(Config{Provider: "anthropic"}), true},
		{"anthropic with key", withRetry(Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}}), false},
		{"openai without key", withRetry(Config{Provider: "openai"}), true},
		{"openrouter without key", withRetry(Config{Provider: "openrouter"}), true},
		{"ollama without model", withRetry(Config{Provider: "ollama"}), true},
		{"ollama with model", withRetry(Config{Provider: "ollama", Ollama: OllamaConfig{Model: "llama3:8b"}}), false},
		{"mock needs no key", withRetry(Config{Provider: "mock"}), false},
		{"zero attempts", Config{Provider: "mock"}, true},
		{"negative rate", withRetry(Config{Provider: "mock", RateLimit: RateLimitConfig{RequestsPerSecond: -1}}), true},
		{"unknown provider", withRetry(Config{Provider: "unknown"}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("STUDYLOOP_LLM_PROVIDER", "openai")
	t.Setenv("STUDYLOOP_OPENAI_MODEL", "gpt-4.1")
	t.Setenv("STUDYLOOP_OLLAMA_BASE_URL", "http://gpu-box:11434/v1")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Provider != "openai" {
		t.Fatalf("provider = %q", cfg.Provider)
	}
	if cfg.OpenAI.Model != "gpt-4.1" {
		t.Fatalf("openai model = %q", cfg.OpenAI.Model)
	}
	if cfg.Ollama.BaseURL != "http://gpu-box:11434/v1" {
		t.Fatalf("ollama base url = %q", cfg.Ollama.BaseURL)
	}
}

func TestNewProvider_Mock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "mock"
	p, err := NewProvider(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected mock, got %q", p.ModelID())
	}
}

func TestNewProvider_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "anthropic"
	if _, err := NewProvider(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestNewProvider_OllamaIsWrapped(t *testing.T) {
	p, err := NewProvider(context.Background(), DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*RetryProvider); !ok {
		t.Fatalf("expected retry middleware outermost, got %T", p)
	}
	if p.ModelID() != "llama3:8b" {
		t.Fatalf("unexpected model %q", p.ModelID())
	}
}

func TestMockProvider_StrictRejectsBadFixture(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"stem":""}`)})
	mock.Strict = true

	_, err := mock.Generate(context.Background(), Request{Schema: itemSchema()})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("error = %v, want *ErrInvalidResponse", err)
	}
	if req, ok := mock.LastRequest(); !ok || req.Schema == nil {
		t.Fatal("request was not recorded")
	}
}
