package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one scripted reply. A non-nil Err is returned instead of
// the content.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider replays scripted replies in order and records every request.
// Once the script runs out it defers to Fallback, or reports the provider
// as unavailable.
type MockProvider struct {
	// Fallback answers requests after the script is exhausted.
	Fallback func(ctx context.Context, req Request) (*Response, error)

	// Strict validates scripted content against the request schema the way
	// real providers do, so malformed fixtures surface as
	// *ErrInvalidResponse.
	Strict bool

	mu     sync.Mutex
	script []MockResponse
	Calls  []Request
}

// NewMockProvider scripts the given replies.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{script: responses}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	next, scripted, fallback := m.take(req)
	if !scripted {
		if fallback == nil {
			return nil, &ErrProviderUnavailable{}
		}
		return fallback(ctx, req)
	}
	if next.Err != nil {
		return nil, next.Err
	}
	if m.Strict {
		if err := validateResponse(req.Schema, next.Content); err != nil {
			return nil, err
		}
	}
	usage := next.Usage
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	return &Response{Content: next.Content, Usage: usage, Model: m.ModelID(), StopReason: "end"}, nil
}

func (m *MockProvider) take(req Request) (MockResponse, bool, func(context.Context, Request) (*Response, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if len(m.script) == 0 {
		return MockResponse{}, false, m.Fallback
	}
	next := m.script[0]
	m.script = m.script[1:]
	return next, true, nil
}

func (m *MockProvider) ModelID() string { return "mock" }

// CallCount reports how many requests were made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastRequest returns the most recent request, if any.
func (m *MockProvider) LastRequest() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return Request{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}
