package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitProvider throttles requests with a token bucket and pauses all
// callers after the provider reports a rate limit.
type RateLimitProvider struct {
	inner   Provider
	limiter *rate.Limiter

	mu      sync.Mutex
	retryAt time.Time
}

// WithRateLimit wraps a Provider with throttling. A zero rate disables it.
func WithRateLimit(p Provider, cfg RateLimitConfig) Provider {
	if cfg.RequestsPerSecond <= 0 {
		return p
	}
	burst := max(cfg.Burst, 1)
	return &RateLimitProvider{
		inner:   p,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
	}
}

func (r *RateLimitProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := r.inner.Generate(ctx, req)

	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		backoff := rl.RetryAfter
		if backoff <= 0 {
			backoff = 5 * time.Second
		}
		r.mu.Lock()
		r.retryAt = time.Now().Add(backoff)
		r.mu.Unlock()
	}
	return resp, err
}

func (r *RateLimitProvider) ModelID() string {
	return r.inner.ModelID()
}

func (r *RateLimitProvider) wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return r.limiter.Wait(ctx)
}
