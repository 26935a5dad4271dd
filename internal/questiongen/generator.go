package questiongen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/studyloop/internal/llm"
)

// Generator produces validated study questions.
type Generator interface {
	// Generate produces one item for the input chunk and difficulty.
	// It returns an error matching ErrGenerationFailed once every attempt
	// has failed, or the context error if the caller gave up.
	Generate(ctx context.Context, in Input) (*Item, error)
}

// LLMGenerator implements Generator on an llm.Provider with a bounded
// retry loop.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config, logger *slog.Logger) *LLMGenerator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Validators == nil {
		cfg.Validators = DefaultValidators(cfg.Grounding)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMGenerator{provider: provider, config: cfg, logger: logger, now: time.Now}
}

// Generate runs up to MaxAttempts attempts. A failed attempt is a backend
// error, a timed-out call, an unparseable response or a validator failure;
// each retry carries a reformatting instruction naming the last failure.
func (g *LLMGenerator) Generate(ctx context.Context, in Input) (*Item, error) {
	if strings.TrimSpace(in.Chunk.Text) == "" {
		return nil, fmt.Errorf("chunk %s: %w", in.Chunk.ID, ErrEmptyChunk)
	}
	ctx = llm.WithPurpose(ctx, "question-gen")

	var last error
	for attempt := 1; attempt <= g.config.MaxAttempts; attempt++ {
		if attempt > 1 && g.config.RetryBackoff > 0 {
			t := time.NewTimer(g.config.RetryBackoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}

		item, err := g.attempt(ctx, in, last)
		if err == nil {
			if attempt > 1 {
				g.logger.Info("question generated after retry",
					"chunk_id", in.Chunk.ID, "attempt", attempt)
			}
			return item, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		last = err
		g.logger.Warn("question attempt rejected",
			"chunk_id", in.Chunk.ID,
			"difficulty", in.Difficulty,
			"attempt", attempt,
			"error", err)
	}

	return nil, &GenerationFailedError{
		ChunkID:  in.Chunk.ID,
		Attempts: g.config.MaxAttempts,
		Last:     last,
	}
}

func (g *LLMGenerator) attempt(ctx context.Context, in Input, prev error) (*Item, error) {
	actx := ctx
	if g.config.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, g.config.AttemptTimeout)
		defer cancel()
	}

	req := llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(in, g.config, prev)}},
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}
	if g.config.StructuredOutput {
		req.Schema = ItemSchema
	}

	resp, err := g.provider.Generate(actx, req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("backend call timed out after %s: %w", g.config.AttemptTimeout, err)
		}
		return nil, fmt.Errorf("backend call failed: %w", err)
	}

	p, err := parseResponse(resp.Content)
	if err != nil {
		return nil, err
	}
	if len(p.Options) != OptionCount {
		return nil, &ValidationError{
			Validator: "structural",
			Message:   fmt.Sprintf("expected exactly %d options, got %d", OptionCount, len(p.Options)),
		}
	}

	item := &Item{
		ID:           uuid.NewString(),
		ChunkID:      in.Chunk.ID,
		DocumentID:   in.Chunk.DocumentID,
		Difficulty:   in.Difficulty,
		Stem:         p.Stem,
		CorrectIndex: p.CorrectIndex,
		Rationale:    p.Rationale,
		Topic:        p.Topic,
		CreatedAt:    g.now().UTC(),
	}
	copy(item.Options[:], p.Options)
	if item.Topic == "" {
		item.Topic = in.Chunk.Topic
	}

	if verr := runValidators(g.config.Validators, item, in); verr != nil {
		return nil, verr
	}
	return item, nil
}
