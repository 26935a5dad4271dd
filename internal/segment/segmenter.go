// Package segment splits document text into ordered, semantically coherent
// chunks using embedding similarity between consecutive sentences.
package segment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/studyloop/internal/corpus"
	"github.com/abhisek/studyloop/internal/embed"
)

// ErrEmbeddingUnavailable aborts segmentation of a whole document when the
// embedder cannot be reached. It is retryable at the document level.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// chunkNamespace derives stable chunk IDs from (document, sequence).
var chunkNamespace = uuid.MustParse("6f1c7a52-3a0e-4d6b-9a51-8f3e2b7d4c10")

// Config holds the segmentation knobs.
type Config struct {
	// TargetChunkSize is the maximum chunk length in runes. A single
	// sentence longer than this becomes its own oversized chunk.
	TargetChunkSize int `yaml:"target_chunk_size"`

	// SimilarityThreshold is the minimum cosine similarity between the
	// running chunk centroid and the next sentence for them to merge.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// BatchSize is the number of sentences per embedder call.
	BatchSize int `yaml:"batch_size"`

	// Concurrency bounds the number of in-flight embedder calls.
	Concurrency int `yaml:"concurrency"`

	// KeywordCount is the number of keywords kept per chunk.
	KeywordCount int `yaml:"keyword_count"`
}

// DefaultConfig returns the default segmentation knobs.
func DefaultConfig() Config {
	return Config{
		TargetChunkSize:     800,
		SimilarityThreshold: 0.5,
		BatchSize:           32,
		Concurrency:         4,
		KeywordCount:        5,
	}
}

// Validate checks the knobs are usable.
func (c Config) Validate() error {
	switch {
	case c.TargetChunkSize <= 0:
		return fmt.Errorf("segmenter target_chunk_size must be positive, got %d", c.TargetChunkSize)
	case c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1:
		return fmt.Errorf("segmenter similarity_threshold must be in [-1,1], got %g", c.SimilarityThreshold)
	case c.BatchSize <= 0:
		return fmt.Errorf("segmenter batch_size must be positive, got %d", c.BatchSize)
	case c.Concurrency <= 0:
		return fmt.Errorf("segmenter concurrency must be positive, got %d", c.Concurrency)
	}
	return nil
}

// Segmenter turns document text into chunks.
type Segmenter struct {
	embedder embed.Embedder
	cfg      Config
	logger   *slog.Logger
}

// New creates a Segmenter.
func New(e embed.Embedder, cfg Config, logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{embedder: e, cfg: cfg, logger: logger}
}

// Segment chunks a document using the configured size and threshold.
func (s *Segmenter) Segment(ctx context.Context, doc corpus.Document) ([]corpus.Chunk, error) {
	chunks, err := s.segment(ctx, doc.ID, doc.Text, s.cfg.TargetChunkSize, s.cfg.SimilarityThreshold)
	if err != nil {
		return nil, err
	}
	s.logger.Info("document segmented",
		"document_id", doc.ID,
		"chunks", len(chunks),
		"embedder", s.embedder.ModelName(),
	)
	return chunks, nil
}

// SegmentText chunks bare text with explicit size and threshold. Chunks are
// returned in reading order; empty or whitespace-only text yields no chunks.
func (s *Segmenter) SegmentText(ctx context.Context, text string, targetChunkSize int, threshold float64) ([]corpus.Chunk, error) {
	return s.segment(ctx, "", text, targetChunkSize, threshold)
}

func (s *Segmenter) segment(ctx context.Context, docID, text string, target int, threshold float64) ([]corpus.Chunk, error) {
	if target <= 0 {
		return nil, fmt.Errorf("target chunk size must be positive, got %d", target)
	}
	units := splitUnits(text)
	if len(units) == 0 {
		return []corpus.Chunk{}, nil
	}

	vecs, err := s.embedUnits(ctx, units)
	if err != nil {
		return nil, err
	}

	groups := group(text, units, vecs, target, threshold)

	chunks := make([]corpus.Chunk, len(groups))
	for i, g := range groups {
		chunkText := text[g.start:g.end]
		keywords := corpus.Keywords(chunkText, s.cfg.KeywordCount)
		chunks[i] = corpus.Chunk{
			ID:         chunkID(docID, i),
			DocumentID: docID,
			Seq:        i,
			Text:       chunkText,
			Start:      g.start,
			End:        g.end,
			Embedding:  g.centroid(),
			Keywords:   keywords,
			Topic:      corpus.Topic(keywords),
			Oversized:  g.oversized,
		}
	}
	return chunks, nil
}

// embedUnits embeds all units in concurrent batches. Results are written by
// index so output order matches input order regardless of completion order.
// Any failure fails the whole document.
func (s *Segmenter) embedUnits(ctx context.Context, units []unit) ([][]float32, error) {
	batch := s.cfg.BatchSize
	if batch <= 0 {
		batch = len(units)
	}
	vecs := make([][]float32, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.Concurrency, 1))
	for from := 0; from < len(units); from += batch {
		to := min(from+batch, len(units))
		g.Go(func() error {
			texts := make([]string, to-from)
			for i := range texts {
				texts[i] = units[from+i].text
			}
			out, err := s.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return err
			}
			if len(out) != len(texts) {
				return fmt.Errorf("embedder returned %d vectors for %d texts", len(out), len(texts))
			}
			copy(vecs[from:to], out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}

	dims := len(vecs[0])
	for i, v := range vecs {
		if len(v) == 0 || len(v) != dims {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrEmbeddingUnavailable, i, len(v), dims)
		}
	}
	return vecs, nil
}

// span is a run of consecutive units that form one chunk.
type span struct {
	start, end int
	sum        []float64
	n          int
	oversized  bool
}

func newSpan(u unit, vec []float32) *span {
	sp := &span{start: u.start, end: u.end, sum: make([]float64, len(vec))}
	sp.add(u, vec)
	return sp
}

func (sp *span) add(u unit, vec []float32) {
	sp.end = u.end
	for i, x := range vec {
		sp.sum[i] += float64(x)
	}
	sp.n++
}

func (sp *span) centroid() []float32 {
	c := make([]float32, len(sp.sum))
	for i, x := range sp.sum {
		c[i] = float32(x / float64(sp.n))
	}
	return embed.Normalize(c)
}

// group walks units in order, merging each into the current span while it
// stays similar to the span centroid and the span stays within target runes.
func group(text string, units []unit, vecs [][]float32, target int, threshold float64) []*span {
	var out []*span
	var cur *span

	flush := func() {
		if cur != nil {
			out = append(out, cur)
			cur = nil
		}
	}

	for i, u := range units {
		if u.size() > target {
			flush()
			sp := newSpan(u, vecs[i])
			sp.oversized = true
			out = append(out, sp)
			continue
		}
		if cur == nil {
			cur = newSpan(u, vecs[i])
			continue
		}
		merged := utf8.RuneCountInString(text[cur.start:u.end])
		if merged <= target && embed.Cosine(cur.centroid(), vecs[i]) >= threshold {
			cur.add(u, vecs[i])
			continue
		}
		flush()
		cur = newSpan(u, vecs[i])
	}
	flush()
	return out
}

func chunkID(docID string, seq int) string {
	if docID == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s/%d", docID, seq))).String()
}

// Coverage reports the first non-space rune of text not covered by any chunk
// span, or -1 when every rune is covered.
func Coverage(text string, chunks []corpus.Chunk) int {
	covered := make([]bool, len(text))
	for _, c := range chunks {
		for i := c.Start; i < c.End && i < len(covered); i++ {
			covered[i] = true
		}
	}
	for i, r := range text {
		if !covered[i] && !unicode.IsSpace(r) {
			return i
		}
	}
	return -1
}
