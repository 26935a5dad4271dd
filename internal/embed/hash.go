package embed

import (
	"context"
	"hash/fnv"

	"github.com/abhisek/studyloop/internal/corpus"
)

// DefaultHashDimensions is the vector size of the local hashing embedder.
const DefaultHashDimensions = 256

// HashEmbedder is a local, network-free embedder based on feature hashing of
// case-folded content words. Texts sharing vocabulary score high cosine
// similarity, which is enough for boundary detection without a model server.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hashing embedder with the given dimensions.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultHashDimensions
	}
	return &HashEmbedder{dims: dims}
}

func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := make([]float32, h.dims)
	for _, tok := range corpus.Tokenize(text) {
		if !corpus.IsContentWord(tok) {
			continue
		}
		f := fnv.New64a()
		f.Write([]byte(tok))
		sum := f.Sum64()
		idx := int(sum % uint64(h.dims))
		// One hash bit picks the sign so collisions tend to cancel out.
		if sum&(1<<63) != 0 {
			v[idx]--
		} else {
			v[idx]++
		}
	}
	return Normalize(v), nil
}

func (h *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := h.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (h *HashEmbedder) Dimensions() int   { return h.dims }
func (h *HashEmbedder) ModelName() string { return "hash" }
