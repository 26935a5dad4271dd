// Package embed maps text spans to fixed-length vectors. Embedders are
// consumed by the segmenter for semantic boundary detection.
package embed

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Embedder turns text into vectors. Implementations must be deterministic
// for a fixed input and return one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}

// ErrUnavailable is matched by errors.Is for any embedder failure caused by
// the backing service being unreachable or failing.
var ErrUnavailable = errors.New("embedder unavailable")

// UnavailableError wraps a transport or service failure of an embedder.
type UnavailableError struct {
	Model string
	Err   error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("embedder %s unavailable: %v", e.Model, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// Cosine returns the cosine similarity of a and b. Mismatched or zero
// vectors have similarity 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Normalize scales v to unit length in place and returns it.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	n := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= n
	}
	return v
}
