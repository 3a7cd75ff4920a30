package embedding

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"applytrack/internal/errs"
	"applytrack/internal/ports"
)

// HashEmbedder projects word unigrams and bigrams into a fixed number of
// buckets with signed feature hashing. It needs no network and is
// deterministic, so identical texts always have similarity 1.
type HashEmbedder struct {
	dimensions int
}

var _ ports.Embedder = (*HashEmbedder)(nil)

func NewHashEmbedder(dimensions int) (*HashEmbedder, error) {
	if dimensions < 8 {
		return nil, fmt.Errorf("hash embedder needs at least 8 dimensions, got %d", dimensions)
	}
	return &HashEmbedder{dimensions: dimensions}, nil
}

func (e *HashEmbedder) Name() string {
	return fmt.Sprintf("hash-%d", e.dimensions)
}

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	vector := make([]float64, e.dimensions)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	add := func(feature string) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(feature))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.dimensions))
		if sum&(1<<63) != 0 {
			vector[bucket]--
		} else {
			vector[bucket]++
		}
	}
	for i, token := range tokens {
		add(token)
		if i > 0 {
			add(tokens[i-1] + " " + token)
		}
	}

	var norm float64
	for _, v := range vector {
		norm += v * v
	}
	out := make([]float32, e.dimensions)
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range vector {
		out[i] = float32(v / norm)
	}
	return out
}
