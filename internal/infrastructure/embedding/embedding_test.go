package embedding

import (
	"context"
	"math"
	"testing"
	"time"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashEmbedderIsDeterministicAndNormalised(t *testing.T) {
	embedder, err := NewHashEmbedder(128)
	if err != nil {
		t.Fatalf("NewHashEmbedder() error = %v", err)
	}

	vectors, err := embedder.Embed(context.Background(), []string{
		"Company: Acme\nTitle: Backend Engineer",
		"Company: Acme\nTitle: Backend Engineer",
		"Company: Globex\nTitle: Pastry Chef",
	})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if got := cosine(vectors[0], vectors[1]); math.Abs(got-1) > 1e-6 {
		t.Fatalf("cosine(identical) = %v, want 1", got)
	}
	if got := cosine(vectors[0], vectors[2]); got > 0.9 {
		t.Fatalf("cosine(unrelated) = %v, want < 0.9", got)
	}
	if embedder.Name() != "hash-128" {
		t.Fatalf("Name() = %q", embedder.Name())
	}
}

func TestNewHashEmbedderRejectsTinyDimensions(t *testing.T) {
	if _, err := NewHashEmbedder(2); err == nil {
		t.Fatalf("NewHashEmbedder(2) error = nil")
	}
}

type memoryCache struct {
	values map[string]string
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := c.values[key]
	return value, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.values[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.values, key)
	return nil
}

type countingEmbedder struct {
	calls  int
	inputs int
}

func (e *countingEmbedder) Name() string { return "counting" }

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	e.inputs += len(texts)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func TestCachedEmbedderOnlyComputesMisses(t *testing.T) {
	inner := &countingEmbedder{}
	cache := &memoryCache{values: map[string]string{}}
	embedder := NewCachedEmbedder(inner, cache, time.Hour)
	ctx := context.Background()

	if _, err := embedder.Embed(ctx, []string{"a", "bb"}); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	vectors, err := embedder.Embed(ctx, []string{"bb", "ccc"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if inner.inputs != 3 {
		t.Fatalf("inner inputs = %d, want 3", inner.inputs)
	}
	if vectors[0][0] != 2 || vectors[1][0] != 3 {
		t.Fatalf("Embed() = %v", vectors)
	}
	if len(cache.values) != 3 {
		t.Fatalf("cache size = %d, want 3", len(cache.values))
	}
}
