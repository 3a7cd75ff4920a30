package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/errs"
	"applytrack/internal/ports"
)

// CachedEmbedder memoises vectors in a ports.Cache keyed by model and text
// digest. Cache failures degrade to calling the wrapped embedder.
type CachedEmbedder struct {
	next  ports.Embedder
	cache ports.Cache
	ttl   time.Duration
}

var _ ports.Embedder = (*CachedEmbedder)(nil)

func NewCachedEmbedder(next ports.Embedder, cache ports.Cache, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: cache, ttl: ttl}
}

func (e *CachedEmbedder) Name() string { return e.next.Name() }

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "infrastructure.embedding.cache"))

	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		value, found, err := e.cache.Get(ctx, e.key(text))
		if err != nil {
			logging.Warn(logCtx, "embedding cache read failed", slog.Any("err", errs.Loggable(err)))
		}
		if found {
			var vector []float32
			if err := json.Unmarshal([]byte(value), &vector); err == nil {
				out[i] = vector
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := e.next.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vector := range vectors {
		out[missingIdx[j]] = vector
		data, err := json.Marshal(vector)
		if err != nil {
			continue
		}
		if err := e.cache.Set(ctx, e.key(missing[j]), string(data), e.ttl); err != nil {
			logging.Warn(logCtx, "embedding cache write failed", slog.Any("err", errs.Loggable(err)))
		}
	}

	logging.Debug(logCtx, "embeddings resolved", slog.Int("cached", len(texts)-len(missing)), slog.Int("computed", len(missing)))
	return out, nil
}

func (e *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embedding:" + e.next.Name() + ":" + hex.EncodeToString(sum[:])
}
