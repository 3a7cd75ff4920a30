package ports

import "context"

// SearchResult is one nearest neighbour. Similarity is cosine, higher is closer.
type SearchResult struct {
	Document   string
	Metadata   map[string]string
	Similarity float64
}

// VectorIndex stores text documents per collection and searches them by
// similarity. Implementations perform their own I/O and must not be called
// inside an open transaction.
type VectorIndex interface {
	AddDocuments(ctx context.Context, collection string, documents []string, metadatas []map[string]string) error
	SearchDocuments(ctx context.Context, collection string, query string, k int) ([]SearchResult, error)
	DeleteCollection(ctx context.Context, collection string) error
}

// Embedder turns texts into vectors of a fixed dimension.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Name identifies the model so vectors from different models never mix.
	Name() string
}
