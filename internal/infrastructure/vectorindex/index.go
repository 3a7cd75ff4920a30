package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/errs"
	"applytrack/internal/infrastructure/persistence/sqlite/model"
	"applytrack/internal/ports"
)

// Index is a brute-force cosine index over vector_documents. It always uses
// the root connection and never joins a business transaction.
type Index struct {
	db       *gorm.DB
	embedder ports.Embedder
	now      func() time.Time
}

var _ ports.VectorIndex = (*Index)(nil)

func New(db *gorm.DB, embedder ports.Embedder) *Index {
	return &Index{db: db, embedder: embedder, now: time.Now}
}

func (i *Index) AddDocuments(ctx context.Context, collection string, documents []string, metadatas []map[string]string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if ports.InTx(ctx) {
		return errors.New("vector index must not be called inside a transaction")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return errors.New("collection is required")
	}
	if len(metadatas) != len(documents) {
		return fmt.Errorf("got %d metadatas for %d documents", len(metadatas), len(documents))
	}
	if len(documents) == 0 {
		return nil
	}

	vectors, err := i.embedder.Embed(ctx, documents)
	if err != nil {
		return errs.Wrap(err, "embed documents")
	}

	createdAt := i.now().UTC().Format(time.RFC3339Nano)
	rows := make([]model.VectorDocument, len(documents))
	for n, document := range documents {
		rows[n] = model.VectorDocument{
			Collection: collection,
			Model:      i.embedder.Name(),
			Document:   document,
			Metadata:   datatypes.NewJSONType(metadatas[n]),
			Embedding:  datatypes.JSONSlice[float32](vectors[n]),
			CreatedAt:  createdAt,
		}
	}

	if err := i.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return errs.Storage("insert vector documents", err)
	}

	logging.Debug(
		logging.WithAttrs(ctx, slog.String("component", "infrastructure.vectorindex")),
		"documents indexed",
		slog.String("collection", collection),
		slog.Int("count", len(rows)),
	)
	return nil
}

// SearchDocuments returns at most k documents of the collection embedded by
// the current model, most similar first. Equal scores keep insertion order.
func (i *Index) SearchDocuments(ctx context.Context, collection string, query string, k int) ([]ports.SearchResult, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if k <= 0 {
		return nil, nil
	}

	vectors, err := i.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, errs.Wrap(err, "embed query")
	}
	queryVector := vectors[0]

	var rows []model.VectorDocument
	if err := i.db.WithContext(ctx).
		Where("collection = ? AND model = ?", strings.TrimSpace(collection), i.embedder.Name()).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, errs.Storage("query vector documents", err)
	}

	results := make([]ports.SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, ports.SearchResult{
			Document:   row.Document,
			Metadata:   row.Metadata.Data(),
			Similarity: Cosine(queryVector, row.Embedding),
		})
	}
	slices.SortStableFunc(results, func(a, b ports.SearchResult) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		default:
			return 0
		}
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (i *Index) DeleteCollection(ctx context.Context, collection string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := i.db.WithContext(ctx).
		Where("collection = ?", strings.TrimSpace(collection)).
		Delete(&model.VectorDocument{}).Error; err != nil {
		return errs.Storage("delete vector collection", err)
	}
	return nil
}

// Cosine returns the cosine similarity of a and b, 0 when either is empty,
// zero or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for n := range a {
		x, y := float64(a[n]), float64(b[n])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
