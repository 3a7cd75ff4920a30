package vectorindex

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"applytrack/internal/infrastructure/embedding"
	"applytrack/internal/infrastructure/persistence/sqlite/model"
	"applytrack/internal/ports"
)

func setupIndex(t *testing.T) *Index {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "vectors.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.VectorDocument{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	embedder, err := embedding.NewHashEmbedder(256)
	if err != nil {
		t.Fatalf("NewHashEmbedder() error = %v", err)
	}
	return New(db, embedder)
}

func TestIndexSearchRanksIdenticalTextFirst(t *testing.T) {
	index := setupIndex(t)
	ctx := context.Background()

	docs := []string{
		"Company: Acme\nTitle: Backend Engineer\nDescription: Go services",
		"Company: Globex\nTitle: Data Scientist\nDescription: Python models",
		"Company: Initech\nTitle: Office Manager\nDescription: Staplers",
	}
	metas := []map[string]string{{"listing_id": "a"}, {"listing_id": "b"}, {"listing_id": "c"}}
	if err := index.AddDocuments(ctx, "listings", docs, metas); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}

	results, err := index.SearchDocuments(ctx, "listings", docs[1], 2)
	if err != nil {
		t.Fatalf("SearchDocuments() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("SearchDocuments() len = %d, want 2", len(results))
	}
	if results[0].Metadata["listing_id"] != "b" || math.Abs(results[0].Similarity-1) > 1e-6 {
		t.Fatalf("SearchDocuments()[0] = %+v, want listing b at 1.0", results[0])
	}
	if results[1].Similarity > results[0].Similarity {
		t.Fatalf("SearchDocuments() not sorted: %+v", results)
	}

	other, err := index.SearchDocuments(ctx, "resumes", docs[1], 2)
	if err != nil {
		t.Fatalf("SearchDocuments(other) error = %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("SearchDocuments(other) len = %d, want 0", len(other))
	}
}

func TestIndexDeleteCollection(t *testing.T) {
	index := setupIndex(t)
	ctx := context.Background()

	if err := index.AddDocuments(ctx, "listings", []string{"x"}, []map[string]string{{"listing_id": "x"}}); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}
	if err := index.DeleteCollection(ctx, "listings"); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}
	results, err := index.SearchDocuments(ctx, "listings", "x", 5)
	if err != nil {
		t.Fatalf("SearchDocuments() error = %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("SearchDocuments() len = %d, want 0", len(results))
	}
}

func TestIndexRefusesOpenTransaction(t *testing.T) {
	index := setupIndex(t)
	ctx := ports.WithTxContext(context.Background(), index.db)

	if err := index.AddDocuments(ctx, "listings", []string{"x"}, []map[string]string{{}}); err == nil {
		t.Fatalf("AddDocuments() inside tx error = nil")
	}
}

func TestCosine(t *testing.T) {
	if got := Cosine([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("Cosine(orthogonal) = %v, want 0", got)
	}
	if got := Cosine([]float32{1, 2}, []float32{2, 4}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("Cosine(parallel) = %v, want 1", got)
	}
	if got := Cosine([]float32{1}, []float32{1, 2}); got != 0 {
		t.Fatalf("Cosine(mismatch) = %v, want 0", got)
	}
}
