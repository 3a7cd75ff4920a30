package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"applytrack/internal/bootstrap/logging"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Listings.SearchK != 5 {
		t.Fatalf("SearchK = %d, want 5", cfg.Listings.SearchK)
	}
	if cfg.Listings.SemanticThreshold != 0.85 {
		t.Fatalf("SemanticThreshold = %v, want 0.85", cfg.Listings.SemanticThreshold)
	}
	if cfg.Listings.ScanLimit != 1000 {
		t.Fatalf("ScanLimit = %d, want 1000", cfg.Listings.ScanLimit)
	}
	if cfg.Embedding.CacheTTL != 168*time.Hour {
		t.Fatalf("CacheTTL = %v, want 168h", cfg.Embedding.CacheTTL)
	}
	if cfg.Resume.DefaultTemplate != "classic" {
		t.Fatalf("DefaultTemplate = %q, want classic", cfg.Resume.DefaultTemplate)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  dsn: ` + filepath.Join(dir, "tracker.sqlite") + `
listings:
  search_k: 9
  title_threshold: 0.7
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AT_LISTINGS_COMPANY_THRESHOLD", "0.95")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listings.SearchK != 9 {
		t.Fatalf("SearchK = %d, want 9", cfg.Listings.SearchK)
	}
	if cfg.Listings.TitleThreshold != 0.7 {
		t.Fatalf("TitleThreshold = %v, want 0.7", cfg.Listings.TitleThreshold)
	}
	if cfg.Listings.CompanyThreshold != 0.95 {
		t.Fatalf("CompanyThreshold = %v, want 0.95", cfg.Listings.CompanyThreshold)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "threshold above one", content: "listings:\n  semantic_threshold: 1.5\n", wantErr: "listings.semantic_threshold"},
		{name: "zero neighbours", content: "listings:\n  search_k: 0\n", wantErr: "listings.search_k"},
		{name: "unknown provider", content: "embedding:\n  provider: word2vec\n", wantErr: "embedding.provider"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(testCase.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}

			_, err := Load(context.Background(), path)
			if err == nil || !strings.Contains(err.Error(), testCase.wantErr) {
				t.Fatalf("Load() error = %v, want contains %q", err, testCase.wantErr)
			}
		})
	}
}

func TestWatchRequiresFile(t *testing.T) {
	if err := Watch(context.Background(), "", func(ListingsConfig) {}); err == nil {
		t.Fatalf("Watch() error = nil, want error")
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchReloadsListingsAndLogsLookupBounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	write := func(searchK, scanLimit string) {
		content := "database:\n  dsn: " + filepath.Join(dir, "tracker.sqlite") +
			"\nlistings:\n  search_k: " + searchK + "\n  scan_limit: " + scanLimit + "\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}
	write("5", "1000")

	logs := &lockedBuffer{}
	ctx := logging.WithLogger(context.Background(), slog.New(slog.NewTextHandler(logs, nil)))

	reloaded := make(chan ListingsConfig, 8)
	if err := Watch(ctx, path, func(listings ListingsConfig) { reloaded <- listings }); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	write("7", "50")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case listings := <-reloaded:
			if listings.SearchK != 7 || listings.ScanLimit != 50 {
				continue
			}
			waitFor(t, func() bool {
				out := logs.String()
				return strings.Contains(out, "search_k=7") && strings.Contains(out, "scan_limit=50")
			})
			return
		case <-deadline:
			t.Fatalf("Watch() did not reload search_k=7 scan_limit=50; logs:\n%s", logs.String())
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	for i := 0; i < 100; i++ {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within 1s")
}
