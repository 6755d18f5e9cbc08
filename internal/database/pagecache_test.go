package database

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setupTestCache creates a temporary page cache for testing.
func setupTestCache(t *testing.T) (*PageCache, func()) {
	t.Helper()

	tmpDir := t.TempDir()

	pc, err := Open(tmpDir, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open page cache: %v", err)
	}

	cleanup := func() {
		_ = pc.Close()
	}

	return pc, cleanup
}

// TestOpen tests cache opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates cache in new directory", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()

		dbDir := filepath.Join(tmpDir, "newdir", "subdir")
		pc, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open page cache: %v", err)
		}
		defer pc.Close()

		// Check that database file exists
		dbPath := filepath.Join(dbDir, "sitesift.db")
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("cache file was not created")
		}
		if pc.Path() != dbPath {
			t.Errorf("Path() = %q, want %q", pc.Path(), dbPath)
		}
	})

	t.Run("CreateIfNotExists=false returns error when cache does not exist", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "nonexistent-cache")

		opts := Options{
			CreateIfNotExists: false,
			EnableWAL:         true,
		}

		_, err := Open(dbDir, opts)
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and cache does not exist")
		}

		// Verify error message is informative
		if !strings.Contains(err.Error(), "page cache not found") {
			t.Errorf("expected error to mention missing cache, got %q", err.Error())
		}

		// Verify cache directory was NOT created
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("cache directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing cache", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "existing-cache")

		// First create the cache
		pc1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create page cache: %v", err)
		}

		// Save a page to verify data persists
		ctx := context.Background()
		record := &PageRecord{
			CanonicalURL: "https://example.com/speakers/amy",
			StatusCode:   200,
			Markup:       "<html><body>Amy</body></html>",
		}
		record.ComputeHash()
		if err := pc1.SavePage(ctx, record); err != nil {
			t.Fatalf("failed to save page: %v", err)
		}
		pc1.Close()

		// Now open with CreateIfNotExists=false
		opts := Options{
			CreateIfNotExists: false,
			EnableWAL:         true,
		}
		pc2, err := Open(dbDir, opts)
		if err != nil {
			t.Fatalf("failed to open existing cache with CreateIfNotExists=false: %v", err)
		}
		defer pc2.Close()

		// Verify data persists
		retrieved, err := pc2.GetPage(ctx, record.CanonicalURL)
		if err != nil {
			t.Fatalf("failed to get page: %v", err)
		}
		if retrieved == nil {
			t.Error("expected page to exist in cache")
		}
	})

	t.Run("CreateIfNotExists=false with directory but no cache file", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "empty-dir")

		// Create the directory but not the database file
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}

		opts := Options{
			CreateIfNotExists: false,
			EnableWAL:         true,
		}

		_, err := Open(dbDir, opts)
		if err == nil {
			t.Fatal("expected error when directory exists but cache file does not")
		}
	})
}

// TestDefaultOptions tests the default options values.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()

	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true by default")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true by default")
	}
}

// TestSaveAndGetPage tests cached page operations.
func TestSaveAndGetPage(t *testing.T) {
	t.Parallel()

	pc, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("save and retrieve page", func(t *testing.T) {
		record := &PageRecord{
			CanonicalURL: "https://example.com/roundtables/ai-ethics",
			StatusCode:   200,
			ContentType:  "text/html; charset=utf-8",
			Markup:       "<html><body><h1>AI Ethics</h1></body></html>",
		}
		record.ComputeHash()

		if err := pc.SavePage(ctx, record); err != nil {
			t.Fatalf("failed to save page: %v", err)
		}

		retrieved, err := pc.GetPage(ctx, record.CanonicalURL)
		if err != nil {
			t.Fatalf("failed to get page: %v", err)
		}
		if retrieved == nil {
			t.Fatal("expected page, got nil")
		}

		if retrieved.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", retrieved.StatusCode)
		}
		if retrieved.ContentType != "text/html; charset=utf-8" {
			t.Errorf("content type mismatch: %q", retrieved.ContentType)
		}
		if retrieved.Markup != record.Markup {
			t.Errorf("markup mismatch: %q", retrieved.Markup)
		}
		if retrieved.ContentHash != record.ContentHash {
			t.Errorf("expected hash %q, got %q", record.ContentHash, retrieved.ContentHash)
		}
		if retrieved.FetchedAt.IsZero() {
			t.Error("expected FetchedAt to be set")
		}
	})

	t.Run("upsert replaces existing entry", func(t *testing.T) {
		record := &PageRecord{
			CanonicalURL: "https://example.com/roundtables/privacy",
			StatusCode:   200,
			Markup:       "<html><body>first</body></html>",
		}
		record.ComputeHash()

		if err := pc.SavePage(ctx, record); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		// Refetch with new content
		record.StatusCode = 404
		record.Markup = "<html><body>gone</body></html>"
		record.ComputeHash()

		if err := pc.SavePage(ctx, record); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		retrieved, err := pc.GetPage(ctx, record.CanonicalURL)
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if retrieved.StatusCode != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", retrieved.StatusCode)
		}
		if retrieved.Markup != "<html><body>gone</body></html>" {
			t.Errorf("expected updated markup, got %q", retrieved.Markup)
		}
		if retrieved.ContentHash != record.ContentHash {
			t.Errorf("expected updated hash %q, got %q", record.ContentHash, retrieved.ContentHash)
		}
	})

	t.Run("returns nil for uncached url", func(t *testing.T) {
		retrieved, err := pc.GetPage(ctx, "https://example.com/never-fetched")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if retrieved != nil {
			t.Error("expected nil for uncached url")
		}
	})
}

// TestHasFreshPage tests freshness checking.
func TestHasFreshPage(t *testing.T) {
	t.Parallel()

	pc, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	record := &PageRecord{
		CanonicalURL: "https://example.com/speakers",
		StatusCode:   200,
		Markup:       "<html></html>",
	}
	record.ComputeHash()
	if err := pc.SavePage(ctx, record); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	t.Run("returns true for freshly cached page", func(t *testing.T) {
		fresh, err := pc.HasFreshPage(ctx, record.CanonicalURL, time.Hour)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fresh {
			t.Error("expected true for freshly saved page")
		}
	})

	t.Run("returns false for uncached url", func(t *testing.T) {
		fresh, err := pc.HasFreshPage(ctx, "https://example.com/never-fetched", time.Hour)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fresh {
			t.Error("expected false for uncached url")
		}
	})

	t.Run("returns false when max age is zero", func(t *testing.T) {
		fresh, err := pc.HasFreshPage(ctx, record.CanonicalURL, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fresh {
			t.Error("expected false for zero max age")
		}
	})
}

// TestListPages tests replay listing.
func TestListPages(t *testing.T) {
	t.Parallel()

	t.Run("returns empty list for new cache", func(t *testing.T) {
		t.Parallel()

		pc, cleanup := setupTestCache(t)
		defer cleanup()

		pages, err := pc.ListPages(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 0 {
			t.Errorf("expected empty list, got %d pages", len(pages))
		}
	})

	t.Run("returns every cached page", func(t *testing.T) {
		t.Parallel()

		pc, cleanup := setupTestCache(t)
		defer cleanup()

		ctx := context.Background()
		urls := []string{
			"https://example.com/roundtables/ai-ethics",
			"https://example.com/speakers/amy",
			"https://example.com/speakers/bob",
		}
		for _, u := range urls {
			record := &PageRecord{
				CanonicalURL: u,
				StatusCode:   200,
				Markup:       "<html><body>" + u + "</body></html>",
			}
			record.ComputeHash()
			if err := pc.SavePage(ctx, record); err != nil {
				t.Fatalf("failed to save %s: %v", u, err)
			}
		}

		pages, err := pc.ListPages(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != len(urls) {
			t.Fatalf("expected %d pages, got %d", len(urls), len(pages))
		}

		got := make(map[string]bool, len(pages))
		for _, p := range pages {
			got[p.CanonicalURL] = true
			if p.Markup == "" {
				t.Errorf("expected markup for %s", p.CanonicalURL)
			}
		}
		for _, u := range urls {
			if !got[u] {
				t.Errorf("expected %s in listing", u)
			}
		}

		count, err := pc.CountPages(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != len(urls) {
			t.Errorf("expected count %d, got %d", len(urls), count)
		}
	})
}

// TestPageRecordComputeHash tests the ComputeHash method.
func TestPageRecordComputeHash(t *testing.T) {
	t.Parallel()

	t.Run("computes SHA256 hash of markup", func(t *testing.T) {
		t.Parallel()

		record := &PageRecord{Markup: "Hello, World!"}
		record.ComputeHash()

		// Expected SHA256 of "Hello, World!"
		expected := "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"
		if record.ContentHash != expected {
			t.Errorf("got %q, expected %q", record.ContentHash, expected)
		}
	})

	t.Run("empty markup produces empty hash", func(t *testing.T) {
		t.Parallel()

		record := &PageRecord{Markup: ""}
		record.ComputeHash()

		if record.ContentHash != "" {
			t.Errorf("expected empty hash, got %q", record.ContentHash)
		}
	})

	t.Run("different markup produces different hash", func(t *testing.T) {
		t.Parallel()

		a := &PageRecord{Markup: "<html>a</html>"}
		b := &PageRecord{Markup: "<html>b</html>"}
		a.ComputeHash()
		b.ComputeHash()

		if a.ContentHash == b.ContentHash {
			t.Error("expected different hashes for different markup")
		}
	})
}
