package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// PageCache provides SQLite-based storage for fetched pages.
// It backs offline replay (--from-cache) and freshness-based refetch
// skipping. Dataset outputs never read from the cache; they are built
// from the in-memory aggregation tables and written as flat CSV.
//
// Design decision: Rows are keyed by canonical URL rather than the raw
// request URL, so alias URLs (tracking queries, trailing slashes,
// default ports) share one cached entry. This matches how the
// aggregation tables are keyed, which keeps replay equivalent to the
// live run that produced the cache.
type PageCache struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures PageCache behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default page cache options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a PageCache at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the cache doesn't exist, an error is
// returned; --from-cache runs use this so a typo in the cache path fails
// loudly instead of replaying an empty cache.
func Open(dbDir string, opts Options) (*PageCache, error) {
	dbPath := filepath.Join(dbDir, "sitesift.db")

	// Check if we should create the cache or require it to exist
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("page cache not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check page cache path: %w", err)
		}
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open page cache: %w", err)
	}

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pc := &PageCache{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := pc.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pc, nil
}

// Close closes the database connection.
func (pc *PageCache) Close() error {
	return pc.db.Close()
}

// Path returns the path to the SQLite database file.
func (pc *PageCache) Path() string {
	return pc.dbPath
}

// createTables creates the cache schema if it doesn't exist.
func (pc *PageCache) createTables() error {
	schema := `
	-- Pages store one fetch result per canonical URL
	CREATE TABLE IF NOT EXISTS pages (
		canonical_url TEXT PRIMARY KEY,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		status_code INTEGER,
		content_type TEXT,
		content_hash TEXT,
		markup TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_pages_fetched ON pages(fetched_at);
	`

	_, err := pc.db.ExecContext(context.Background(), schema)
	return err
}

// PageRecord represents a cached page fetch.
type PageRecord struct {
	// CanonicalURL is the canonical form of the fetched URL.
	CanonicalURL string

	// FetchedAt is when the page was fetched. Set by the database on save.
	FetchedAt time.Time

	// StatusCode is the HTTP status code of the fetch.
	StatusCode int

	// ContentType is the Content-Type header of the response.
	ContentType string

	// ContentHash is the SHA-256 hash of the markup, hex encoded.
	ContentHash string

	// Markup is the charset-decoded page body.
	Markup string
}

// ComputeHash calculates and sets the SHA-256 hash of the page markup.
// This should be called after setting the Markup field.
func (r *PageRecord) ComputeHash() {
	if len(r.Markup) == 0 {
		r.ContentHash = ""
		return
	}

	hash := sha256.Sum256([]byte(r.Markup))
	r.ContentHash = hex.EncodeToString(hash[:])
}

// SavePage inserts or updates a cached page.
// Uses UPSERT so refetching a URL replaces the previous entry.
func (pc *PageCache) SavePage(ctx context.Context, record *PageRecord) error {
	query := `
	INSERT INTO pages (canonical_url, status_code, content_type, content_hash, markup)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(canonical_url) DO UPDATE SET
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		content_hash = excluded.content_hash,
		markup = excluded.markup,
		fetched_at = CURRENT_TIMESTAMP
	`

	_, err := pc.db.ExecContext(ctx, query,
		record.CanonicalURL,
		record.StatusCode,
		record.ContentType,
		record.ContentHash,
		record.Markup,
	)
	if err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}

	return nil
}

// GetPage retrieves a cached page by canonical URL.
// Returns nil without error when the URL is not cached.
func (pc *PageCache) GetPage(ctx context.Context, canonicalURL string) (*PageRecord, error) {
	query := `
	SELECT canonical_url, fetched_at, status_code, content_type, content_hash, markup
	FROM pages
	WHERE canonical_url = ?
	`

	var record PageRecord
	var fetchedAt string

	err := pc.db.QueryRowContext(ctx, query, canonicalURL).Scan(
		&record.CanonicalURL,
		&fetchedAt,
		&record.StatusCode,
		&record.ContentType,
		&record.ContentHash,
		&record.Markup,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	// Parse timestamp (SQLite may return different formats depending on version/configuration)
	record.FetchedAt = parseTimestamp(fetchedAt)

	return &record, nil
}

// HasFreshPage checks if a canonical URL was fetched within maxAge.
// Live runs use this to skip refetching pages the cache saw recently.
func (pc *PageCache) HasFreshPage(ctx context.Context, canonicalURL string, maxAge time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM pages
	WHERE canonical_url = ? AND fetched_at > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(maxAge.Seconds()))

	var count int
	err := pc.db.QueryRowContext(ctx, query, canonicalURL, modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check page freshness: %w", err)
	}

	return count > 0, nil
}

// ListPages returns every cached page.
// Order follows fetch time with ties broken by canonical URL, so replays
// of the same cache always see pages in the same sequence. The pipeline
// output does not depend on the order; the stability only makes replay
// logs reproducible.
func (pc *PageCache) ListPages(ctx context.Context) ([]*PageRecord, error) {
	query := `
	SELECT canonical_url, fetched_at, status_code, content_type, content_hash, markup
	FROM pages
	ORDER BY fetched_at, canonical_url
	`

	rows, err := pc.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var results []*PageRecord
	for rows.Next() {
		var record PageRecord
		var fetchedAt string

		err := rows.Scan(
			&record.CanonicalURL,
			&fetchedAt,
			&record.StatusCode,
			&record.ContentType,
			&record.ContentHash,
			&record.Markup,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}

		record.FetchedAt = parseTimestamp(fetchedAt)
		results = append(results, &record)
	}

	return results, rows.Err()
}

// CountPages returns the number of cached pages.
func (pc *PageCache) CountPages(ctx context.Context) (int, error) {
	var count int
	err := pc.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}

	return count, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	// Return zero time if no format matches
	// This is a fallback to avoid breaking functionality for edge cases
	return time.Time{}
}
