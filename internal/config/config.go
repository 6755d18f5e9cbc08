package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen for polite scraping of small community sites
// and match the original tool's defaults where applicable.
const (
	// DefaultTimeout is the per-request timeout. 30 seconds is generous
	// for slow shared hosting while still failing dead pages quickly
	// enough that a run over thousands of URLs finishes.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxDepth of 8 reaches every page of a typical community site
	// (home → section index → entity page → discussion) with room to
	// spare, while bounding traversal of calendar-style link mazes.
	DefaultMaxDepth = 8

	// DefaultMaxPages caps a run at 5000 pages. This prevents runaway
	// fetching on sites with infinitely generating URLs. Larger sites can
	// raise it via the --max-pages CLI flag.
	DefaultMaxPages = 5000

	// DefaultWorkers is the number of concurrent fetch workers.
	// Community sites are usually small shared-hosting deployments;
	// four concurrent requests is enough to hide latency without
	// looking like a flood.
	DefaultWorkers = 4

	// DefaultFetchDelay is the politeness delay between requests issued
	// by one worker. 1 second is conservative and respectful of server
	// resources. Can be adjusted via the --fetch-delay CLI flag.
	DefaultFetchDelay = 1 * time.Second

	// DefaultUserAgent identifies sitesift in HTTP requests.
	// Using a descriptive User-Agent is good practice and allows operators
	// to identify scraper traffic in their logs.
	DefaultUserAgent = "sitesift/1.0 (+https://github.com/nao1215/sitesift)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultFuzzyThreshold is the linker's minimum similarity score for
	// accepting a fuzzy name match. 0.85 tolerates initials and word-order
	// differences ("A. Lin" vs "Amy Lin") while rejecting unrelated names.
	DefaultFuzzyThreshold = 0.85

	// DefaultAmbiguityMargin rejects a fuzzy match when the runner-up
	// scores within 0.05 of the winner. Two near-equal candidates mean
	// the evidence cannot distinguish them, and a placeholder is better
	// than a coin flip.
	DefaultAmbiguityMargin = 0.05

	// DefaultOutputsDir is where CSV datasets are written.
	DefaultOutputsDir = "data"

	// AppName is the application name used for XDG directory paths.
	AppName = "sitesift"
)

// Config holds all runtime options for sitesift.
// This struct is populated from CLI flags plus the loaded rules file and
// passed through the application via dependency injection rather than
// global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for the flag-driven options. The number of options is manageable, and
// nesting would add complexity without significant benefit. The YAML file
// keeps its own nested shape in File.
type Config struct {
	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .sitesift in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// File holds the loaded site description and rules.
	File *File

	// Rules is the compiled, validated rule set built from File.
	Rules *RuleSet

	// Timeout is the timeout for each HTTP request.
	Timeout time.Duration

	// MaxPages overrides the rules file's page cap when positive.
	MaxPages int

	// MaxDepth overrides the rules file's depth cap when positive.
	MaxDepth int

	// Workers is the number of concurrent fetch workers.
	Workers int

	// FetchDelay is the politeness delay between requests per worker.
	FetchDelay time.Duration

	// UserAgent is sent as the User-Agent header. The rules file's
	// site.user_agent wins when set; this is the fallback.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated. Zero means the default.
	MaxBodySize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONSummary emits the run summary as JSON instead of the
	// human-readable text form. Mutually exclusive with MarkdownSummary.
	JSONSummary bool

	// MarkdownSummary emits the run summary as Markdown.
	// Mutually exclusive with JSONSummary.
	MarkdownSummary bool

	// SummaryFile is the output path for the run summary.
	// When empty, the summary goes to stdout.
	SummaryFile string

	// CacheDir is the directory holding the SQLite page cache.
	// Defaults to the XDG cache directory.
	CacheDir string

	// UseCache enables writing fetched pages into the page cache.
	UseCache bool

	// FromCache replays pages from the cache instead of fetching.
	// Useful for re-running extraction offline after selector changes.
	FromCache bool

	// CacheMaxAge treats cached pages younger than this as fresh: the
	// fetch driver serves them from the cache instead of refetching.
	// Zero disables freshness skipping. Requires UseCache.
	CacheMaxAge time.Duration
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, worker
// count). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		Workers:     DefaultWorkers,
		FetchDelay:  DefaultFetchDelay,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		CacheDir:    XDGCacheDir(),
	}
}

// XDGDataDir returns the XDG data directory for sitesift.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/sitesift
// On macOS: ~/Library/Application Support/sitesift
// On Windows: %LOCALAPPDATA%\sitesift
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for sitesift.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/sitesift
// On macOS: ~/Library/Caches/sitesift
// On Windows: %LOCALAPPDATA%\sitesift\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing and rules loading, before any
// page is processed.
//
// We chose to return the first error found rather than collecting all
// errors because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.File == nil || c.File.Site.BaseURL == "" {
		return ErrNoBaseURL
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// Workers must be positive; zero would mean no fetching
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	// JSONSummary and MarkdownSummary are mutually exclusive
	if c.JSONSummary && c.MarkdownSummary {
		return ErrConflictingReportFormats
	}

	// FetchDelay must be non-negative
	if c.FetchDelay < 0 {
		return ErrInvalidFetchDelay
	}

	// MaxBodySize must be positive if set
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// CacheMaxAge must be non-negative
	if c.CacheMaxAge < 0 {
		return ErrInvalidCacheMaxAge
	}

	return nil
}

// EffectiveMaxPages returns the page cap after flag overrides.
func (c *Config) EffectiveMaxPages() int {
	if c.MaxPages > 0 {
		return c.MaxPages
	}
	if c.File != nil && c.File.Crawl.MaxPages > 0 {
		return c.File.Crawl.MaxPages
	}
	return DefaultMaxPages
}

// EffectiveMaxDepth returns the depth cap after flag overrides.
func (c *Config) EffectiveMaxDepth() int {
	if c.MaxDepth > 0 {
		return c.MaxDepth
	}
	if c.File != nil && c.File.Crawl.MaxDepth > 0 {
		return c.File.Crawl.MaxDepth
	}
	return DefaultMaxDepth
}

// EffectiveUserAgent returns the User-Agent header value, preferring the
// rules file's per-site setting over the flag default.
func (c *Config) EffectiveUserAgent() string {
	if c.File != nil && c.File.Site.UserAgent != "" {
		return c.File.Site.UserAgent
	}
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return DefaultUserAgent
}

// EffectiveMaxBodySize returns the body size limit, substituting the
// default for zero.
func (c *Config) EffectiveMaxBodySize() int64 {
	if c.MaxBodySize > 0 {
		return c.MaxBodySize
	}
	return DefaultMaxBodySize
}
