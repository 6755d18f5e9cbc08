package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and RuleSet compilation
// and provide specific information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances at each check. This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Dynamic detail (the offending pattern, the
// page type name) is attached with fmt.Errorf("%w: ...") wrapping.
var (
	// ErrNoBaseURL is returned when the site section has no base URL.
	// Every run needs a site root to resolve relative links against.
	ErrNoBaseURL = errors.New("no base URL: set site.base_url in the config file")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when the fetch worker count is not positive.
	// Zero workers would mean no fetching at all.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one summary format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidFetchDelay is returned when the fetch delay is negative.
	// A negative delay is invalid; use 0 for no delay between requests.
	ErrInvalidFetchDelay = errors.New("invalid fetch delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidCacheMaxAge is returned when the cache freshness window is
	// negative. Use 0 to always refetch.
	ErrInvalidCacheMaxAge = errors.New("invalid cache max age: must be non-negative")

	// ErrNoPatterns is returned when the rules file declares no URL patterns.
	// Without patterns every page classifies as unknown and nothing is extracted.
	ErrNoPatterns = errors.New("no url patterns: declare at least one entry under patterns")

	// ErrBadPattern is returned when a URL pattern fails to compile as a
	// regular expression. Detected at load time so no page is ever processed
	// against a broken route table.
	ErrBadPattern = errors.New("url pattern does not compile")

	// ErrBadPageType is returned when a pattern or selector table names a
	// page type that does not exist.
	ErrBadPageType = errors.New("unknown page type")

	// ErrBadSelector is returned when a CSS selector in the rules file fails
	// to parse. Detected at load time for the same reason as ErrBadPattern.
	ErrBadSelector = errors.New("css selector does not parse")

	// ErrEmptyRule is returned when a selector rule has neither a selector
	// nor an attribute, so it could never select anything.
	ErrEmptyRule = errors.New("selector rule is empty")

	// ErrBadThreshold is returned when the fuzzy acceptance threshold is
	// outside (0, 1].
	ErrBadThreshold = errors.New("invalid fuzzy threshold: must be in (0, 1]")

	// ErrBadMargin is returned when the ambiguity margin is negative or not
	// below the acceptance threshold.
	ErrBadMargin = errors.New("invalid ambiguity margin: must be non-negative and below the threshold")

	// ErrBadMetric is returned when the similarity metric names neither
	// token_set nor token_sort.
	ErrBadMetric = errors.New("unknown similarity metric")
)
