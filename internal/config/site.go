package config

import "strings"

// SiteConfig describes the target site: where the run starts and how
// requests to it identify themselves.
type SiteConfig struct {
	// BaseURL is the site root. Relative links and start paths are
	// resolved against it, and it anchors URL canonicalization.
	BaseURL string `yaml:"base_url"`

	// AllowedDomains restricts fetching to these hosts. When empty, the
	// BaseURL host is used.
	AllowedDomains []string `yaml:"allowed_domains,omitempty"`

	// StartURLs are absolute seed URLs. When empty, StartPaths joined to
	// BaseURL are used, falling back to BaseURL itself.
	StartURLs []string `yaml:"start_urls,omitempty"`

	// StartPaths are site-relative seed paths (e.g. "/speakers/").
	StartPaths []string `yaml:"start_paths,omitempty"`

	// UserAgent overrides the default User-Agent for this site.
	UserAgent string `yaml:"user_agent,omitempty"`

	// Headers are custom HTTP headers to include in every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Cookie is an HTTP cookie to send with every request.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`
}

// Seeds returns the resolved seed URLs: StartURLs when present, otherwise
// BaseURL+StartPaths, otherwise BaseURL alone.
func (s *SiteConfig) Seeds() []string {
	if len(s.StartURLs) > 0 {
		return s.StartURLs
	}
	base := strings.TrimRight(s.BaseURL, "/")
	if len(s.StartPaths) > 0 {
		seeds := make([]string, 0, len(s.StartPaths))
		for _, p := range s.StartPaths {
			if !strings.HasPrefix(p, "/") {
				p = "/" + p
			}
			seeds = append(seeds, base+p)
		}
		return seeds
	}
	if s.BaseURL == "" {
		return nil
	}
	return []string{s.BaseURL}
}

// CrawlConfig holds the traversal limits for the fetch driver.
type CrawlConfig struct {
	// MaxPages caps the number of pages fetched per run.
	// Zero means use the default.
	MaxPages int `yaml:"max_pages,omitempty"`

	// MaxDepth caps the link depth from the seeds. Depth 0 means only
	// fetch the seeds themselves. Zero means use the default.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// IncludeQueryParams keeps query strings during URL canonicalization.
	// Off by default because session and tracking parameters would split
	// one logical page into many identities.
	IncludeQueryParams bool `yaml:"include_query_params,omitempty"`

	// DenyPatterns are regular expressions; URLs matching any of them are
	// never fetched or followed.
	DenyPatterns []string `yaml:"deny_patterns,omitempty"`
}

// ScrapeConfig holds the dataset output locations.
type ScrapeConfig struct {
	// OutputsDir is the directory CSV artifacts are written to.
	OutputsDir string `yaml:"outputs_dir,omitempty"`

	// SpeakersCSV is the speakers table file name inside OutputsDir.
	SpeakersCSV string `yaml:"speakers_csv,omitempty"`

	// RoundtablesCSV is the roundtables table file name inside OutputsDir.
	RoundtablesCSV string `yaml:"roundtables_csv,omitempty"`

	// DiscussionsCSVPattern is the per-roundtable discussion file name.
	// The literal "{roundtable_id}" is replaced with the roundtable's ID.
	DiscussionsCSVPattern string `yaml:"discussions_csv_pattern,omitempty"`

	// OnlyRoundtableIDs restricts dataset emission to these roundtables.
	// Empty means emit everything.
	OnlyRoundtableIDs []string `yaml:"only_roundtable_ids,omitempty"`
}

// DiscussionsCSV returns the discussion file name for a roundtable ID.
func (s *ScrapeConfig) DiscussionsCSV(roundtableID string) string {
	return strings.ReplaceAll(s.DiscussionsCSVPattern, "{roundtable_id}", roundtableID)
}

// DocsConfig holds the markdown documentation output locations.
type DocsConfig struct {
	// WebMapPath is where the site map document is written.
	WebMapPath string `yaml:"web_map_path,omitempty"`

	// SpeakersPath is where the speaker directory document is written.
	SpeakersPath string `yaml:"speakers_path,omitempty"`

	// TechSpecPath is where the site rebuild specification is written.
	TechSpecPath string `yaml:"tech_spec_path,omitempty"`
}

// File represents the structure of the .sitesift configuration file.
// It bundles the site description with the rules that drive
// classification, extraction, and linking.
type File struct {
	// Site describes the target site.
	Site SiteConfig `yaml:"site"`

	// Crawl holds the traversal limits.
	Crawl CrawlConfig `yaml:"crawl,omitempty"`

	// Scrape holds the dataset output locations.
	Scrape ScrapeConfig `yaml:"scrape,omitempty"`

	// Docs holds the markdown documentation output locations.
	Docs DocsConfig `yaml:"docs,omitempty"`

	// Patterns is the ordered URL route table. The first matching pattern
	// decides a page's type, so more specific patterns go first.
	Patterns []PatternRule `yaml:"patterns"`

	// Selectors maps a page type name to its selector rules.
	Selectors map[string]PageRules `yaml:"selectors,omitempty"`

	// Linker holds the fuzzy matching tuning.
	Linker LinkerConfig `yaml:"linker,omitempty"`
}

// applyDefaults fills in the zero-valued fields of the file with defaults.
func (f *File) applyDefaults() {
	if f.Crawl.MaxPages == 0 {
		f.Crawl.MaxPages = DefaultMaxPages
	}
	if f.Crawl.MaxDepth == 0 {
		f.Crawl.MaxDepth = DefaultMaxDepth
	}
	if f.Scrape.OutputsDir == "" {
		f.Scrape.OutputsDir = DefaultOutputsDir
	}
	if f.Scrape.SpeakersCSV == "" {
		f.Scrape.SpeakersCSV = "speakers.csv"
	}
	if f.Scrape.RoundtablesCSV == "" {
		f.Scrape.RoundtablesCSV = "roundtables.csv"
	}
	if f.Scrape.DiscussionsCSVPattern == "" {
		f.Scrape.DiscussionsCSVPattern = "discussion_{roundtable_id}.csv"
	}
	if f.Docs.WebMapPath == "" {
		f.Docs.WebMapPath = "docs/web-map.md"
	}
	if f.Docs.SpeakersPath == "" {
		f.Docs.SpeakersPath = "docs/speakers.md"
	}
	if f.Docs.TechSpecPath == "" {
		f.Docs.TechSpecPath = "docs/tech-spec-website.md"
	}
	if f.Linker.FuzzyThreshold == 0 {
		f.Linker.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if f.Linker.AmbiguityMargin == 0 {
		f.Linker.AmbiguityMargin = DefaultAmbiguityMargin
	}
}
