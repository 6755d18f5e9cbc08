package model

import "time"

// SiteReport is the main run result structure.
// It contains everything collected while processing a site: the
// aggregated dataset, the speaker/roundtable relationships, and the run
// statistics the documentation writers render.
//
// Design decision: We use a single large struct rather than many small ones
// to simplify serialization and hand-off between pipeline steps. The
// RunStats sub-struct groups the counters for easier access.
type SiteReport struct {
	// === Basic Information ===

	// BaseURL is the site root the run started from.
	BaseURL string `json:"base_url"`

	// Mode is the run mode: "crawl" (map only) or "scrape" (full
	// extraction and aggregation).
	Mode string `json:"mode"`

	// StartedAt is when the run started (UTC).
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run finished (UTC).
	FinishedAt time.Time `json:"finished_at"`

	// === Results ===

	// Dataset is the aggregated entity snapshot. Nil in crawl mode.
	Dataset *Dataset `json:"-"`

	// Relations holds the resolved speaker/roundtable links. Nil in
	// crawl mode.
	Relations *RelationGraph `json:"-"`

	// SeenURLs maps every processed URL to its classified page type.
	// This drives the site map outline.
	SeenURLs map[string]PageType `json:"seen_urls,omitempty"`

	// Edges maps a page URL to the in-scope URLs it links to.
	// This drives the site map link graph.
	Edges map[string][]string `json:"-"`

	// === Run State ===

	// Stats holds the run counters.
	Stats RunStats `json:"stats"`

	// TimedOut is true if the run was terminated by its deadline.
	TimedOut bool `json:"timed_out"`

	// PerformedSteps lists the pipeline steps that actually ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error contains any error that stopped the run early.
	// Only set if the run failed or partially failed.
	Error error `json:"-"` // Excluded from JSON

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// RunStats holds the counters maintained across a run. Every anomaly the
// pipeline tolerates is counted here instead of aborting the run.
type RunStats struct {
	// Pages is the number of pages processed.
	Pages int `json:"pages"`

	// FetchErrors is the number of pages that could not be retrieved.
	FetchErrors int `json:"fetch_errors"`

	// Redirects is the number of redirects followed while fetching.
	Redirects int `json:"redirects"`

	// ClassificationMisses is the number of pages no route pattern
	// matched.
	ClassificationMisses int `json:"classification_misses"`

	// ExtractionGaps is the number of selector rules that matched
	// nothing on a page where extraction ran.
	ExtractionGaps int `json:"extraction_gaps"`

	// NormalizationRejects is the number of records dropped because a
	// critical field was missing or unusable.
	NormalizationRejects int `json:"normalization_rejects"`

	// LinkAmbiguous is the number of name references, participant or
	// post author, the linker left unresolved because two candidates
	// scored too close together.
	LinkAmbiguous int `json:"link_ambiguous"`

	// DuplicateIdentities is the number of records that arrived for an
	// already-known identity and were merged rather than added.
	DuplicateIdentities int `json:"duplicate_identities"`
}

// NewSiteReport creates a new report for the given site and mode.
func NewSiteReport(baseURL, mode string) *SiteReport {
	return &SiteReport{
		BaseURL:   baseURL,
		Mode:      mode,
		StartedAt: time.Now().UTC(),
		SeenURLs:  make(map[string]PageType),
		Edges:     make(map[string][]string),
	}
}

// AddSeen records a processed URL with its classified type.
func (r *SiteReport) AddSeen(url string, t PageType) {
	r.SeenURLs[url] = t
}

// AddEdges records the in-scope URLs a page links to.
func (r *SiteReport) AddEdges(from string, to []string) {
	if len(to) == 0 {
		return
	}
	r.Edges[from] = append(r.Edges[from], to...)
}

// AddStep records that a pipeline step ran.
func (r *SiteReport) AddStep(name string) {
	r.PerformedSteps = append(r.PerformedSteps, name)
}

// TypeCounts returns how many seen URLs were classified as each type.
func (r *SiteReport) TypeCounts() map[PageType]int {
	counts := make(map[PageType]int)
	for _, t := range r.SeenURLs {
		counts[t]++
	}
	return counts
}

// Duration returns the wall-clock duration of the run.
func (r *SiteReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
