package aggregate

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nao1215/sitesift/internal/classify"
	"github.com/nao1215/sitesift/internal/config"
	"github.com/nao1215/sitesift/internal/extract"
	"github.com/nao1215/sitesift/internal/link"
	"github.com/nao1215/sitesift/internal/model"
	"github.com/nao1215/sitesift/internal/normalize"
)

// Engine runs the classify, extract, normalize, and merge chain for
// every fetched page and owns all aggregated run state.
//
// Design decision: We serialize each page's whole processing behind one
// mutex rather than locking only the table merges because:
//  1. Deduplication by canonical key needs read-modify-write atomicity
//     per identity, and the entity linker's index must observe inserts
//     in a consistent order with the tables.
//  2. Fetch workers spend their time on network I/O; page parsing is
//     not the bottleneck, so finer locking buys nothing measurable.
//  3. A single writer makes the idempotence guarantee (same page set
//     in, identical snapshot out) straightforward to reason about.
type Engine struct {
	mu sync.Mutex

	router       *classify.Router
	extractor    *extract.Extractor
	normalizer   *normalize.Normalizer
	linker       *link.Linker
	logger       *slog.Logger
	now          func() time.Time
	classifyOnly bool

	// speakers and roundtables are keyed by canonical URL, the identity
	// of every record.
	speakers    map[string]*model.Speaker
	roundtables map[string]*model.Roundtable

	// posts holds each roundtable's posts in discovery order, keyed by
	// the roundtable's canonical URL. postKeys carries the identity keys
	// already appended.
	posts    map[string][]model.DiscussionPost
	postKeys map[string]map[string]bool

	seen  map[string]model.PageType
	stats model.RunStats
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for processing events.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock replaces the time source, letting tests pin record
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithClassifyOnly limits processing to routing: pages are counted and
// the URL map is recorded, but nothing is extracted or merged. Crawl
// mode uses this to map a site without reading its content.
func WithClassifyOnly() Option {
	return func(e *Engine) {
		e.classifyOnly = true
	}
}

// NewEngine creates an engine over the compiled rule set. The
// canonicalizer must be the same one the fetch layer uses, so both
// sides agree on page identity.
func NewEngine(rules *config.RuleSet, canon *normalize.Canonicalizer, opts ...Option) *Engine {
	e := &Engine{
		router:      classify.NewRouter(rules),
		extractor:   extract.NewExtractor(rules),
		normalizer:  normalize.NewNormalizer(canon),
		logger:      slog.Default(),
		now:         time.Now,
		speakers:    make(map[string]*model.Speaker),
		roundtables: make(map[string]*model.Roundtable),
		posts:       make(map[string][]model.DiscussionPost),
		postKeys:    make(map[string]map[string]bool),
		seen:        make(map[string]model.PageType),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.linker = link.NewLinker(rules, link.WithLogger(e.logger))
	return e
}

// Canonicalize returns the canonical form of a URL under the engine's
// rules.
func (e *Engine) Canonicalize(raw string) string {
	return e.normalizer.Canonicalize(raw)
}

// Process runs one fetched page through the pipeline and merges its
// records. Safe for concurrent use. Per-page problems are counted, not
// fatal: an unroutable URL, a missing field, or a rejected record never
// aborts the run. The returned error reports unparseable markup and is
// informational.
func (e *Engine) Process(pageURL, markup string) (model.PageType, error) {
	canonical := e.normalizer.Canonicalize(pageURL)
	pageType := e.router.Classify(canonical)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.Pages++
	e.seen[canonical] = pageType

	if pageType == model.PageTypeUnknown {
		e.stats.ClassificationMisses++
		e.logger.Debug("no route pattern matched", "url", canonical)
		return pageType, nil
	}
	if e.classifyOnly {
		return pageType, nil
	}

	result, err := e.extractor.Extract(pageType, canonical, markup)
	if err != nil {
		return pageType, err
	}
	e.stats.ExtractionGaps += result.Gaps

	switch pageType {
	case model.PageTypeSpeaker:
		e.applySpeaker(canonical, result)
	case model.PageTypeRoundtable:
		e.applyRoundtable(canonical, result)
	case model.PageTypeDiscussion:
		e.applyDiscussion(canonical, result)
	}
	return pageType, nil
}

// RecordFetchError counts a page that could not be retrieved.
func (e *Engine) RecordFetchError() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.FetchErrors++
}

// RecordRedirect counts a followed redirect.
func (e *Engine) RecordRedirect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.Redirects++
}

// Snapshot returns a consistent, sorted copy of everything aggregated
// so far, with relationships resolved against the current entity set.
// Snapshots are idempotent: two snapshots of the same state are equal.
func (e *Engine) Snapshot() *model.Dataset {
	e.mu.Lock()
	defer e.mu.Unlock()

	ds := &model.Dataset{
		Posts:       make(map[string][]model.DiscussionPost, len(e.posts)),
		GeneratedAt: e.now().UTC(),
	}
	graph := e.linker.Graph(e.roundtableIDs())

	for _, s := range e.speakers {
		c := s.Clone()
		c.Roundtables = graph.SpeakerRoundtables[s.ID]
		ds.Speakers = append(ds.Speakers, c)
	}
	for url, rt := range e.roundtables {
		c := rt.Clone()
		c.SpeakerIDs = e.linker.LinkedSpeakerIDs(rt.ID)
		c.Unlinked = e.linker.UnlinkedNames(rt.ID)
		c.PostCount = len(e.posts[url])
		ds.Roundtables = append(ds.Roundtables, c)
	}
	for url, posts := range e.posts {
		rt := e.roundtables[url]
		out := make([]model.DiscussionPost, len(posts))
		for i, p := range posts {
			out[i] = p
			if m, _ := e.linker.ResolveName(p.AuthorName); m != nil {
				out[i].AuthorSpeakerID = m.SpeakerID
			}
		}
		ds.Posts[rt.ID] = out
	}

	ds.Sort()
	return ds
}

// Graph returns the current relationship graph.
func (e *Engine) Graph() *model.RelationGraph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.linker.Graph(e.roundtableIDs())
}

// Stats returns the run counters, including the linker's current
// ambiguity count.
func (e *Engine) Stats() model.RunStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := e.stats
	stats.LinkAmbiguous = e.linker.Ambiguous() + e.ambiguousAuthors()
	return stats
}

// PendingLinks counts participant URLs still waiting for their speaker
// page.
func (e *Engine) PendingLinks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.linker.Pending()
}

// Seen returns a copy of the processed URL map, canonical URL to page
// type.
func (e *Engine) Seen() map[string]model.PageType {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[string]model.PageType, len(e.seen))
	for u, t := range e.seen {
		seen[u] = t
	}
	return seen
}

// applySpeaker normalizes and merges one speaker page. Callers hold mu.
func (e *Engine) applySpeaker(canonical string, result *extract.Result) {
	s, err := e.normalizer.Speaker(canonical, result.Fields)
	if err != nil {
		e.stats.NormalizationRejects++
		e.logger.Warn("speaker page rejected", "url", canonical, "error", err)
		return
	}
	s.LastSeen = e.now().UTC()

	if existing, ok := e.speakers[s.CanonicalURL]; ok {
		e.stats.DuplicateIdentities++
		mergeSpeaker(existing, s)
		s = existing
	} else {
		e.speakers[s.CanonicalURL] = s
	}
	e.linker.AddSpeaker(s)
}

// applyRoundtable normalizes and merges one roundtable page. Callers
// hold mu.
func (e *Engine) applyRoundtable(canonical string, result *extract.Result) {
	rt, err := e.normalizer.Roundtable(canonical, result.Fields, result.Items)
	if err != nil {
		e.stats.NormalizationRejects++
		e.logger.Warn("roundtable page rejected", "url", canonical, "error", err)
		return
	}
	rt.LastSeen = e.now().UTC()

	if existing, ok := e.roundtables[rt.CanonicalURL]; ok {
		// Enriching a stub is the reference becoming a real record, not
		// a duplicate sighting.
		if !existing.Stub {
			e.stats.DuplicateIdentities++
		}
		mergeRoundtable(existing, rt)
		rt = existing
	} else {
		e.roundtables[rt.CanonicalURL] = rt
	}
	e.linker.AddParticipants(rt.ID, rt.Participants)
}

// applyDiscussion appends one discussion page's posts, creating a stub
// roundtable when the owning event page has not been seen. Callers
// hold mu.
func (e *Engine) applyDiscussion(canonical string, result *extract.Result) {
	d := e.normalizer.Discussion(canonical, result.Fields, result.Items)
	e.stats.NormalizationRejects += d.Skipped
	now := e.now().UTC()

	rt, ok := e.roundtables[d.RoundtableURL]
	if !ok {
		rt = &model.Roundtable{
			ID:           d.RoundtableID,
			CanonicalURL: d.RoundtableURL,
			Stub:         true,
			LastSeen:     now,
		}
		e.roundtables[d.RoundtableURL] = rt
		e.logger.Debug("created stub roundtable for discussion page",
			"roundtable", d.RoundtableID, "url", d.RoundtableURL)
	}
	rt.LastSeen = now

	keys, ok := e.postKeys[d.RoundtableURL]
	if !ok {
		keys = make(map[string]bool)
		e.postKeys[d.RoundtableURL] = keys
	}
	for _, p := range d.Posts {
		key := postIdentity(p)
		if keys[key] {
			e.stats.DuplicateIdentities++
			continue
		}
		keys[key] = true
		p.LastSeen = now
		// Renumber posts without a page-supplied id to the roundtable-wide
		// sequence, so ids from a second discussion page continue where
		// the first left off instead of restarting at 1. Identity was
		// already taken from the page-local position above.
		if p.PostID == "" {
			p.Seq = len(e.posts[d.RoundtableURL]) + 1
			p.ID = fmt.Sprintf("%s-%d", p.RoundtableID, p.Seq)
		}
		e.posts[d.RoundtableURL] = append(e.posts[d.RoundtableURL], p)
	}
}

// ambiguousAuthors counts posts whose author name matched two speakers
// too closely to link. Callers hold mu.
func (e *Engine) ambiguousAuthors() int {
	n := 0
	for _, posts := range e.posts {
		for _, p := range posts {
			if _, ambiguous := e.linker.ResolveName(p.AuthorName); ambiguous {
				n++
			}
		}
	}
	return n
}

// roundtableIDs returns the sorted IDs of all known roundtables.
// Callers hold mu.
func (e *Engine) roundtableIDs() []string {
	ids := make([]string, 0, len(e.roundtables))
	for _, rt := range e.roundtables {
		ids = append(ids, rt.ID)
	}
	sort.Strings(ids)
	return ids
}
