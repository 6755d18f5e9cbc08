package link

import (
	"log/slog"
	"sort"

	"github.com/nao1215/sitesift/internal/config"
	"github.com/nao1215/sitesift/internal/model"
)

// Match is one resolved participant or author reference.
type Match struct {
	// SpeakerID is the matched speaker's ID.
	SpeakerID string

	// SpeakerURL is the matched speaker's canonical profile URL.
	SpeakerURL string

	// SpeakerName is the matched speaker's display name.
	SpeakerName string

	// Score is the similarity score, 1 for exact URL matches.
	Score float64

	// Exact reports that the match came from the URL phase.
	Exact bool
}

// candidate is one speaker in the linker's index.
type candidate struct {
	id     string
	url    string
	name   string
	folded string
}

// entry is one participant reference registered for a roundtable.
type entry struct {
	roundtable  string
	participant model.Participant

	// match is nil while the reference is unresolved.
	match *Match

	// ambiguous reports that the last fuzzy evaluation found two
	// candidates too close to choose between.
	ambiguous bool

	// gen is the candidate-set generation of the last fuzzy evaluation.
	gen uint64
}

// Linker matches roundtable participants and discussion authors to
// speakers. Entities arrive in page-crawl order, which is arbitrary, so
// the linker keeps explicit resumable state instead of running as a
// batch pass.
//
// Design decision: We index speakers by canonical URL and re-resolve
// name-only references lazily against the full index because:
//  1. A roundtable page is often seen before its speakers' pages, so
//     URL references must wait for the speaker to arrive.
//  2. A fuzzy match that was unambiguous early in the crawl can become
//     ambiguous when a similarly named speaker appears later; deciding
//     against the full index keeps the final output independent of
//     arrival order.
//  3. Speaker sets are small (tens, not millions), so re-scoring all
//     candidates on read costs nothing measurable.
//
// A Linker is not safe for concurrent use. The aggregation pipeline
// serializes all access behind its own lock.
type Linker struct {
	threshold float64
	margin    float64
	ratio     func(a, b string) float64
	logger    *slog.Logger

	// gen counts candidate-set changes; entries are re-evaluated when
	// their stamp falls behind.
	gen uint64

	// candidates is sorted by canonical URL so that equal fuzzy scores
	// always resolve to the lexicographically smallest URL.
	candidates []*candidate
	byURL      map[string]*candidate

	entries map[string]*entry
	byRT    map[string][]*entry

	// pendingURL holds references waiting for a speaker URL to appear.
	pendingURL map[string][]*entry
}

// Option configures a Linker.
type Option func(*Linker)

// WithLogger sets the logger used for link resolution events.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Linker) {
		l.logger = logger
	}
}

// NewLinker creates a linker tuned by the rule set's threshold, margin,
// and similarity metric.
func NewLinker(rules *config.RuleSet, opts ...Option) *Linker {
	ratio := TokenSetRatio
	if rules.Metric == config.MetricTokenSort {
		ratio = TokenSortRatio
	}

	l := &Linker{
		threshold:  rules.FuzzyThreshold,
		margin:     rules.AmbiguityMargin,
		ratio:      ratio,
		logger:     slog.Default(),
		gen:        1,
		byURL:      make(map[string]*candidate),
		entries:    make(map[string]*entry),
		byRT:       make(map[string][]*entry),
		pendingURL: make(map[string][]*entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddSpeaker indexes a speaker and resolves every reference that was
// waiting for its URL. Adding the same URL again refreshes the indexed
// name, which can happen when a revisited profile page was enriched.
func (l *Linker) AddSpeaker(s *model.Speaker) {
	if s == nil || s.CanonicalURL == "" {
		return
	}
	folded := fold(s.Name)

	if c, ok := l.byURL[s.CanonicalURL]; ok {
		c.id, c.name = s.ID, s.Name
		if c.folded != folded {
			c.folded = folded
			l.gen++
		}
		return
	}

	c := &candidate{id: s.ID, url: s.CanonicalURL, name: s.Name, folded: folded}
	l.byURL[c.url] = c
	i := sort.Search(len(l.candidates), func(i int) bool { return l.candidates[i].url >= c.url })
	l.candidates = append(l.candidates, nil)
	copy(l.candidates[i+1:], l.candidates[i:])
	l.candidates[i] = c
	l.gen++

	for _, e := range l.pendingURL[c.url] {
		e.match = &Match{SpeakerID: c.id, SpeakerURL: c.url, SpeakerName: c.name, Score: 1, Exact: true}
		l.logger.Debug("resolved pending participant link",
			"roundtable", e.roundtable, "speaker", c.id)
	}
	delete(l.pendingURL, c.url)
}

// AddParticipants registers a roundtable's participant references in
// page order. References already registered for the roundtable are
// skipped, so re-adding after a page revisit is harmless.
func (l *Linker) AddParticipants(roundtableID string, participants []model.Participant) {
	for _, p := range participants {
		key := roundtableID + "\x00" + p.Key()
		if _, ok := l.entries[key]; ok {
			continue
		}
		e := &entry{roundtable: roundtableID, participant: p}
		l.entries[key] = e
		l.byRT[roundtableID] = append(l.byRT[roundtableID], e)

		if p.URL == "" {
			continue
		}
		if c, ok := l.byURL[p.URL]; ok {
			e.match = &Match{SpeakerID: c.id, SpeakerURL: c.url, SpeakerName: c.name, Score: 1, Exact: true}
		} else {
			l.pendingURL[p.URL] = append(l.pendingURL[p.URL], e)
		}
	}
}

// ResolveName fuzzy-matches a bare display name, the path used for
// discussion post authors. The second return reports that resolution
// failed because two candidates were too close to choose between.
func (l *Linker) ResolveName(name string) (*Match, bool) {
	return l.fuzzy(name)
}

// RoundtableLinks returns the roundtable's participant references in
// page order, resolved against the current speaker index. Unresolved
// references come back as placeholders carrying the display name, or
// the URL when no name was given.
func (l *Linker) RoundtableLinks(roundtableID string) []model.ParticipantLink {
	entries := l.byRT[roundtableID]
	links := make([]model.ParticipantLink, 0, len(entries))
	for _, e := range entries {
		l.refresh(e)
		name := e.participant.Name
		if e.match != nil {
			if name == "" {
				// Read the name off the index, not the match: the
				// speaker may have been enriched since the match was
				// made.
				if c, ok := l.byURL[e.match.SpeakerURL]; ok {
					name = c.name
				} else {
					name = e.match.SpeakerName
				}
			}
			links = append(links, model.ParticipantLink{
				SpeakerID:  e.match.SpeakerID,
				SpeakerURL: e.match.SpeakerURL,
				Name:       name,
				Score:      e.match.Score,
			})
			continue
		}
		if name == "" {
			name = e.participant.URL
		}
		links = append(links, model.ParticipantLink{Name: name, Placeholder: true})
	}
	return links
}

// LinkedSpeakerIDs returns the sorted, deduplicated speaker IDs linked
// to the roundtable.
func (l *Linker) LinkedSpeakerIDs(roundtableID string) []string {
	var ids []string
	for _, ln := range l.RoundtableLinks(roundtableID) {
		if !ln.Placeholder {
			ids = append(ids, ln.SpeakerID)
		}
	}
	return sortUnique(ids)
}

// UnlinkedNames returns the placeholder names of the roundtable's
// unresolved participant references, in page order.
func (l *Linker) UnlinkedNames(roundtableID string) []string {
	var names []string
	for _, ln := range l.RoundtableLinks(roundtableID) {
		if ln.Placeholder {
			names = append(names, ln.Name)
		}
	}
	return names
}

// Graph builds the bidirectional relationship graph for the given
// roundtables. The forward index preserves participant page order; the
// reverse index is sorted for reproducible output.
func (l *Linker) Graph(roundtableIDs []string) *model.RelationGraph {
	g := model.NewRelationGraph()
	for _, rt := range roundtableIDs {
		links := l.RoundtableLinks(rt)
		g.RoundtableSpeakers[rt] = links
		for _, ln := range links {
			if ln.Placeholder {
				continue
			}
			g.SpeakerRoundtables[ln.SpeakerID] = append(g.SpeakerRoundtables[ln.SpeakerID], rt)
		}
	}
	for id, rts := range g.SpeakerRoundtables {
		g.SpeakerRoundtables[id] = sortUnique(rts)
	}
	return g
}

// Ambiguous counts the participant references left unlinked because two
// candidates scored too close together.
func (l *Linker) Ambiguous() int {
	n := 0
	for _, e := range l.entries {
		l.refresh(e)
		if e.ambiguous {
			n++
		}
	}
	return n
}

// Pending counts the participant URLs still waiting for their speaker
// page to be crawled.
func (l *Linker) Pending() int {
	n := 0
	for _, refs := range l.pendingURL {
		n += len(refs)
	}
	return n
}

// refresh re-evaluates a name-only reference when the candidate set has
// changed since its last evaluation. URL references are never touched:
// an exact match cannot be invalidated by later arrivals.
func (l *Linker) refresh(e *entry) {
	if e.participant.URL != "" || e.gen == l.gen {
		return
	}
	e.gen = l.gen
	e.match, e.ambiguous = l.fuzzy(e.participant.Name)
	if e.ambiguous {
		l.logger.Debug("participant name is ambiguous, left unlinked",
			"roundtable", e.roundtable, "name", e.participant.Name)
	}
}

// fuzzy scores a name against every indexed speaker. The best candidate
// wins if its score reaches the threshold; equal best scores resolve to
// the candidate with the smallest canonical URL. When a strictly lower
// runner-up still comes within the margin of the best score the choice
// would be a guess, and the reference is reported ambiguous instead.
func (l *Linker) fuzzy(name string) (*Match, bool) {
	if fold(name) == "" {
		return nil, false
	}

	var best *candidate
	bestScore, second := 0.0, -1.0
	for _, c := range l.candidates {
		if c.folded == "" {
			continue
		}
		s := l.ratio(name, c.name)
		if best == nil {
			best, bestScore = c, s
			continue
		}
		if s > bestScore {
			second = bestScore
			best, bestScore = c, s
		} else if s > second {
			second = s
		}
	}

	if best == nil || bestScore < l.threshold {
		return nil, false
	}
	if second < bestScore && bestScore-second <= l.margin {
		return nil, true
	}
	return &Match{SpeakerID: best.id, SpeakerURL: best.url, SpeakerName: best.name, Score: bestScore}, false
}

// sortUnique sorts ids and drops duplicates in place.
func sortUnique(ids []string) []string {
	sort.Strings(ids)
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			out = append(out, id)
		}
	}
	return out
}
