package link

import (
	"reflect"
	"testing"

	"github.com/nao1215/sitesift/internal/config"
	"github.com/nao1215/sitesift/internal/model"
)

// newTestLinker creates a linker with the given tuning and the token_set
// metric.
func newTestLinker(threshold, margin float64) *Linker {
	return NewLinker(&config.RuleSet{
		FuzzyThreshold:  threshold,
		AmbiguityMargin: margin,
		Metric:          config.MetricTokenSet,
	})
}

// speaker builds a minimal speaker for linker tests.
func speaker(id, url, name string) *model.Speaker {
	return &model.Speaker{ID: id, CanonicalURL: url, Name: name}
}

// TestLinkerExactURLMatch tests the URL phase when the speaker arrives
// before the roundtable referencing it.
func TestLinkerExactURLMatch(t *testing.T) {
	t.Parallel()

	l := newTestLinker(0.85, 0.05)
	l.AddSpeaker(speaker("amy", "https://example.com/speakers/amy", "Amy Lin"))
	l.AddParticipants("ai-ethics", []model.Participant{{URL: "https://example.com/speakers/amy"}})

	links := l.RoundtableLinks("ai-ethics")
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	want := model.ParticipantLink{SpeakerID: "amy", SpeakerURL: "https://example.com/speakers/amy", Name: "Amy Lin", Score: 1}
	if links[0] != want {
		t.Errorf("link = %+v, want %+v", links[0], want)
	}

	if got := l.LinkedSpeakerIDs("ai-ethics"); !reflect.DeepEqual(got, []string{"amy"}) {
		t.Errorf("linked speaker IDs = %v", got)
	}
}

// TestLinkerPendingURLResolved tests that a participant URL seen before
// its speaker page is linked the moment the speaker arrives.
func TestLinkerPendingURLResolved(t *testing.T) {
	t.Parallel()

	l := newTestLinker(0.85, 0.05)
	l.AddParticipants("ai-ethics", []model.Participant{{URL: "https://example.com/speakers/amy"}})

	links := l.RoundtableLinks("ai-ethics")
	if len(links) != 1 || !links[0].Placeholder {
		t.Fatalf("expected an unresolved placeholder, got %+v", links)
	}
	if links[0].Name != "https://example.com/speakers/amy" {
		t.Errorf("placeholder without a name should carry the URL, got %q", links[0].Name)
	}
	if got := l.Pending(); got != 1 {
		t.Errorf("pending = %d, want 1", got)
	}

	l.AddSpeaker(speaker("amy", "https://example.com/speakers/amy", "Amy Lin"))

	links = l.RoundtableLinks("ai-ethics")
	if links[0].Placeholder || links[0].SpeakerID != "amy" || links[0].Score != 1 {
		t.Errorf("expected an exact link after the speaker arrived, got %+v", links[0])
	}
	if links[0].Name != "Amy Lin" {
		t.Errorf("expected the speaker's name on the link, got %q", links[0].Name)
	}
	if got := l.Pending(); got != 0 {
		t.Errorf("pending = %d, want 0", got)
	}
}

// TestLinkerFuzzyMatch tests the name fallback for participants listed
// without a profile URL.
func TestLinkerFuzzyMatch(t *testing.T) {
	t.Parallel()

	l := newTestLinker(0.85, 0.05)
	l.AddSpeaker(speaker("amy", "https://example.com/speakers/amy", "Amy Lin"))
	l.AddSpeaker(speaker("bob", "https://example.com/speakers/bob", "Bob Reyes"))
	l.AddParticipants("ai-ethics", []model.Participant{{Name: "Lin, Amy"}})

	links := l.RoundtableLinks("ai-ethics")
	if len(links) != 1 || links[0].Placeholder {
		t.Fatalf("expected a fuzzy link, got %+v", links)
	}
	if links[0].SpeakerID != "amy" || links[0].Score != 1 {
		t.Errorf("link = %+v", links[0])
	}
	if links[0].Name != "Lin, Amy" {
		t.Errorf("fuzzy link should keep the page's display name, got %q", links[0].Name)
	}
}

// TestLinkerThresholdBoundary tests that a score exactly at the
// threshold is accepted and one just below is not.
func TestLinkerThresholdBoundary(t *testing.T) {
	t.Parallel()

	// TokenSetRatio("Amy Li", "Amy Lin") is exactly 1 - 1/7.
	score := 1 - 1.0/7

	t.Run("at the threshold", func(t *testing.T) {
		t.Parallel()

		l := newTestLinker(score, 0.05)
		l.AddSpeaker(speaker("amy", "https://example.com/speakers/amy", "Amy Lin"))
		l.AddParticipants("rt", []model.Participant{{Name: "Amy Li"}})

		links := l.RoundtableLinks("rt")
		if links[0].Placeholder {
			t.Errorf("a score at the threshold must link, got %+v", links[0])
		}
	})

	t.Run("below the threshold", func(t *testing.T) {
		t.Parallel()

		l := newTestLinker(score+0.001, 0.05)
		l.AddSpeaker(speaker("amy", "https://example.com/speakers/amy", "Amy Lin"))
		l.AddParticipants("rt", []model.Participant{{Name: "Amy Li"}})

		links := l.RoundtableLinks("rt")
		if !links[0].Placeholder {
			t.Errorf("a score below the threshold must not link, got %+v", links[0])
		}
		if got := l.Ambiguous(); got != 0 {
			t.Errorf("below-threshold is not ambiguity, got %d", got)
		}
	})
}

// TestLinkerAmbiguityMargin tests that a runner-up within the margin
// blocks the link while one outside it does not.
func TestLinkerAmbiguityMargin(t *testing.T) {
	t.Parallel()

	// "Amy Li" scores 1-1/7 against "Amy Lin" and 0.75 against
	// "Amy Line": the gap is about 0.107.
	addAll := func(l *Linker) {
		l.AddSpeaker(speaker("lin", "https://example.com/speakers/lin", "Amy Lin"))
		l.AddSpeaker(speaker("line", "https://example.com/speakers/line", "Amy Line"))
		l.AddParticipants("rt", []model.Participant{{Name: "Amy Li"}})
	}

	t.Run("runner-up inside the margin", func(t *testing.T) {
		t.Parallel()

		l := newTestLinker(0.85, 0.12)
		addAll(l)

		links := l.RoundtableLinks("rt")
		if !links[0].Placeholder {
			t.Errorf("expected an ambiguous placeholder, got %+v", links[0])
		}
		if got := l.Ambiguous(); got != 1 {
			t.Errorf("ambiguous = %d, want 1", got)
		}
	})

	t.Run("runner-up outside the margin", func(t *testing.T) {
		t.Parallel()

		l := newTestLinker(0.85, 0.10)
		addAll(l)

		links := l.RoundtableLinks("rt")
		if links[0].Placeholder || links[0].SpeakerID != "lin" {
			t.Errorf("expected a link to lin, got %+v", links[0])
		}
		if got := l.Ambiguous(); got != 0 {
			t.Errorf("ambiguous = %d, want 0", got)
		}
	})
}

// TestLinkerEqualScoresTieBreak tests that equal best scores resolve to
// the lexicographically smallest canonical URL instead of ambiguity.
func TestLinkerEqualScoresTieBreak(t *testing.T) {
	t.Parallel()

	l := newTestLinker(0.85, 0.2)
	l.AddSpeaker(speaker("amy-b", "https://example.com/speakers/b-amy", "Lin Amy"))
	l.AddSpeaker(speaker("amy-a", "https://example.com/speakers/a-amy", "Amy Lin"))
	l.AddParticipants("rt", []model.Participant{{Name: "Amy Lin"}})

	links := l.RoundtableLinks("rt")
	if links[0].Placeholder {
		t.Fatalf("equal scores must tie-break, not block: %+v", links[0])
	}
	if links[0].SpeakerID != "amy-a" {
		t.Errorf("tie must go to the smallest URL, got %q", links[0].SpeakerID)
	}
	if got := l.Ambiguous(); got != 0 {
		t.Errorf("ambiguous = %d, want 0", got)
	}
}

// TestLinkerRefinesOnNewSpeakers tests that an unresolvable name links
// once a matching speaker page is crawled.
func TestLinkerRefinesOnNewSpeakers(t *testing.T) {
	t.Parallel()

	l := newTestLinker(0.85, 0.05)
	l.AddParticipants("rt", []model.Participant{{Name: "Amy Lin"}})

	if links := l.RoundtableLinks("rt"); !links[0].Placeholder {
		t.Fatalf("expected a placeholder before any speakers, got %+v", links[0])
	}

	l.AddSpeaker(speaker("amy", "https://example.com/speakers/amy", "Amy Lin"))

	if links := l.RoundtableLinks("rt"); links[0].SpeakerID != "amy" {
		t.Errorf("expected the link to appear, got %+v", links[0])
	}
}

// TestLinkerOrderIndependence tests that the final graph does not
// depend on the order entities were discovered in.
func TestLinkerOrderIndependence(t *testing.T) {
	t.Parallel()

	steps := map[string]func(l *Linker){
		"amy": func(l *Linker) {
			l.AddSpeaker(speaker("amy", "https://example.com/speakers/amy", "Amy Lin"))
		},
		"bob": func(l *Linker) {
			l.AddSpeaker(speaker("bob", "https://example.com/speakers/bob", "Bob Reyes"))
		},
		"r1": func(l *Linker) {
			l.AddParticipants("r1", []model.Participant{
				{URL: "https://example.com/speakers/bob"},
				{Name: "Amy Lin"},
			})
		},
		"r2": func(l *Linker) {
			l.AddParticipants("r2", []model.Participant{
				{Name: "Amy Lin"},
				{Name: "Nobody Known"},
			})
		},
	}
	orders := [][]string{
		{"amy", "bob", "r1", "r2"},
		{"r1", "r2", "amy", "bob"},
		{"r1", "amy", "r2", "bob"},
		{"bob", "r2", "r1", "amy"},
	}

	var first *model.RelationGraph
	for _, order := range orders {
		l := newTestLinker(0.85, 0.05)
		for _, name := range order {
			steps[name](l)
		}
		g := l.Graph([]string{"r1", "r2"})
		if first == nil {
			first = g
			continue
		}
		if !reflect.DeepEqual(g, first) {
			t.Errorf("graph for order %v differs:\n got %+v\nwant %+v", order, g, first)
		}
	}

	if got := first.SpeakerRoundtables["amy"]; !reflect.DeepEqual(got, []string{"r1", "r2"}) {
		t.Errorf("reverse index = %v, want [r1 r2]", got)
	}
	if len(first.RoundtableSpeakers["r2"]) != 2 || !first.RoundtableSpeakers["r2"][1].Placeholder {
		t.Errorf("unknown participant must stay a placeholder: %+v", first.RoundtableSpeakers["r2"])
	}
}

// TestLinkerResolveName tests author resolution by bare display name.
func TestLinkerResolveName(t *testing.T) {
	t.Parallel()

	l := newTestLinker(0.85, 0.12)
	l.AddSpeaker(speaker("lin", "https://example.com/speakers/lin", "Amy Lin"))
	l.AddSpeaker(speaker("line", "https://example.com/speakers/line", "Amy Line"))

	t.Run("resolves a known name", func(t *testing.T) {
		t.Parallel()

		m, ambiguous := l.ResolveName("Lin, Amy")
		if m == nil || ambiguous {
			t.Fatalf("expected a match, got %v (ambiguous=%v)", m, ambiguous)
		}
		if m.SpeakerID != "lin" {
			t.Errorf("speaker = %q, want lin", m.SpeakerID)
		}
	})

	t.Run("unknown name does not resolve", func(t *testing.T) {
		t.Parallel()

		if m, ambiguous := l.ResolveName("Nobody Known"); m != nil || ambiguous {
			t.Errorf("expected no match, got %v (ambiguous=%v)", m, ambiguous)
		}
	})

	t.Run("near-equal candidates are ambiguous", func(t *testing.T) {
		t.Parallel()

		if m, ambiguous := l.ResolveName("Amy Li"); m != nil || !ambiguous {
			t.Errorf("expected ambiguity, got %v (ambiguous=%v)", m, ambiguous)
		}
	})
}

// TestLinkerDuplicateParticipants tests that re-registering participants
// and multiple references to one speaker do not produce duplicates.
func TestLinkerDuplicateParticipants(t *testing.T) {
	t.Parallel()

	l := newTestLinker(0.85, 0.05)
	l.AddSpeaker(speaker("amy", "https://example.com/speakers/amy", "Amy Lin"))

	ps := []model.Participant{
		{URL: "https://example.com/speakers/amy"},
		{Name: "Amy Lin"},
	}
	l.AddParticipants("rt", ps)
	l.AddParticipants("rt", ps)

	if links := l.RoundtableLinks("rt"); len(links) != 2 {
		t.Errorf("re-registration must not duplicate references, got %d", len(links))
	}
	if got := l.LinkedSpeakerIDs("rt"); !reflect.DeepEqual(got, []string{"amy"}) {
		t.Errorf("linked speaker IDs = %v, want [amy]", got)
	}
}

// TestLinkerUnlinkedNames tests the placeholder name listing.
func TestLinkerUnlinkedNames(t *testing.T) {
	t.Parallel()

	l := newTestLinker(0.85, 0.05)
	l.AddParticipants("rt", []model.Participant{
		{Name: "Nobody Known"},
		{URL: "https://example.com/speakers/ghost"},
	})

	want := []string{"Nobody Known", "https://example.com/speakers/ghost"}
	if got := l.UnlinkedNames("rt"); !reflect.DeepEqual(got, want) {
		t.Errorf("unlinked = %v, want %v", got, want)
	}
}
