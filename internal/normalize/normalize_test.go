package normalize

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nao1215/sitesift/internal/model"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()

	canon, err := NewCanonicalizer("https://example.com", false)
	if err != nil {
		t.Fatalf("failed to create canonicalizer: %v", err)
	}
	return NewNormalizer(canon)
}

// TestNormalizerSpeaker tests speaker entity construction.
func TestNormalizerSpeaker(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer(t)

	t.Run("builds speaker with canonical identity and slug", func(t *testing.T) {
		t.Parallel()

		fields := model.RawFields{
			"name":         {"  Amy   Lin  "},
			"bio":          {"Researcher.\n  Works on  ethics."},
			"title":        {"Principal Researcher"},
			"organization": {"Example Lab"},
			"headshot_url": {"https://example.com/img/amy.jpg"},
			"social_links": {"https://social.example/amy", "https://social.example/amy", "https://blog.example/amy"},
		}

		sp, err := n.Speaker("https://EXAMPLE.com/speakers/amy-lin/", fields)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if sp.CanonicalURL != "https://example.com/speakers/amy-lin" {
			t.Errorf("unexpected canonical URL: %q", sp.CanonicalURL)
		}
		if sp.ID != "amy-lin" {
			t.Errorf("unexpected ID: %q", sp.ID)
		}
		if sp.Name != "Amy Lin" {
			t.Errorf("whitespace not collapsed in name: %q", sp.Name)
		}
		if sp.Bio != "Researcher. Works on ethics." {
			t.Errorf("whitespace not collapsed in bio: %q", sp.Bio)
		}

		wantLinks := []string{"https://blog.example/amy", "https://social.example/amy"}
		if !reflect.DeepEqual(sp.SocialLinks, wantLinks) {
			t.Errorf("social links = %v, expected sorted unique %v", sp.SocialLinks, wantLinks)
		}
	})

	t.Run("missing name returns ErrMissingName", func(t *testing.T) {
		t.Parallel()

		_, err := n.Speaker("https://example.com/speakers/ghost", model.RawFields{"bio": {"text"}})
		if !errors.Is(err, ErrMissingName) {
			t.Errorf("expected ErrMissingName, got %v", err)
		}
	})

	t.Run("whitespace-only name returns ErrMissingName", func(t *testing.T) {
		t.Parallel()

		_, err := n.Speaker("https://example.com/speakers/ghost", model.RawFields{"name": {"   \n "}})
		if !errors.Is(err, ErrMissingName) {
			t.Errorf("expected ErrMissingName, got %v", err)
		}
	})

	t.Run("absent fields stay empty strings", func(t *testing.T) {
		t.Parallel()

		sp, err := n.Speaker("https://example.com/speakers/amy", model.RawFields{"name": {"Amy Lin"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sp.Bio != "" || sp.Title != "" || sp.Organization != "" || sp.HeadshotURL != "" {
			t.Errorf("expected empty optional fields, got %+v", sp)
		}
	})
}

// TestNormalizerRoundtable tests roundtable entity construction.
func TestNormalizerRoundtable(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer(t)

	t.Run("builds roundtable with participants deduplicated", func(t *testing.T) {
		t.Parallel()

		fields := model.RawFields{
			"title":             {"AI Ethics Panel"},
			"description":       {"A  panel   about ethics."},
			"date":              {"March 5, 2026"},
			"participant_urls":  {"https://example.com/speakers/amy/", "https://example.com/speakers/amy"},
			"participant_names": {"Guest  Speaker"},
		}
		items := []model.RawFields{
			{"url": {"https://example.com/speakers/bob"}, "name": {"Bob Reyes"}},
		}

		rt, err := n.Roundtable("https://example.com/roundtables/ai-ethics", fields, items)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rt.ID != "ai-ethics" {
			t.Errorf("unexpected ID: %q", rt.ID)
		}
		if rt.Date != "2026-03-05" {
			t.Errorf("date not normalized: %q", rt.Date)
		}
		if rt.Description != "A panel about ethics." {
			t.Errorf("description not collapsed: %q", rt.Description)
		}

		// bob (item), amy (urls, deduplicated), guest (name)
		if len(rt.Participants) != 3 {
			t.Fatalf("expected 3 participants, got %d: %+v", len(rt.Participants), rt.Participants)
		}
		if rt.Participants[0].URL != "https://example.com/speakers/bob" || rt.Participants[0].Name != "Bob Reyes" {
			t.Errorf("item participant not first: %+v", rt.Participants[0])
		}
		if rt.Participants[1].URL != "https://example.com/speakers/amy" {
			t.Errorf("participant URL not canonicalized: %+v", rt.Participants[1])
		}
		if rt.Participants[2].Name != "Guest Speaker" {
			t.Errorf("name participant not collapsed: %+v", rt.Participants[2])
		}
	})

	t.Run("missing title returns ErrMissingTitle", func(t *testing.T) {
		t.Parallel()

		_, err := n.Roundtable("https://example.com/roundtables/x", model.RawFields{}, nil)
		if !errors.Is(err, ErrMissingTitle) {
			t.Errorf("expected ErrMissingTitle, got %v", err)
		}
	})

	t.Run("unparseable date passes through cleaned", func(t *testing.T) {
		t.Parallel()

		rt, err := n.Roundtable("https://example.com/roundtables/x", model.RawFields{
			"title": {"X"},
			"date":  {"sometime  next spring"},
		}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rt.Date != "sometime next spring" {
			t.Errorf("unexpected date: %q", rt.Date)
		}
	})
}

// TestNormalizerDiscussion tests discussion page normalization.
func TestNormalizerDiscussion(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer(t)

	t.Run("derives roundtable from the roundtable_url field", func(t *testing.T) {
		t.Parallel()

		fields := model.RawFields{
			"thread_title":   {"Opening thread"},
			"roundtable_url": {"https://example.com/roundtables/ai-ethics/"},
		}
		d := n.Discussion("https://example.com/roundtables/ai-ethics/discussion", fields, nil)

		if d.RoundtableURL != "https://example.com/roundtables/ai-ethics" {
			t.Errorf("unexpected roundtable URL: %q", d.RoundtableURL)
		}
		if d.RoundtableID != "ai-ethics" {
			t.Errorf("unexpected roundtable ID: %q", d.RoundtableID)
		}
	})

	t.Run("falls back to the parent path", func(t *testing.T) {
		t.Parallel()

		d := n.Discussion("https://example.com/roundtables/ai-ethics/discussion", model.RawFields{}, nil)
		if d.RoundtableURL != "https://example.com/roundtables/ai-ethics" {
			t.Errorf("unexpected roundtable URL: %q", d.RoundtableURL)
		}
	})

	t.Run("assigns document-order sequence numbers across skipped nodes", func(t *testing.T) {
		t.Parallel()

		items := []model.RawFields{
			{"author_name": {"Amy Lin"}, "content_text": {"First  post"}},
			{"author_name": {"Ghost"}, "content_text": {"   "}},
			{"author_name": {"Bob Reyes"}, "content_text": {"Third post"}, "post_id": {"p-77"}},
		}
		d := n.Discussion("https://example.com/roundtables/ai-ethics/discussion", model.RawFields{}, items)

		if d.Skipped != 1 {
			t.Errorf("expected 1 skipped post, got %d", d.Skipped)
		}
		if len(d.Posts) != 2 {
			t.Fatalf("expected 2 posts, got %d", len(d.Posts))
		}

		first, third := d.Posts[0], d.Posts[1]
		if first.Seq != 1 || third.Seq != 3 {
			t.Errorf("sequence numbers = %d, %d; expected 1, 3", first.Seq, third.Seq)
		}
		if first.ID != "ai-ethics-1" {
			t.Errorf("expected synthesized ID ai-ethics-1, got %q", first.ID)
		}
		if third.ID != "p-77" {
			t.Errorf("expected explicit post ID to win, got %q", third.ID)
		}
		if first.Content != "First post" {
			t.Errorf("content not collapsed: %q", first.Content)
		}
	})

	t.Run("permalink defaults to the page URL", func(t *testing.T) {
		t.Parallel()

		items := []model.RawFields{
			{"content_text": {"a"}, "permalink": {"https://example.com/roundtables/x/discussion#post-1"}},
			{"content_text": {"b"}},
		}
		d := n.Discussion("https://example.com/roundtables/x/discussion/", model.RawFields{}, items)

		if d.Posts[0].Permalink != "https://example.com/roundtables/x/discussion#post-1" {
			t.Errorf("explicit permalink altered: %q", d.Posts[0].Permalink)
		}
		if d.Posts[1].Permalink != "https://example.com/roundtables/x/discussion" {
			t.Errorf("fallback permalink = %q, expected canonical page URL", d.Posts[1].Permalink)
		}
	})

	t.Run("normalizes post timestamps", func(t *testing.T) {
		t.Parallel()

		items := []model.RawFields{
			{"content_text": {"a"}, "posted_at": {"2026-03-05 14:30:00"}},
			{"content_text": {"b"}, "posted_at": {"March 5, 2026"}},
		}
		d := n.Discussion("https://example.com/roundtables/x/discussion", model.RawFields{}, items)

		if d.Posts[0].PostedAt != "2026-03-05T14:30:00Z" {
			t.Errorf("timestamp not normalized: %q", d.Posts[0].PostedAt)
		}
		if d.Posts[1].PostedAt != "2026-03-05" {
			t.Errorf("date-only timestamp = %q, expected 2026-03-05", d.Posts[1].PostedAt)
		}
	})
}

// TestDate tests date coercion layouts.
func TestDate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected string
	}{
		{"2026-03-05", "2026-03-05"},
		{"2026/03/05", "2026-03-05"},
		{"March 5, 2026", "2026-03-05"},
		{"Jan 2, 2026", "2026-01-02"},
		{"5 March 2026", "2026-03-05"},
		{"2026-03-05T14:30:00Z", "2026-03-05"},
		{"", ""},
		{"next   spring", "next spring"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			if got := Date(tc.input); got != tc.expected {
				t.Errorf("Date(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

// TestCollapseSpace tests whitespace collapsing.
func TestCollapseSpace(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected string
	}{
		{"  a  b  ", "a b"},
		{"a\n\tb", "a b"},
		{"", ""},
		{"   ", ""},
		{"plain", "plain"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected+"_case", func(t *testing.T) {
			t.Parallel()
			if got := CollapseSpace(tc.input); got != tc.expected {
				t.Errorf("CollapseSpace(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}
