package aggregate

import (
	"reflect"
	"testing"
	"time"

	"github.com/nao1215/sitesift/internal/model"
)

// TestMergeSpeaker tests latest-wins scalars and list union.
func TestMergeSpeaker(t *testing.T) {
	t.Parallel()

	older := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	dst := &model.Speaker{
		Name:        "Amy Lin",
		Bio:         "Old bio.",
		Title:       "Researcher",
		SocialLinks: []string{"https://social.example/amy"},
		LastSeen:    older,
	}
	src := &model.Speaker{
		Name:        "Amy Lin",
		Bio:         "New bio.",
		SocialLinks: []string{"https://feeds.example/amy.xml"},
		LastSeen:    newer,
	}

	mergeSpeaker(dst, src)

	if dst.Bio != "New bio." {
		t.Errorf("scalar did not take the latest value: %q", dst.Bio)
	}
	if dst.Title != "Researcher" {
		t.Errorf("empty incoming value must not erase the stored one: %q", dst.Title)
	}
	wantLinks := []string{"https://feeds.example/amy.xml", "https://social.example/amy"}
	if !reflect.DeepEqual(dst.SocialLinks, wantLinks) {
		t.Errorf("social links = %v, want %v", dst.SocialLinks, wantLinks)
	}
	if !dst.LastSeen.Equal(newer) {
		t.Errorf("last seen = %v, want %v", dst.LastSeen, newer)
	}
}

// TestMergeRoundtable tests stub enrichment and participant union.
func TestMergeRoundtable(t *testing.T) {
	t.Parallel()

	dst := &model.Roundtable{
		ID:           "ai-ethics",
		CanonicalURL: "https://example.com/roundtables/ai-ethics",
		Stub:         true,
		Participants: []model.Participant{{URL: "https://example.com/speakers/amy"}},
	}
	src := &model.Roundtable{
		ID:           "ai-ethics",
		CanonicalURL: "https://example.com/roundtables/ai-ethics",
		Title:        "AI Ethics",
		Date:         "2026-03-01",
		Participants: []model.Participant{
			{URL: "https://example.com/speakers/amy"},
			{Name: "Bob Reyes"},
		},
	}

	mergeRoundtable(dst, src)

	if dst.Stub {
		t.Error("a real page must clear the stub flag")
	}
	if dst.Title != "AI Ethics" {
		t.Errorf("title = %q", dst.Title)
	}
	want := []model.Participant{
		{URL: "https://example.com/speakers/amy"},
		{Name: "Bob Reyes"},
	}
	if !reflect.DeepEqual(dst.Participants, want) {
		t.Errorf("participants = %v, want %v", dst.Participants, want)
	}
}

// TestPostIdentity tests that explicit IDs key globally and sequence
// numbers are scoped by permalink.
func TestPostIdentity(t *testing.T) {
	t.Parallel()

	withID := model.DiscussionPost{PostID: "p-7", Seq: 2, Permalink: "https://example.com/x"}
	if got := postIdentity(withID); got != "id:p-7" {
		t.Errorf("identity = %q, want id:p-7", got)
	}

	pageOne := model.DiscussionPost{Seq: 1, Permalink: "https://example.com/rt/discussion"}
	pageTwo := model.DiscussionPost{Seq: 1, Permalink: "https://example.com/rt/discussion/page/2"}
	if postIdentity(pageOne) == postIdentity(pageTwo) {
		t.Error("posts with equal sequence numbers on different pages must not collide")
	}
	if postIdentity(pageOne) != postIdentity(pageOne) {
		t.Error("identity must be stable")
	}
}
