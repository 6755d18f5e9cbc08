package model

import (
	"strconv"
	"time"
)

// DiscussionPost is one post in a roundtable discussion thread.
//
// Posts are append-only: once aggregated they are never modified, only
// deduplicated. Identity is (roundtable, post id) when the page exposes a
// stable post id, and (roundtable, sequence number) otherwise.
type DiscussionPost struct {
	// ID is the post's identity within the dataset, "<roundtable>-<seq>"
	// or the page's own post id when it exposes one.
	ID string `json:"discussion_id"`

	// RoundtableID is the slug of the roundtable this thread belongs to.
	RoundtableID string `json:"roundtable_id"`

	// RoundtableURL is the canonical URL of the owning roundtable.
	RoundtableURL string `json:"-"`

	// Seq is the 1-based position of the post within its page, in
	// document order. Used for identity when PostID is empty.
	Seq int `json:"seq"`

	// PostID is the page's own stable post identifier, when present.
	PostID string `json:"post_id,omitempty"`

	// ThreadTitle is the discussion thread's title.
	ThreadTitle string `json:"thread_title,omitempty"`

	// AuthorName is the post author's display name as extracted.
	AuthorName string `json:"author_name,omitempty"`

	// AuthorSpeakerID is the ID of the speaker the author name resolved
	// to, or empty when the linker found no confident match.
	AuthorSpeakerID string `json:"author_speaker_id,omitempty"`

	// PostedAt is the post timestamp in ISO-8601 form when a known
	// layout matched, otherwise the cleaned raw text.
	PostedAt string `json:"posted_at,omitempty"`

	// Content is the post body text with whitespace collapsed.
	Content string `json:"content_text"`

	// Permalink is the canonical direct link to the post, when the page
	// provides one.
	Permalink string `json:"permalink,omitempty"`

	// LastSeen records when the page carrying this post was last
	// processed (UTC).
	LastSeen time.Time `json:"source_last_seen_utc"`
}

// IdentityKey returns the dedup key for the post within its roundtable:
// the stable post id when present, otherwise the sequence number.
func (p *DiscussionPost) IdentityKey() string {
	if p.PostID != "" {
		return "id:" + p.PostID
	}
	return "seq:" + strconv.Itoa(p.Seq)
}
