package model

import "time"

// Speaker represents a speaker profile harvested from the site.
//
// Identity is the canonical profile URL. When the same canonical URL is
// normalized again (the crawl revisited the page, or two raw URLs
// canonicalize to the same form), the aggregate engine merges the records:
// latest non-empty value wins for scalar fields, lists are unioned.
type Speaker struct {
	// ID is the URL slug (last path segment of the canonical URL).
	// It is the human-readable identifier used in CSV cross references.
	ID string `json:"speaker_id"`

	// CanonicalURL is the canonical profile URL and the entity's
	// primary key. Never empty for an emitted speaker.
	CanonicalURL string `json:"profile_url"`

	// Name is the display name. A speaker with no name is rejected at
	// normalization time, so emitted speakers always carry one.
	Name string `json:"name"`

	// Bio is the biography text with whitespace collapsed.
	Bio string `json:"bio,omitempty"`

	// Title is the speaker's role or job title, when the page exposes one.
	Title string `json:"title,omitempty"`

	// Organization is the speaker's affiliation.
	Organization string `json:"organization,omitempty"`

	// HeadshotURL is the absolute URL of the profile image.
	HeadshotURL string `json:"headshot_url,omitempty"`

	// SocialLinks holds absolute social profile URLs, deduplicated and sorted.
	SocialLinks []string `json:"social_links,omitempty"`

	// Roundtables lists the IDs of roundtables this speaker participates
	// in. Populated by the entity linker, never by extraction.
	Roundtables []string `json:"roundtable_ids,omitempty"`

	// LastSeen records when a page contributing to this record was last
	// processed (UTC).
	LastSeen time.Time `json:"source_last_seen_utc"`
}

// Clone returns a deep copy of the speaker.
// Snapshots hand copies to emission so that later merges cannot mutate
// rows already being written.
func (s *Speaker) Clone() Speaker {
	out := *s
	out.SocialLinks = append([]string(nil), s.SocialLinks...)
	out.Roundtables = append([]string(nil), s.Roundtables...)
	return out
}
