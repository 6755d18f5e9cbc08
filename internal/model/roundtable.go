package model

import "time"

// Roundtable represents a roundtable event page.
//
// Identity is the canonical event URL. A roundtable may first enter the
// system as a stub: a record created from a reference on another page
// (typically a discussion thread) before the event page itself has been
// fetched. Stubs carry only the canonical URL and slug and are enriched
// in place when the real page arrives; they are never dropped.
type Roundtable struct {
	// ID is the URL slug used in CSV cross references and in the
	// per-roundtable discussion file name.
	ID string `json:"roundtable_id"`

	// CanonicalURL is the canonical event URL and the entity's primary key.
	CanonicalURL string `json:"roundtable_url"`

	// Title is the event title. Empty only while the record is a stub.
	Title string `json:"title"`

	// Description is the event description with whitespace collapsed.
	Description string `json:"description,omitempty"`

	// Date is the event date in ISO-8601 form (YYYY-MM-DD), or the
	// cleaned raw text when no known layout matched, or empty when the
	// page exposes no date.
	Date string `json:"date,omitempty"`

	// Participants holds the raw participant references extracted from
	// the event page: a profile href, a display name, or both.
	// The entity linker resolves these into SpeakerIDs and Unlinked.
	Participants []Participant `json:"-"`

	// SpeakerIDs lists the IDs of confidently linked participant
	// speakers, in participant order with duplicates removed.
	// Populated by the entity linker.
	SpeakerIDs []string `json:"speaker_ids,omitempty"`

	// Unlinked lists participant names that could not be linked to a
	// known speaker with enough confidence. They are kept verbatim as
	// placeholders rather than guessed.
	Unlinked []string `json:"unlinked_participants,omitempty"`

	// PostCount is the number of discussion posts aggregated under this
	// roundtable. Maintained by the aggregate engine.
	PostCount int `json:"post_count"`

	// Stub reports whether this record was created from a reference and
	// its own page has not been processed yet.
	Stub bool `json:"stub,omitempty"`

	// LastSeen records when a page contributing to this record was last
	// processed (UTC).
	LastSeen time.Time `json:"source_last_seen_utc"`
}

// Participant is one raw participant reference on a roundtable page.
// At least one of URL and Name is non-empty.
type Participant struct {
	// URL is the canonical profile href, when the page linked to one.
	URL string `json:"url,omitempty"`

	// Name is the display text of the reference, whitespace-collapsed.
	Name string `json:"name,omitempty"`
}

// Key returns a stable identity for deduplicating participant references
// within one roundtable. URL wins over name because hrefs survive display
// changes.
func (p Participant) Key() string {
	if p.URL != "" {
		return "url:" + p.URL
	}
	return "name:" + p.Name
}

// Clone returns a deep copy of the roundtable.
func (r *Roundtable) Clone() Roundtable {
	out := *r
	out.Participants = append([]Participant(nil), r.Participants...)
	out.SpeakerIDs = append([]string(nil), r.SpeakerIDs...)
	out.Unlinked = append([]string(nil), r.Unlinked...)
	return out
}
