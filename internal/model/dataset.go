package model

import (
	"sort"
	"time"
)

// Dataset is a consistent snapshot of all aggregated entities, ready for
// emission. Speaker and roundtable slices are sorted by entity ID so two
// snapshots of the same state serialize byte-identically; post slices
// keep their discovery order.
type Dataset struct {
	Speakers    []Speaker
	Roundtables []Roundtable

	// Posts maps roundtable ID to that roundtable's posts, in the order
	// they were discovered.
	Posts map[string][]DiscussionPost

	// GeneratedAt is the snapshot time (UTC).
	GeneratedAt time.Time
}

// Sort orders speakers and roundtables by ID. Posts are append-only and
// stay in discovery order.
func (d *Dataset) Sort() {
	sort.Slice(d.Speakers, func(i, j int) bool { return d.Speakers[i].ID < d.Speakers[j].ID })
	sort.Slice(d.Roundtables, func(i, j int) bool { return d.Roundtables[i].ID < d.Roundtables[j].ID })
}

// RoundtableIDs returns the sorted roundtable IDs present in the dataset.
func (d *Dataset) RoundtableIDs() []string {
	ids := make([]string, 0, len(d.Roundtables))
	for _, r := range d.Roundtables {
		ids = append(ids, r.ID)
	}
	sort.Strings(ids)
	return ids
}

// PostTotal returns the number of posts across all roundtables.
func (d *Dataset) PostTotal() int {
	n := 0
	for _, posts := range d.Posts {
		n += len(posts)
	}
	return n
}

// ParticipantLink records how one participant reference on a roundtable
// page was resolved.
type ParticipantLink struct {
	// SpeakerID is the linked speaker's ID, empty for placeholders.
	SpeakerID string

	// SpeakerURL is the linked speaker's canonical profile URL.
	SpeakerURL string

	// Name is the participant's display name as it appeared on the page.
	Name string

	// Placeholder reports that no confident link was found and Name is
	// carried verbatim.
	Placeholder bool

	// Score is the similarity score of the winning fuzzy match in
	// [0, 1], or 1 for exact URL matches, or 0 for placeholders.
	Score float64
}

// RelationGraph holds the bidirectional speaker/roundtable relationships
// produced by the entity linker. Keys are entity IDs.
type RelationGraph struct {
	// RoundtableSpeakers maps roundtable ID to its resolved participant
	// links, in participant order.
	RoundtableSpeakers map[string][]ParticipantLink

	// SpeakerRoundtables maps speaker ID to the sorted IDs of
	// roundtables the speaker participates in.
	SpeakerRoundtables map[string][]string
}

// NewRelationGraph returns an empty graph with both maps initialized.
func NewRelationGraph() *RelationGraph {
	return &RelationGraph{
		RoundtableSpeakers: make(map[string][]ParticipantLink),
		SpeakerRoundtables: make(map[string][]string),
	}
}
