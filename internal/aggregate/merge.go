package aggregate

import (
	"sort"

	"github.com/nao1215/sitesift/internal/model"
)

// mergeSpeaker folds a newly normalized speaker into the stored record.
// Scalars follow latest-wins; list fields are unioned.
func mergeSpeaker(dst, src *model.Speaker) {
	dst.Name = latest(dst.Name, src.Name)
	dst.Bio = latest(dst.Bio, src.Bio)
	dst.Title = latest(dst.Title, src.Title)
	dst.Organization = latest(dst.Organization, src.Organization)
	dst.HeadshotURL = latest(dst.HeadshotURL, src.HeadshotURL)
	dst.SocialLinks = unionSorted(dst.SocialLinks, src.SocialLinks)
	dst.LastSeen = src.LastSeen
}

// mergeRoundtable folds a newly normalized roundtable into the stored
// record. A stub stays a stub only until any real page for the identity
// arrives. Participant references are unioned in first-seen order so
// the linker's page ordering stays stable across revisits.
func mergeRoundtable(dst, src *model.Roundtable) {
	dst.Title = latest(dst.Title, src.Title)
	dst.Description = latest(dst.Description, src.Description)
	dst.Date = latest(dst.Date, src.Date)
	dst.Stub = dst.Stub && src.Stub
	dst.LastSeen = src.LastSeen

	seen := make(map[string]bool, len(dst.Participants))
	for _, p := range dst.Participants {
		seen[p.Key()] = true
	}
	for _, p := range src.Participants {
		if k := p.Key(); !seen[k] {
			seen[k] = true
			dst.Participants = append(dst.Participants, p)
		}
	}
}

// postIdentity keys a post for deduplication. Explicit post IDs
// identify a post across the whole roundtable; sequence numbers only
// identify one within its own page, so the permalink (which falls back
// to the page URL) scopes them.
func postIdentity(p model.DiscussionPost) string {
	key := p.IdentityKey()
	if p.PostID == "" {
		key = p.Permalink + "\x00" + key
	}
	return key
}

// latest returns incoming unless it is empty. Merging is latest-wins on
// conflicting scalars; an empty incoming value is absence, not a
// conflict, and keeps the stored value.
func latest(current, incoming string) string {
	if incoming != "" {
		return incoming
	}
	return current
}

// unionSorted merges two lists into their sorted distinct union.
func unionSorted(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	merged := make([]string, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	sort.Strings(merged)

	out := merged[:0]
	for i, v := range merged {
		if i == 0 || v != merged[i-1] {
			out = append(out, v)
		}
	}
	return out
}
