package normalize

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nao1215/sitesift/internal/model"
)

// Record rejection errors.
// A record missing its critical field cannot be keyed or linked, so it is
// dropped. Callers count these per the non-fatal failure policy; they
// never abort a run.
var (
	// ErrMissingName is returned when a speaker page yields no display name.
	ErrMissingName = errors.New("speaker has no name")

	// ErrMissingTitle is returned when a roundtable page yields no title.
	ErrMissingTitle = errors.New("roundtable has no title")
)

// Well-known rule names the normalizer reads from extracted fields:
//
//	speaker:    name, bio, title, organization, headshot_url, social_links
//	roundtable: title, description, date, participant_urls,
//	            participant_names; items: url, name
//	discussion: thread_title, roundtable_url; items: post_id, author_name,
//	            posted_at, content_text, permalink
//
// Rules with other names are extracted but ignored here, so a config can
// carry extra fields without breaking normalization.

// Normalizer turns raw extracted fields into typed entities keyed by
// canonical URL. URL-valued fields arrive absolute (the extractor
// resolves them against the page URL); the normalizer canonicalizes only
// the ones used as identities — the page URL, participant profile URLs,
// and the discussion's roundtable reference. Asset URLs (headshots,
// permalinks) keep their fragments and queries.
type Normalizer struct {
	canon *Canonicalizer
}

// NewNormalizer creates a normalizer using the given canonicalizer.
func NewNormalizer(canon *Canonicalizer) *Normalizer {
	return &Normalizer{canon: canon}
}

// Canonicalize exposes the underlying URL canonicalization.
func (n *Normalizer) Canonicalize(raw string) string {
	return n.canon.Canonicalize(raw)
}

// Speaker builds a speaker entity from a speaker page's fields.
// The display name is the critical field: without it the record is
// rejected with ErrMissingName. Everything else defaults to empty.
func (n *Normalizer) Speaker(pageURL string, fields model.RawFields) (*model.Speaker, error) {
	name := CollapseSpace(fields.First("name"))
	if name == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingName, pageURL)
	}

	canonical := n.canon.Canonicalize(pageURL)
	return &model.Speaker{
		ID:           Slug(canonical),
		CanonicalURL: canonical,
		Name:         name,
		Bio:          CollapseSpace(fields.First("bio")),
		Title:        CollapseSpace(fields.First("title")),
		Organization: CollapseSpace(fields.First("organization")),
		HeadshotURL:  CollapseSpace(fields.First("headshot_url")),
		SocialLinks:  uniqueSorted(fields.All("social_links")),
	}, nil
}

// Roundtable builds a roundtable entity from an event page's fields.
// The title is the critical field. Participant references are collected
// from item rules (richest: URL and name per node), then participant_urls,
// then participant_names, deduplicated by reference identity. Profile
// URLs are canonicalized so the linker can match them to speaker
// identities exactly.
func (n *Normalizer) Roundtable(pageURL string, fields model.RawFields, items []model.RawFields) (*model.Roundtable, error) {
	title := CollapseSpace(fields.First("title"))
	if title == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingTitle, pageURL)
	}

	canonical := n.canon.Canonicalize(pageURL)
	rt := &model.Roundtable{
		ID:           Slug(canonical),
		CanonicalURL: canonical,
		Title:        title,
		Description:  CollapseSpace(fields.First("description")),
		Date:         Date(fields.First("date")),
	}

	seen := make(map[string]bool)
	add := func(p model.Participant) {
		if p.URL == "" && p.Name == "" {
			return
		}
		if k := p.Key(); !seen[k] {
			seen[k] = true
			rt.Participants = append(rt.Participants, p)
		}
	}

	for _, item := range items {
		p := model.Participant{Name: CollapseSpace(item.First("name"))}
		if u := item.First("url"); u != "" {
			p.URL = n.canon.Canonicalize(u)
		}
		add(p)
	}
	for _, u := range fields.All("participant_urls") {
		if u != "" {
			add(model.Participant{URL: n.canon.Canonicalize(u)})
		}
	}
	for _, name := range fields.All("participant_names") {
		add(model.Participant{Name: CollapseSpace(name)})
	}

	return rt, nil
}

// Discussion is the normalized form of one discussion page: the
// roundtable it belongs to and its posts in document order.
type Discussion struct {
	// RoundtableURL is the canonical URL of the owning roundtable. The
	// aggregate engine creates a stub roundtable under this identity if
	// its page has not been processed yet.
	RoundtableURL string

	// RoundtableID is the owning roundtable's slug.
	RoundtableID string

	// ThreadTitle is the thread title shared by the page's posts.
	ThreadTitle string

	// Posts holds the page's posts in document order, sequence numbers
	// assigned 1-based over the matched nodes.
	Posts []model.DiscussionPost

	// Skipped counts post nodes dropped for having no content.
	Skipped int
}

// Discussion builds the posts of a discussion page.
// The owning roundtable is taken from the roundtable_url field when the
// page links to it, otherwise from the parent path of the page URL.
// Sequence numbers follow document order across all matched nodes,
// including skipped ones, so a post keeps its number when a neighbor is
// filtered out.
func (n *Normalizer) Discussion(pageURL string, fields model.RawFields, items []model.RawFields) *Discussion {
	pageCanonical := n.canon.Canonicalize(pageURL)

	rtURL := ""
	if raw := fields.First("roundtable_url"); raw != "" {
		rtURL = n.canon.Canonicalize(raw)
	}
	if rtURL == "" || rtURL == pageCanonical {
		rtURL = ParentURL(pageCanonical)
	}

	d := &Discussion{
		RoundtableURL: rtURL,
		RoundtableID:  Slug(rtURL),
		ThreadTitle:   CollapseSpace(fields.First("thread_title")),
	}

	for i, item := range items {
		seq := i + 1
		content := CollapseSpace(item.First("content_text"))
		if content == "" {
			d.Skipped++
			continue
		}

		post := model.DiscussionPost{
			RoundtableID:  d.RoundtableID,
			RoundtableURL: d.RoundtableURL,
			Seq:           seq,
			PostID:        CollapseSpace(item.First("post_id")),
			ThreadTitle:   d.ThreadTitle,
			AuthorName:    CollapseSpace(item.First("author_name")),
			PostedAt:      Timestamp(item.First("posted_at")),
			Content:       content,
		}
		if post.PostID != "" {
			post.ID = post.PostID
		} else {
			post.ID = fmt.Sprintf("%s-%d", d.RoundtableID, seq)
		}

		// Permalinks keep their fragments; canonicalizing would erase
		// the #post anchor that makes them permalinks.
		if permalink := CollapseSpace(item.First("permalink")); permalink != "" {
			post.Permalink = permalink
		} else {
			post.Permalink = pageCanonical
		}

		d.Posts = append(d.Posts, post)
	}

	return d
}

// uniqueSorted returns the distinct non-empty values, trimmed and sorted.
func uniqueSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = CollapseSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
