package model

import "fmt"

// PageType classifies a fetched page by the kind of entity it describes.
// Classification is determined solely by URL shape (see the classify
// package); the markup itself is never consulted.
type PageType string

// Page types recognized by the pipeline.
//
// The zero value of PageType is intentionally not a valid type: a missing
// or unparsable value must never silently classify as anything.
const (
	// PageTypeSpeaker is a speaker profile page.
	PageTypeSpeaker PageType = "speaker"

	// PageTypeRoundtable is a roundtable event page.
	PageTypeRoundtable PageType = "roundtable"

	// PageTypeDiscussion is a discussion thread page belonging to a roundtable.
	PageTypeDiscussion PageType = "discussion"

	// PageTypeUnknown marks a URL that matched no configured pattern.
	// Unknown pages are counted and skipped, never extracted.
	PageTypeUnknown PageType = "unknown"
)

// String returns the page type as a string.
func (t PageType) String() string {
	return string(t)
}

// Valid reports whether t is one of the recognized page types.
// PageTypeUnknown is valid: it is a legitimate classification result,
// just not one that carries extraction rules.
func (t PageType) Valid() bool {
	switch t {
	case PageTypeSpeaker, PageTypeRoundtable, PageTypeDiscussion, PageTypeUnknown:
		return true
	}
	return false
}

// Extractable reports whether pages of this type carry selector rules.
// Only extractable pages flow past the router into the extractor.
func (t PageType) Extractable() bool {
	switch t {
	case PageTypeSpeaker, PageTypeRoundtable, PageTypeDiscussion:
		return true
	}
	return false
}

// ParsePageType converts a string into a PageType.
// It returns an error for anything that is not a recognized type so that
// typos in configuration files fail at load time, not mid-run.
func ParsePageType(s string) (PageType, error) {
	t := PageType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown page type %q (want speaker, roundtable, discussion, or unknown)", s)
	}
	return t, nil
}
