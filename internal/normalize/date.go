package normalize

import (
	"strings"
	"time"
)

// Known date layouts, tried in order. Community sites render dates in a
// handful of human formats; anything unrecognized passes through cleaned
// so no information is lost.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02 Jan 2006",
}

// Known timestamp layouts, tried before the date layouts when a time of
// day may be present.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"January 2, 2006 15:04",
	"January 2, 2006 3:04 PM",
	"Jan 2, 2006 3:04 PM",
}

// Date coerces raw date text to ISO-8601 (YYYY-MM-DD).
// Unrecognized text is returned whitespace-collapsed; empty stays empty.
func Date(raw string) string {
	s := CollapseSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// Timestamp coerces raw timestamp text to RFC 3339. Date-only input
// yields the ISO date; unrecognized text is returned whitespace-collapsed.
func Timestamp(raw string) string {
	s := CollapseSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.RFC3339)
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// CollapseSpace trims the string and collapses internal whitespace runs
// (including newlines from markup) to single spaces.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
