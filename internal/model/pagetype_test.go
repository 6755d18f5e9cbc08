package model

import "testing"

// TestPageTypeString tests the String method of PageType.
func TestPageTypeString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		pageType PageType
		expected string
	}{
		{PageTypeSpeaker, "speaker"},
		{PageTypeRoundtable, "roundtable"},
		{PageTypeDiscussion, "discussion"},
		{PageTypeUnknown, "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.pageType.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.pageType.String(), tc.expected)
			}
		})
	}
}

// TestPageTypeValid tests the Valid method of PageType.
func TestPageTypeValid(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		pageType PageType
		expected bool
	}{
		{"speaker is valid", PageTypeSpeaker, true},
		{"roundtable is valid", PageTypeRoundtable, true},
		{"discussion is valid", PageTypeDiscussion, true},
		{"unknown is valid", PageTypeUnknown, true},
		{"empty is invalid", PageType(""), false},
		{"typo is invalid", PageType("speakers"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.pageType.Valid(); got != tc.expected {
				t.Errorf("Valid() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

// TestPageTypeExtractable tests that only the unknown type is excluded
// from extraction.
func TestPageTypeExtractable(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		pageType PageType
		expected bool
	}{
		{PageTypeSpeaker, true},
		{PageTypeRoundtable, true},
		{PageTypeDiscussion, true},
		{PageTypeUnknown, false},
	}

	for _, tc := range testCases {
		t.Run(tc.pageType.String(), func(t *testing.T) {
			t.Parallel()
			if got := tc.pageType.Extractable(); got != tc.expected {
				t.Errorf("Extractable() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

// TestParsePageType tests the ParsePageType function.
func TestParsePageType(t *testing.T) {
	t.Parallel()

	t.Run("parses all known types", func(t *testing.T) {
		t.Parallel()

		for _, want := range []PageType{PageTypeSpeaker, PageTypeRoundtable, PageTypeDiscussion, PageTypeUnknown} {
			got, err := ParsePageType(want.String())
			if err != nil {
				t.Fatalf("ParsePageType(%q) returned error: %v", want, err)
			}
			if got != want {
				t.Errorf("ParsePageType(%q) = %v, expected %v", want, got, want)
			}
		}
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		t.Parallel()

		if _, err := ParsePageType("speakerz"); err == nil {
			t.Error("expected error for unknown page type name, got nil")
		}
		if _, err := ParsePageType(""); err == nil {
			t.Error("expected error for empty page type name, got nil")
		}
	})
}
