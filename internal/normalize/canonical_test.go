package normalize

import "testing"

// TestCanonicalize tests the canonical URL reduction rules.
func TestCanonicalize(t *testing.T) {
	t.Parallel()

	c, err := NewCanonicalizer("https://example.com", false)
	if err != nil {
		t.Fatalf("failed to create canonicalizer: %v", err)
	}

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"already canonical", "https://example.com/speakers/amy", "https://example.com/speakers/amy"},
		{"uppercase scheme and host", "HTTPS://EXAMPLE.com/speakers/amy", "https://example.com/speakers/amy"},
		{"default https port stripped", "https://example.com:443/speakers/amy", "https://example.com/speakers/amy"},
		{"default http port stripped", "http://example.com:80/speakers/amy", "http://example.com/speakers/amy"},
		{"non-default port kept", "https://example.com:8443/speakers/amy", "https://example.com:8443/speakers/amy"},
		{"trailing slash stripped", "https://example.com/speakers/amy/", "https://example.com/speakers/amy"},
		{"root keeps its slash", "https://example.com/", "https://example.com/"},
		{"empty path becomes root", "https://example.com", "https://example.com/"},
		{"duplicate slashes collapsed", "https://example.com//speakers///amy", "https://example.com/speakers/amy"},
		{"fragment dropped", "https://example.com/speakers/amy#bio", "https://example.com/speakers/amy"},
		{"query dropped by default", "https://example.com/speakers/amy?ref=home", "https://example.com/speakers/amy"},
		{"relative path resolved against base", "/speakers/amy", "https://example.com/speakers/amy"},
		{"dot segments resolved", "https://example.com/a/../speakers/./amy", "https://example.com/speakers/amy"},
		{"whitespace trimmed", "  https://example.com/speakers/amy  ", "https://example.com/speakers/amy"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := c.Canonicalize(tc.input); got != tc.expected {
				t.Errorf("Canonicalize(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

// TestCanonicalizeIdempotent tests that canonicalizing a canonical URL
// returns it unchanged, which the dedup tables depend on.
func TestCanonicalizeIdempotent(t *testing.T) {
	t.Parallel()

	c, err := NewCanonicalizer("https://example.com", false)
	if err != nil {
		t.Fatalf("failed to create canonicalizer: %v", err)
	}

	inputs := []string{
		"https://example.com",
		"https://EXAMPLE.com:443//speakers//amy/?q=1#frag",
		"/roundtables/ai-ethics/",
		"not a url at all",
	}

	for _, input := range inputs {
		once := c.Canonicalize(input)
		twice := c.Canonicalize(once)
		if once != twice {
			t.Errorf("Canonicalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

// TestCanonicalizeIncludeQuery tests that query strings survive when
// configured as part of the identity.
func TestCanonicalizeIncludeQuery(t *testing.T) {
	t.Parallel()

	c, err := NewCanonicalizer("https://example.com", true)
	if err != nil {
		t.Fatalf("failed to create canonicalizer: %v", err)
	}

	got := c.Canonicalize("https://example.com/speakers/amy?page=2#frag")
	if got != "https://example.com/speakers/amy?page=2" {
		t.Errorf("Canonicalize() = %q, expected query kept and fragment dropped", got)
	}
}

// TestSameHost tests traversal scope checks.
func TestSameHost(t *testing.T) {
	t.Parallel()

	c, err := NewCanonicalizer("https://example.com", false)
	if err != nil {
		t.Fatalf("failed to create canonicalizer: %v", err)
	}

	testCases := []struct {
		name     string
		url      string
		allowed  []string
		expected bool
	}{
		{"base host in scope", "https://example.com/speakers/amy", nil, true},
		{"other host out of scope", "https://other.example.org/", nil, false},
		{"allowed host in scope", "https://cdn.example.com/x", []string{"cdn.example.com"}, true},
		{"host not in allow list", "https://example.com/x", []string{"cdn.example.com"}, false},
		{"case-insensitive host match", "https://EXAMPLE.com/x", nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := c.SameHost(tc.url, tc.allowed); got != tc.expected {
				t.Errorf("SameHost(%q, %v) = %v, expected %v", tc.url, tc.allowed, got, tc.expected)
			}
		})
	}
}

// TestSlug tests short identifier derivation from canonical URLs.
func TestSlug(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		url      string
		expected string
	}{
		{"https://example.com/speakers/amy-lin", "amy-lin"},
		{"https://example.com/roundtables/ai-ethics", "ai-ethics"},
		{"https://example.com/", "root"},
		{"https://example.com", "root"},
		{"https://example.com/a/b/c", "c"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if got := Slug(tc.url); got != tc.expected {
				t.Errorf("Slug(%q) = %q, expected %q", tc.url, got, tc.expected)
			}
		})
	}
}

// TestParentURL tests parent path derivation used for stub roundtables.
func TestParentURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		url      string
		expected string
	}{
		{"discussion to roundtable", "https://example.com/roundtables/ai-ethics/discussion", "https://example.com/roundtables/ai-ethics"},
		{"entity to section", "https://example.com/roundtables/ai-ethics", "https://example.com/roundtables"},
		{"top level to root", "https://example.com/about", "https://example.com/"},
		{"root stays root", "https://example.com/", "https://example.com/"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ParentURL(tc.url); got != tc.expected {
				t.Errorf("ParentURL(%q) = %q, expected %q", tc.url, got, tc.expected)
			}
		})
	}
}
