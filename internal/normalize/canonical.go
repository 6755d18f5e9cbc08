package normalize

import (
	"net/url"
	"strings"
)

// Canonicalizer reduces URLs to the canonical form used as entity
// identity. Two URLs that display the same page must canonicalize to the
// same string, or the pipeline would split one entity into several.
//
// Canonicalization is idempotent: applying it to its own output returns
// the same string. The dedup tables depend on this.
type Canonicalizer struct {
	base         *url.URL
	includeQuery bool
}

// NewCanonicalizer creates a canonicalizer that resolves relative URLs
// against baseURL. When includeQuery is true, query strings are kept as
// part of the identity; by default they are dropped because session and
// tracking parameters would split one logical page into many identities.
func NewCanonicalizer(baseURL string, includeQuery bool) (*Canonicalizer, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, err
	}
	return &Canonicalizer{base: base, includeQuery: includeQuery}, nil
}

// Canonicalize returns the canonical form of raw:
// resolved against the base URL, scheme and host lowercased, default
// ports stripped, duplicate slashes collapsed, trailing slash removed
// (the root path stays "/"), fragment dropped, and the query dropped
// unless configured otherwise.
//
// Unparseable input is returned trimmed but otherwise unchanged; it still
// works as an opaque identity key.
func (c *Canonicalizer) Canonicalize(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u = c.base.ResolveReference(u)

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host

	p := u.Path
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if p == "" {
		p = "/"
	}
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	u.Path = p
	u.RawPath = ""

	u.Fragment = ""
	if !c.includeQuery {
		u.RawQuery = ""
	}

	return u.String()
}

// SameHost reports whether the canonical URL points at the base host or
// one of the allowed hosts. Used to keep traversal in scope.
func (c *Canonicalizer) SameHost(canonicalURL string, allowed []string) bool {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if len(allowed) == 0 {
		return host == strings.ToLower(c.base.Hostname())
	}
	for _, a := range allowed {
		if host == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// Slug returns the human-readable short identifier derived from a
// canonical URL: the last path segment, or "root" for the site root.
// Slugs name entities in CSV cross references and per-roundtable file
// names; the canonical URL remains the real identity.
func Slug(canonicalURL string) string {
	p := canonicalURL
	if u, err := url.Parse(canonicalURL); err == nil {
		p = u.Path
	}
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return "root"
	}
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if p == "" {
		return "root"
	}
	return p
}

// ParentURL returns the canonical URL one path segment above u, or u
// itself when already at the root. A discussion page's parent is the
// roundtable page it hangs off, which is how stub roundtables get their
// identity before their own page is fetched.
func ParentURL(canonicalURL string) string {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return canonicalURL
	}
	p := strings.TrimSuffix(u.Path, "/")
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		u.Path = "/"
	} else {
		u.Path = p[:i]
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
