package fetch

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// extractLinks returns the href target of every anchor in the markup,
// resolved against the page URL. Non-navigational targets (javascript:,
// mailto:, tel:, data:, bare fragments) are dropped.
//
// Design decision: We parse with golang.org/x/net/html rather than
// regular expressions because it correctly handles the malformed HTML
// common on community sites, and it is the same parser the extraction
// layer's selector engine builds on.
func extractLinks(pageURL, markup string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if link := resolveHref(base, getAttr(n, "href")); link != "" {
				links = append(links, link)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links
}

// resolveHref resolves a raw href against the page URL, dropping
// non-navigational schemes.
func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
