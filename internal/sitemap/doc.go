// Package sitemap arranges the crawl's processed URLs into a path tree
// for the site map document. Each node is one path segment; nodes where
// a page was actually processed carry its classified type.
package sitemap
