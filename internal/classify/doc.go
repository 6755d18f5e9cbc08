// Package classify routes URLs to page types using the ordered pattern
// table from the rules file. Classification looks only at the URL, never
// at page content, so it can run before a page body is available.
package classify
