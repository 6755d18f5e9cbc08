// Package main provides the entry point for the sitesift CLI.
//
// sitesift turns a speaking-events community site into deduplicated
// relational CSV datasets (speakers, roundtables, discussion posts) plus
// human-readable markdown maps of the site.
//
// Usage:
//
//	sitesift scrape
//	sitesift crawl
//
// See --help for all available options.
package main

// main is the entry point for sitesift.
func main() {
	Execute()
}
