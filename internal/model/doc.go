// Package model defines the core data structures used throughout sitesift.
//
// This package contains the following main types:
//   - PageType: classification of a fetched page (speaker, roundtable, discussion)
//   - Speaker, Roundtable, DiscussionPost: the harvested entities
//   - Dataset: a deterministic snapshot of all aggregated entities
//   - RelationGraph: resolved roundtable/speaker relationships
//   - SiteReport: the accumulated result of a whole crawl or scrape run
//
// Entities are identified by their canonical URL (see the normalize package).
// The short ID carried next to it is the URL slug, used for human-readable
// cross references in CSV columns and per-roundtable file names.
//
// All types in this package are plain data holders. Behavior that needs
// configuration or shared state lives in the pipeline packages (classify,
// extract, normalize, link, aggregate).
package model
