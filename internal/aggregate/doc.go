// Package aggregate accumulates normalized entities across a whole
// crawl and maintains the deduplicated dataset the output writers
// consume.
//
// The engine is the single writer for all run state. Pages may be
// processed from any number of fetch workers in any order; every merge
// is serialized internally, records with the same canonical URL are
// folded together (latest wins on scalars, union on lists), and
// discussion posts are append-only with duplicate identities skipped.
// Snapshots taken at any point are consistent and complete for the
// pages processed so far.
package aggregate
