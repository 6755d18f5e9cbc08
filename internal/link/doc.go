// Package link resolves relationships between entities that were
// discovered on separate pages: roundtable participants and discussion
// authors are matched to speaker profiles.
//
// Matching runs in two phases. Participant URLs are matched exactly
// against speaker canonical URLs; a URL whose speaker has not been seen
// yet stays pending and is linked the moment that speaker arrives.
// Participants known only by display name fall back to fuzzy name
// similarity, accepted only above a configured threshold and only when
// no second candidate scores close enough to make the choice a guess.
//
// The linker is incremental: speakers and roundtables may be added in
// any order, and link resolution refines as the entity set grows. For a
// given final entity set the output is identical regardless of arrival
// order.
package link
