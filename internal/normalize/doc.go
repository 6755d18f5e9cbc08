// Package normalize converts raw extracted fields into typed entities
// with canonical identifiers. It owns URL canonicalization (the canonical
// form is the identity key used everywhere downstream), whitespace and
// date cleanup, and the per-record rejection policy: a record missing its
// critical field is skipped and counted, never fatal to the run.
package normalize
