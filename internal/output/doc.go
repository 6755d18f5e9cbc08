// Package output writes the aggregated dataset as CSV tables: one
// speakers table, one roundtables table, and one discussion table per
// roundtable. Each file is replaced atomically, and emitting the same
// snapshot twice produces byte-identical files.
package output
